package repository

import "context"

// Transactor runs fn inside a single persistence transaction. Repository calls
// made with the context passed to fn join that transaction; any error returned
// by fn rolls back every write made through it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
