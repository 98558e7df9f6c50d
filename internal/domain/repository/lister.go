package repository

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// Lister pages through entities of type T narrowed by a filter of type F.
type Lister[T any, F any] interface {
	List(ctx context.Context, filter F) (model.Page[T], error)
}
