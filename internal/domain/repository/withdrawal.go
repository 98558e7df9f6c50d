package repository

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

// WithdrawalRepository persists withdrawals together with their allocations.
type WithdrawalRepository interface {
	Lister[model.Withdrawal, model.WithdrawalFilter]

	// Create inserts the withdrawal row and all allocation rows. A clash on the
	// requester's idempotency key yields errors.ErrAlreadyExists.
	Create(ctx context.Context, w *model.Withdrawal) error
	GetByID(ctx context.Context, id string) (*model.Withdrawal, error)
	GetByIdempotencyKey(ctx context.Context, requesterID, key string) (*model.Withdrawal, error)
	// ApplyReview swaps a pending status for t.To. It reports false when the
	// withdrawal was no longer pending (or was archived under RequireActive).
	ApplyReview(ctx context.Context, t workflow.Transition) (*model.Withdrawal, bool, error)
	Archive(ctx context.Context, id string) (*model.Withdrawal, error)
}
