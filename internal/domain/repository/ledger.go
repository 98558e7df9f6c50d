package repository

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

// PointsLedger exposes earned point transactions and their unspent counters.
type PointsLedger interface {
	ListEligibleSourceTransactions(ctx context.Context, requesterID string) ([]model.SourceTransaction, error)
	// ReserveUnspentAmount decrements the unspent counter only if at least amount
	// remains; otherwise it fails with errors.ErrAllocationConflict.
	ReserveUnspentAmount(ctx context.Context, sourceTransactionID string, amount int64) error
}

// PaymentsDirectory resolves the payments that funded a point transaction.
type PaymentsDirectory interface {
	GetPaymentLineage(ctx context.Context, sourceTransactionID string) ([]model.PaymentLineageEntry, error)
}

// EffectsDispatcher triggers the payout or notification side effect of a
// committed review. Delivery is the collaborator's concern.
type EffectsDispatcher interface {
	Dispatch(ctx context.Context, effect workflow.Effect, w model.Withdrawal) error
}
