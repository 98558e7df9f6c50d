package model

import (
	"time"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
)

// WithdrawalAllocation is the slice of one source point transaction consumed by a withdrawal.
type WithdrawalAllocation struct {
	ID                  string
	WithdrawalID        string
	SourceTransactionID string
	AmountUsed          int64
	SourcePointsTotal   int64
	Metadata            Metadata
}

// SourceTransaction is an earned point transaction eligible to fund withdrawals.
type SourceTransaction struct {
	ID            string
	RequesterID   string
	TotalAmount   int64
	UnspentAmount int64
	EarnedAt      time.Time
}

// NewWithdrawalParams carries everything needed to build a pending withdrawal.
type NewWithdrawalParams struct {
	ID              string
	RequesterID     string
	Amount          int64
	BankDestination BankDestination
	CreatedAt       time.Time
	IdempotencyKey  *string
	Metadata        Metadata
	Allocations     []WithdrawalAllocation
}

// NewWithdrawal builds a PENDING withdrawal and checks that its allocation set
// covers the amount exactly, uses positive slices and draws at most once per source.
func NewWithdrawal(p NewWithdrawalParams) (*Withdrawal, error) {
	if p.Amount <= 0 {
		return nil, &domainErrors.InvalidAllocationError{Reason: "withdrawal amount must be positive"}
	}

	seen := make(map[string]struct{}, len(p.Allocations))
	allocations := make([]WithdrawalAllocation, 0, len(p.Allocations))
	var total int64
	for _, a := range p.Allocations {
		if a.AmountUsed <= 0 {
			return nil, &domainErrors.InvalidAllocationError{Reason: "allocation for source " + a.SourceTransactionID + " has non-positive amount"}
		}
		if _, dup := seen[a.SourceTransactionID]; dup {
			return nil, &domainErrors.InvalidAllocationError{Reason: "source " + a.SourceTransactionID + " allocated more than once"}
		}
		seen[a.SourceTransactionID] = struct{}{}
		a.WithdrawalID = p.ID
		allocations = append(allocations, a)
		total += a.AmountUsed
	}

	if total != p.Amount {
		return nil, &domainErrors.InvalidAllocationError{Reason: "allocations do not sum to withdrawal amount"}
	}

	return &Withdrawal{
		ID:              p.ID,
		RequesterID:     p.RequesterID,
		Amount:          p.Amount,
		Status:          WithdrawalStatusPending,
		BankDestination: p.BankDestination,
		CreatedAt:       p.CreatedAt,
		IdempotencyKey:  p.IdempotencyKey,
		Metadata:        p.Metadata,
		Allocations:     allocations,
	}, nil
}
