package model

import "time"

// WithdrawalStatus describes review lifecycle of a withdrawal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending          WithdrawalStatus = "PENDING"
	WithdrawalStatusPendingSignature WithdrawalStatus = "PENDING_SIGNATURE"
	WithdrawalStatusApproved         WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected         WithdrawalStatus = "REJECTED"
)

// IsPending reports whether the status still accepts a review decision.
// PENDING_SIGNATURE behaves exactly like PENDING.
func (s WithdrawalStatus) IsPending() bool {
	return s == WithdrawalStatusPending || s == WithdrawalStatusPendingSignature
}

// IsTerminal reports whether no further transitions are legal.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// Valid reports whether s is a known status.
func (s WithdrawalStatus) Valid() bool {
	return s.IsPending() || s.IsTerminal()
}

// BankDestination is where an approved payout is sent. Values are opaque here.
type BankDestination struct {
	BankName      string
	AccountNumber string
	RoutingCode   string
}

// Metadata is a pass-through bag stored and returned verbatim.
type Metadata map[string]any

// Withdrawal is a request to convert points into a payout.
type Withdrawal struct {
	ID              string
	RequesterID     string
	Amount          int64
	Status          WithdrawalStatus
	BankDestination BankDestination
	CreatedAt       time.Time
	ReviewedAt      *time.Time
	ReviewerID      *string
	RejectionReason *string
	IsArchived      bool
	IdempotencyKey  *string
	Metadata        Metadata
	Allocations     []WithdrawalAllocation
}

// AllocatedTotal sums AmountUsed across the withdrawal's allocations.
func (w *Withdrawal) AllocatedTotal() int64 {
	var total int64
	for _, a := range w.Allocations {
		total += a.AmountUsed
	}
	return total
}

// SamePayload reports whether a retried creation request matches this withdrawal.
func (w *Withdrawal) SamePayload(requesterID string, amount int64, dest BankDestination) bool {
	return w.RequesterID == requesterID && w.Amount == amount && w.BankDestination == dest
}

// WithdrawalRequest is a caller's request to create a withdrawal.
type WithdrawalRequest struct {
	RequesterID     string
	Amount          int64
	BankDestination BankDestination
	// IdempotencyKey is optional; empty means every call creates a new withdrawal.
	IdempotencyKey string
	Metadata       Metadata
}
