package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrBelowMinimum           = errors.New("amount below minimum")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAllocation      = errors.New("invalid allocation")
	ErrAlreadyReviewed        = errors.New("withdrawal already reviewed")
	ErrInvalidRejectionReason = errors.New("invalid rejection reason")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrIdempotencyMismatch    = errors.New("idempotency key reused with different payload")
	ErrAllocationConflict     = errors.New("source transaction balance changed concurrently")
	ErrForbidden              = errors.New("forbidden")
	ErrUnavailable            = errors.New("dependency unavailable")
)

// BelowMinimumError reports the policy floor a request failed to reach.
type BelowMinimumError struct {
	Requested int64
	Minimum   int64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("%s: requested %d, minimum %d", ErrBelowMinimum, e.Requested, e.Minimum)
}

func (e *BelowMinimumError) Unwrap() error { return ErrBelowMinimum }

// InsufficientFundsError reports how many points were missing to cover a request.
type InsufficientFundsError struct {
	Requested int64
	Available int64
}

// Shortfall is the number of points still missing after the whole pool was consumed.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: requested %d, available %d, shortfall %d", ErrInsufficientFunds, e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InvalidAllocationError describes a broken allocation invariant.
type InvalidAllocationError struct {
	Reason string
}

func (e *InvalidAllocationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidAllocation, e.Reason)
}

func (e *InvalidAllocationError) Unwrap() error { return ErrInvalidAllocation }

// InvalidRequest wraps ErrInvalidRequest with a human readable detail.
func InvalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
