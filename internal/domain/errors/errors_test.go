package errors

import (
	stdErrors "errors"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"invalid request", ErrInvalidRequest},
		{"below minimum", ErrBelowMinimum},
		{"insufficient funds", ErrInsufficientFunds},
		{"invalid allocation", ErrInvalidAllocation},
		{"already reviewed", ErrAlreadyReviewed},
		{"invalid rejection reason", ErrInvalidRejectionReason},
		{"not found", ErrNotFound},
		{"already exists", ErrAlreadyExists},
		{"idempotency mismatch", ErrIdempotencyMismatch},
		{"allocation conflict", ErrAllocationConflict},
		{"forbidden", ErrForbidden},
		{"unavailable", ErrUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	below := &BelowMinimumError{Requested: 50, Minimum: 100}
	if !stdErrors.Is(below, ErrBelowMinimum) {
		t.Fatalf("expected below minimum sentinel, got %v", below)
	}
	if !strings.Contains(below.Error(), "minimum 100") {
		t.Fatalf("expected floor in message, got %q", below.Error())
	}

	funds := &InsufficientFundsError{Requested: 600, Available: 500}
	if !stdErrors.Is(funds, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds sentinel, got %v", funds)
	}
	if funds.Shortfall() != 100 {
		t.Fatalf("expected shortfall 100, got %d", funds.Shortfall())
	}

	var target *InsufficientFundsError
	if !stdErrors.As(error(funds), &target) || target.Available != 500 {
		t.Fatalf("expected errors.As to extract typed error")
	}

	alloc := &InvalidAllocationError{Reason: "sum mismatch"}
	if !stdErrors.Is(alloc, ErrInvalidAllocation) {
		t.Fatalf("expected invalid allocation sentinel, got %v", alloc)
	}
}

func TestInvalidRequestWrapsSentinel(t *testing.T) {
	err := InvalidRequest("amount must be positive, got %d", -1)
	if !stdErrors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "got -1") {
		t.Fatalf("expected detail in message, got %q", err.Error())
	}
}
