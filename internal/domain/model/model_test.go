package model

import (
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
)

func TestWithdrawalStatusValues(t *testing.T) {
	cases := []struct {
		name     string
		got      WithdrawalStatus
		value    string
		pending  bool
		terminal bool
	}{
		{"pending", WithdrawalStatusPending, "PENDING", true, false},
		{"pending signature", WithdrawalStatusPendingSignature, "PENDING_SIGNATURE", true, false},
		{"approved", WithdrawalStatusApproved, "APPROVED", false, true},
		{"rejected", WithdrawalStatusRejected, "REJECTED", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
			if tc.got.IsPending() != tc.pending {
				t.Fatalf("unexpected IsPending for %s", tc.got)
			}
			if tc.got.IsTerminal() != tc.terminal {
				t.Fatalf("unexpected IsTerminal for %s", tc.got)
			}
			if !tc.got.Valid() {
				t.Fatalf("expected %s to be valid", tc.got)
			}
		})
	}

	if WithdrawalStatus("CANCELLED").Valid() {
		t.Fatal("unknown status must not be valid")
	}
}

func TestPaymentMethodValues(t *testing.T) {
	cases := []struct {
		method PaymentMethod
		value  string
	}{
		{PaymentMethodVoucher, "VOUCHER"},
		{PaymentMethodPoints, "POINTS"},
		{PaymentMethodCard, "CARD"},
		{PaymentMethodBankTransfer, "BANK_TRANSFER"},
	}

	for _, tc := range cases {
		if string(tc.method) != tc.value {
			t.Fatalf("expected %s, got %s", tc.value, tc.method)
		}
	}
}

func validParams() NewWithdrawalParams {
	return NewWithdrawalParams{
		ID:          "w-1",
		RequesterID: "u-1",
		Amount:      450,
		CreatedAt:   time.Unix(100, 0),
		Allocations: []WithdrawalAllocation{
			{ID: "a-1", SourceTransactionID: "day1", AmountUsed: 300, SourcePointsTotal: 300},
			{ID: "a-2", SourceTransactionID: "day2", AmountUsed: 150, SourcePointsTotal: 200},
		},
	}
}

func TestNewWithdrawalBuildsPendingWithdrawal(t *testing.T) {
	w, err := NewWithdrawal(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Status != WithdrawalStatusPending {
		t.Fatalf("expected pending status, got %s", w.Status)
	}
	if w.AllocatedTotal() != w.Amount {
		t.Fatalf("expected allocated total %d, got %d", w.Amount, w.AllocatedTotal())
	}
	for _, a := range w.Allocations {
		if a.WithdrawalID != "w-1" {
			t.Fatalf("expected allocation owned by w-1, got %q", a.WithdrawalID)
		}
	}
	if w.ReviewedAt != nil || w.ReviewerID != nil || w.RejectionReason != nil {
		t.Fatal("new withdrawal must not carry review data")
	}
}

func TestNewWithdrawalRejectsBrokenAllocations(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewWithdrawalParams)
	}{
		{"sum mismatch", func(p *NewWithdrawalParams) { p.Amount = 451 }},
		{"zero slice", func(p *NewWithdrawalParams) { p.Allocations[1].AmountUsed = 0; p.Amount = 300 }},
		{"negative slice", func(p *NewWithdrawalParams) { p.Allocations[1].AmountUsed = -150; p.Amount = 150 }},
		{"duplicate source", func(p *NewWithdrawalParams) { p.Allocations[1].SourceTransactionID = "day1" }},
		{"no allocations", func(p *NewWithdrawalParams) { p.Allocations = nil }},
		{"non-positive amount", func(p *NewWithdrawalParams) { p.Amount = 0; p.Allocations = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := NewWithdrawal(p); !errors.Is(err, domainErrors.ErrInvalidAllocation) {
				t.Fatalf("expected invalid allocation, got %v", err)
			}
		})
	}
}

func TestNewWithdrawalCopiesAllocations(t *testing.T) {
	p := validParams()
	w, err := NewWithdrawal(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Allocations[0].AmountUsed = 1
	if w.Allocations[0].AmountUsed != 300 {
		t.Fatal("withdrawal allocations must not alias caller slice")
	}
}

func TestSamePayload(t *testing.T) {
	dest := BankDestination{BankName: "Bank", AccountNumber: "001", RoutingCode: "CCI"}
	w := &Withdrawal{RequesterID: "u-1", Amount: 200, BankDestination: dest}
	if !w.SamePayload("u-1", 200, dest) {
		t.Fatal("expected identical payload to match")
	}
	if w.SamePayload("u-1", 201, dest) {
		t.Fatal("expected amount change to mismatch")
	}
	other := dest
	other.AccountNumber = "002"
	if w.SamePayload("u-1", 200, other) {
		t.Fatal("expected destination change to mismatch")
	}
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}.Normalize()
	if p.Page != 1 || p.PageSize != DefaultPageSize {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	p = Pagination{Page: 3, PageSize: 1000}.Normalize()
	if p.PageSize != MaxPageSize {
		t.Fatalf("expected cap %d, got %d", MaxPageSize, p.PageSize)
	}
	if p.Offset() != 2*MaxPageSize {
		t.Fatalf("unexpected offset %d", p.Offset())
	}
}

func TestCallerIsReviewer(t *testing.T) {
	if !(Caller{ID: "a", Role: RoleAdmin}).IsReviewer() {
		t.Fatal("admin must be reviewer")
	}
	if (Caller{ID: "u", Role: RoleUser}).IsReviewer() {
		t.Fatal("user must not be reviewer")
	}
}
