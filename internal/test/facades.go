package test

import (
	"context"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// WithdrawalFacadeStub provides controllable behaviour for withdrawal endpoints.
type WithdrawalFacadeStub struct {
	TokenParserStub

	CreateFn  func(context.Context, model.WithdrawalRequest) (*model.Withdrawal, bool, error)
	ApproveFn func(context.Context, model.Caller, string) (*model.Withdrawal, error)
	RejectFn  func(context.Context, model.Caller, string, string) (*model.Withdrawal, error)
	ArchiveFn func(context.Context, model.Caller, string) (*model.Withdrawal, error)
	DetailFn  func(context.Context, model.Caller, string) (*model.WithdrawalDetail, error)
	ListFn    func(context.Context, model.Caller, model.WithdrawalFilter) (model.Page[model.Withdrawal], error)
	HealthErr error
}

// SampleWithdrawal returns a pending withdrawal fixture.
func SampleWithdrawal(id, requesterID string) model.Withdrawal {
	return model.Withdrawal{
		ID:              id,
		RequesterID:     requesterID,
		Amount:          450,
		Status:          model.WithdrawalStatusPending,
		BankDestination: model.BankDestination{BankName: "Acme Bank", AccountNumber: "0001", RoutingCode: "R-1"},
		CreatedAt:       time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Allocations: []model.WithdrawalAllocation{
			{ID: "a1", WithdrawalID: id, SourceTransactionID: "t1", AmountUsed: 300, SourcePointsTotal: 300},
			{ID: "a2", WithdrawalID: id, SourceTransactionID: "t2", AmountUsed: 150, SourcePointsTotal: 200},
		},
	}
}

// CreateWithdrawal delegates to provided function or echoes a pending withdrawal.
func (s WithdrawalFacadeStub) CreateWithdrawal(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, bool, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, req)
	}
	w := SampleWithdrawal("w1", req.RequesterID)
	w.Amount = req.Amount
	w.BankDestination = req.BankDestination
	return &w, true, nil
}

// Approve delegates to provided function or returns an approved withdrawal.
func (s WithdrawalFacadeStub) Approve(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, caller, id)
	}
	w := SampleWithdrawal(id, "u1")
	w.Status = model.WithdrawalStatusApproved
	w.ReviewerID = &caller.ID
	return &w, nil
}

// Reject delegates to provided function or returns a rejected withdrawal.
func (s WithdrawalFacadeStub) Reject(ctx context.Context, caller model.Caller, id, reason string) (*model.Withdrawal, error) {
	if s.RejectFn != nil {
		return s.RejectFn(ctx, caller, id, reason)
	}
	w := SampleWithdrawal(id, "u1")
	w.Status = model.WithdrawalStatusRejected
	w.ReviewerID = &caller.ID
	w.RejectionReason = &reason
	return &w, nil
}

// Archive delegates to provided function or returns an archived withdrawal.
func (s WithdrawalFacadeStub) Archive(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	if s.ArchiveFn != nil {
		return s.ArchiveFn(ctx, caller, id)
	}
	w := SampleWithdrawal(id, "u1")
	w.IsArchived = true
	return &w, nil
}

// Detail delegates to provided function or returns a detail without lineage.
func (s WithdrawalFacadeStub) Detail(ctx context.Context, caller model.Caller, id string) (*model.WithdrawalDetail, error) {
	if s.DetailFn != nil {
		return s.DetailFn(ctx, caller, id)
	}
	w := SampleWithdrawal(id, caller.ID)
	detail := &model.WithdrawalDetail{Withdrawal: w}
	for _, a := range w.Allocations {
		detail.Allocations = append(detail.Allocations, model.AllocationDetail{WithdrawalAllocation: a, PaymentLineage: []model.PaymentLineageEntry{}})
	}
	detail.Withdrawal.Allocations = nil
	return detail, nil
}

// List delegates to provided function or returns a single-item page.
func (s WithdrawalFacadeStub) List(ctx context.Context, caller model.Caller, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, caller, filter)
	}
	return model.Page[model.Withdrawal]{Items: []model.Withdrawal{SampleWithdrawal("w1", caller.ID)}, Page: 1, PageSize: model.DefaultPageSize, Total: 1}, nil
}

// HealthCheck returns HealthErr.
func (s WithdrawalFacadeStub) HealthCheck(context.Context) error {
	return s.HealthErr
}
