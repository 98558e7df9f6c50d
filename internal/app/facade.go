package app

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	pkgAuth "github.com/polkiloo/withdrawals/internal/pkg/auth"
	"github.com/polkiloo/withdrawals/internal/usecase"
)

// WithdrawalFacade is the single entry point the HTTP layer talks to.
type WithdrawalFacade struct {
	withdrawals *usecase.WithdrawalUseCase
	tokens      pkgAuth.Strategy
	health      repository.HealthChecker
}

func NewWithdrawalFacade(withdrawals *usecase.WithdrawalUseCase, tokens pkgAuth.Strategy, health repository.HealthChecker) *WithdrawalFacade {
	return &WithdrawalFacade{withdrawals: withdrawals, tokens: tokens, health: health}
}

func (f *WithdrawalFacade) ParseToken(token string) (model.Caller, error) {
	return f.tokens.ParseToken(token)
}

func (f *WithdrawalFacade) CreateWithdrawal(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, bool, error) {
	return f.withdrawals.Create(ctx, req)
}

func (f *WithdrawalFacade) Approve(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	return f.withdrawals.Approve(ctx, caller, id)
}

func (f *WithdrawalFacade) Reject(ctx context.Context, caller model.Caller, id, reason string) (*model.Withdrawal, error) {
	return f.withdrawals.Reject(ctx, caller, id, reason)
}

func (f *WithdrawalFacade) Archive(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
	return f.withdrawals.Archive(ctx, caller, id)
}

func (f *WithdrawalFacade) Detail(ctx context.Context, caller model.Caller, id string) (*model.WithdrawalDetail, error) {
	return f.withdrawals.Detail(ctx, caller, id)
}

func (f *WithdrawalFacade) List(ctx context.Context, caller model.Caller, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error) {
	return f.withdrawals.List(ctx, caller, filter)
}

func (f *WithdrawalFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
