package handlers

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// AuthFacade resolves bearer tokens.
type AuthFacade interface {
	ParseToken(token string) (model.Caller, error)
}

// WithdrawalFacade encapsulates withdrawal operations exposed via HTTP.
type WithdrawalFacade interface {
	CreateWithdrawal(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, bool, error)
	Approve(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error)
	Reject(ctx context.Context, caller model.Caller, id, reason string) (*model.Withdrawal, error)
	Archive(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error)
	Detail(ctx context.Context, caller model.Caller, id string) (*model.WithdrawalDetail, error)
	List(ctx context.Context, caller model.Caller, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error)
}

// HealthFacade reports readiness.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// Facade aggregates the full set of operations used across handlers.
type Facade interface {
	AuthFacade
	WithdrawalFacade
	HealthFacade
}
