package repository

import (
	"context"

	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// DetailCache holds withdrawal detail projections. A miss is (nil, false, nil).
type DetailCache interface {
	Get(ctx context.Context, id string) (*model.WithdrawalDetail, bool, error)
	Set(ctx context.Context, detail model.WithdrawalDetail) error
	Invalidate(ctx context.Context, id string) error
}
