package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	"github.com/polkiloo/withdrawals/internal/worker"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(newWithdrawalUseCase)

type withdrawalParams struct {
	fx.In

	Withdrawals repository.WithdrawalRepository
	Ledger      repository.PointsLedger
	Transactor  repository.Transactor
	Effects     repository.EffectsDispatcher
	Cache       repository.DetailCache
	Lineage     *worker.LineageCollector
	Config      *config.Config
	Logger      *slog.Logger
}

func newWithdrawalUseCase(p withdrawalParams) *WithdrawalUseCase {
	return NewWithdrawalUseCase(WithdrawalDeps{
		Withdrawals: p.Withdrawals,
		Ledger:      p.Ledger,
		Transactor:  p.Transactor,
		Effects:     p.Effects,
		Cache:       p.Cache,
		Lineage:     p.Lineage,
	}, p.Config.MinWithdrawalAmount, p.Logger)
}
