package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/adapter/cache"
	"github.com/polkiloo/withdrawals/internal/adapter/effects"
	"github.com/polkiloo/withdrawals/internal/adapter/payments"
	"github.com/polkiloo/withdrawals/internal/app"
	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/logger"
	"github.com/polkiloo/withdrawals/internal/pkg/auth"
	"github.com/polkiloo/withdrawals/internal/server/http/handlers"
	"github.com/polkiloo/withdrawals/internal/server/http/router"
	"github.com/polkiloo/withdrawals/internal/storage/postgres"
	"github.com/polkiloo/withdrawals/internal/usecase"
	"github.com/polkiloo/withdrawals/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		payments.Module,
		effects.Module,
		cache.Module,
		worker.Module,
		usecase.Module,
		fx.Provide(func(f *app.WithdrawalFacade) handlers.Facade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
