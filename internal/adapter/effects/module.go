package effects

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

// Module provides the effects dispatcher: AMQP when a broker URL is set,
// the log dispatcher otherwise.
var Module = fx.Provide(newDispatcher)

type dispatcherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newDispatcher(p dispatcherParams) (repository.EffectsDispatcher, error) {
	if p.Config.AMQPURL == "" {
		p.Logger.Info("no amqp broker configured, effects are logged only")
		return NewLogDispatcher(p.Logger), nil
	}

	d, err := NewAMQPDispatcher(p.Config.AMQPURL, p.Config.EffectsExchange, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return d.Close()
		},
	})
	return d, nil
}
