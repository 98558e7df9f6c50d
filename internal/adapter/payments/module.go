package payments

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

// Module exposes the payments directory client to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (repository.PaymentsDirectory, error) {
	return NewHTTPClient(p.Config.PaymentsDirectoryAddress, p.Config.ExternalTimeout, p.Logger)
}
