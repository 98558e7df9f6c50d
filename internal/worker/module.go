package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

// Module provides the lineage collector sized by LINEAGE_WORKERS.
var Module = fx.Provide(newLineageCollector)

func newLineageCollector(directory repository.PaymentsDirectory, cfg *config.Config, logger *slog.Logger) *LineageCollector {
	return NewLineageCollector(directory, cfg.LineageWorkers, logger)
}
