package effects

import (
	"context"
	"log/slog"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

// LogDispatcher records effects in the log when no broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, effect workflow.Effect, w model.Withdrawal) error {
	event := NewEvent(effect, w)
	d.logger.InfoContext(ctx, "effect dispatched without broker",
		slog.String("effect", event.Effect),
		slog.String("withdrawal_id", event.WithdrawalID),
		slog.String("requester_id", event.RequesterID),
		slog.Int64("amount", event.Amount),
		slog.String("status", event.Status),
	)
	return nil
}
