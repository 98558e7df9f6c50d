package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

// LineageCollector fetches payment lineage for a set of allocations with a
// bounded number of concurrent directory calls.
type LineageCollector struct {
	directory repository.PaymentsDirectory
	workers   int
	logger    *slog.Logger
}

// NewLineageCollector constructs the collector. workers below one means one.
func NewLineageCollector(directory repository.PaymentsDirectory, workers int, logger *slog.Logger) *LineageCollector {
	if workers <= 0 {
		workers = 1
	}
	return &LineageCollector{
		directory: directory,
		workers:   workers,
		logger:    logger,
	}
}

// Collect resolves lineage for every allocation, preserving input order.
// The first failure cancels outstanding lookups and is reported as ErrUnavailable.
func (c *LineageCollector) Collect(ctx context.Context, allocations []model.WithdrawalAllocation) ([]model.AllocationDetail, error) {
	details := make([]model.AllocationDetail, len(allocations))
	if len(allocations) == 0 {
		return details, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, a := range allocations {
		g.Go(func() error {
			lineage, err := c.directory.GetPaymentLineage(gctx, a.SourceTransactionID)
			if err != nil {
				if gctx.Err() != nil && errors.Is(err, context.Canceled) {
					return err
				}
				c.logger.Warn("payment lineage lookup failed",
					slog.String("source_transaction_id", a.SourceTransactionID),
					slog.String("error", err.Error()),
				)
				return fmt.Errorf("lineage for %s: %w", a.SourceTransactionID, err)
			}
			if lineage == nil {
				lineage = []model.PaymentLineageEntry{}
			}
			details[i] = model.AllocationDetail{WithdrawalAllocation: a, PaymentLineage: lineage}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, domainErrors.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrUnavailable, err)
	}
	return details, nil
}
