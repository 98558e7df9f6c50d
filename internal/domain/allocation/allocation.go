// Package allocation selects which earned point transactions fund a withdrawal.
//
// The policy is oldest-first exhaustion: eligible sources are ordered by
// EarnedAt ascending, ties broken by ID ascending, and consumed greedily until
// the requested amount is covered. The result is deterministic for a given pool.
package allocation

import (
	"sort"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
)

// Slice is one (source, amount) pair of a covering allocation set.
type Slice struct {
	SourceTransactionID string
	AmountUsed          int64
	SourcePointsTotal   int64
}

// CheckAmount validates a requested amount against the policy floor.
func CheckAmount(amount, minimum int64) error {
	if amount <= 0 {
		return domainErrors.InvalidRequest("amount must be positive, got %d", amount)
	}
	if amount < minimum {
		return &domainErrors.BelowMinimumError{Requested: amount, Minimum: minimum}
	}
	return nil
}

// Plan returns the slices covering amount drawn from pool, or the reason none exists.
// The pool is not modified.
func Plan(amount, minimum int64, pool []model.SourceTransaction) ([]Slice, error) {
	if err := CheckAmount(amount, minimum); err != nil {
		return nil, err
	}

	eligible := make([]model.SourceTransaction, 0, len(pool))
	for _, src := range pool {
		if src.UnspentAmount > 0 {
			eligible = append(eligible, src)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].EarnedAt.Equal(eligible[j].EarnedAt) {
			return eligible[i].EarnedAt.Before(eligible[j].EarnedAt)
		}
		return eligible[i].ID < eligible[j].ID
	})

	remaining := amount
	slices := make([]Slice, 0, len(eligible))
	for _, src := range eligible {
		if remaining == 0 {
			break
		}
		take := min(remaining, src.UnspentAmount)
		slices = append(slices, Slice{
			SourceTransactionID: src.ID,
			AmountUsed:          take,
			SourcePointsTotal:   src.TotalAmount,
		})
		remaining -= take
	}

	if remaining > 0 {
		return nil, &domainErrors.InsufficientFundsError{Requested: amount, Available: amount - remaining}
	}
	return slices, nil
}

// Available sums the unspent amount of every eligible source in pool.
func Available(pool []model.SourceTransaction) int64 {
	var total int64
	for _, src := range pool {
		if src.UnspentAmount > 0 {
			total += src.UnspentAmount
		}
	}
	return total
}
