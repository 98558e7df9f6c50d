package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
)

func (r *ledgerRepository) ListEligibleSourceTransactions(ctx context.Context, requesterID string) ([]model.SourceTransaction, error) {
	const query = `SELECT id, requester_id, total_amount, unspent_amount, earned_at
                   FROM point_transactions
                   WHERE requester_id=$1 AND unspent_amount > 0
                   ORDER BY earned_at, id`
	rows, err := r.storage.conn(ctx).Query(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SourceTransaction
	for rows.Next() {
		var tx model.SourceTransaction
		if err := rows.Scan(&tx.ID, &tx.RequesterID, &tx.TotalAmount, &tx.UnspentAmount, &tx.EarnedAt); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReserveUnspentAmount is a compare-and-swap on the unspent counter: the row is
// only touched while it still holds at least amount points.
func (r *ledgerRepository) ReserveUnspentAmount(ctx context.Context, sourceTransactionID string, amount int64) error {
	const query = `UPDATE point_transactions
                   SET unspent_amount = unspent_amount - $2
                   WHERE id=$1 AND unspent_amount >= $2`
	tag, err := r.storage.conn(ctx).Exec(ctx, query, sourceTransactionID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source %s: %w", sourceTransactionID, domainErrors.ErrAllocationConflict)
	}
	return nil
}
