package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

const idempotencyIndex = "idx_withdrawals_idempotency"

const withdrawalColumns = `id, requester_id, amount, status, bank_name, account_number, routing_code,
                   created_at, reviewed_at, reviewer_id, rejection_reason, is_archived, idempotency_key, metadata`

func (r *withdrawalRepository) Create(ctx context.Context, w *model.Withdrawal) error {
	meta, err := encodeMetadata(w.Metadata)
	if err != nil {
		return err
	}

	return r.storage.WithinTransaction(ctx, func(ctx context.Context) error {
		q := r.storage.conn(ctx)

		const insertWithdrawal = `INSERT INTO withdrawals (id, requester_id, amount, status, bank_name, account_number,
                                  routing_code, created_at, idempotency_key, metadata)
                                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		_, err := q.Exec(ctx, insertWithdrawal,
			w.ID, w.RequesterID, w.Amount, string(w.Status),
			w.BankDestination.BankName, w.BankDestination.AccountNumber, w.BankDestination.RoutingCode,
			w.CreatedAt, w.IdempotencyKey, meta,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == idempotencyIndex {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}

		const insertAllocation = `INSERT INTO withdrawal_allocations (id, withdrawal_id, source_transaction_id, position,
                                  amount_used, source_points_total, metadata)
                                  VALUES ($1, $2, $3, $4, $5, $6, $7)`
		for i, a := range w.Allocations {
			allocMeta, err := encodeMetadata(a.Metadata)
			if err != nil {
				return err
			}
			if _, err := q.Exec(ctx, insertAllocation, a.ID, w.ID, a.SourceTransactionID, i, a.AmountUsed, a.SourcePointsTotal, allocMeta); err != nil {
				return fmt.Errorf("insert allocation %s: %w", a.SourceTransactionID, err)
			}
		}
		return nil
	})
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id=$1`
	return r.getOne(ctx, query, id)
}

func (r *withdrawalRepository) GetByIdempotencyKey(ctx context.Context, requesterID, key string) (*model.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE requester_id=$1 AND idempotency_key=$2`
	return r.getOne(ctx, query, requesterID, key)
}

func (r *withdrawalRepository) getOne(ctx context.Context, query string, args ...any) (*model.Withdrawal, error) {
	q := r.storage.conn(ctx)
	w, err := scanWithdrawal(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if w.Allocations, err = r.allocations(ctx, q, w.ID); err != nil {
		return nil, err
	}
	return w, nil
}

// ApplyReview moves a pending withdrawal to t.To. When another reviewer got
// there first the current row is returned with applied=false.
func (r *withdrawalRepository) ApplyReview(ctx context.Context, t workflow.Transition) (*model.Withdrawal, bool, error) {
	query := `UPDATE withdrawals
              SET status=$2, reviewer_id=$3, reviewed_at=$4, rejection_reason=$5
              WHERE id=$1 AND status IN ('PENDING', 'PENDING_SIGNATURE') AND (NOT $6 OR NOT is_archived)
              RETURNING ` + withdrawalColumns
	q := r.storage.conn(ctx)
	w, err := scanWithdrawal(q.QueryRow(ctx, query, t.WithdrawalID, string(t.To), t.ReviewerID, t.ReviewedAt, t.RejectionReason, t.RequireActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			current, err := r.GetByID(ctx, t.WithdrawalID)
			if err != nil {
				return nil, false, err
			}
			return current, false, nil
		}
		return nil, false, err
	}
	if w.Allocations, err = r.allocations(ctx, q, w.ID); err != nil {
		return nil, false, err
	}
	return w, true, nil
}

func (r *withdrawalRepository) Archive(ctx context.Context, id string) (*model.Withdrawal, error) {
	query := `UPDATE withdrawals SET is_archived=TRUE WHERE id=$1 RETURNING ` + withdrawalColumns
	q := r.storage.conn(ctx)
	w, err := scanWithdrawal(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if w.Allocations, err = r.allocations(ctx, q, w.ID); err != nil {
		return nil, err
	}
	return w, nil
}

// List pages through withdrawals oldest first. Allocations are not loaded.
func (r *withdrawalRepository) List(ctx context.Context, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error) {
	page := filter.Pagination.Normalize()
	where, args := buildWithdrawalFilter(filter)
	q := r.storage.reader(ctx)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals`+where, args...).Scan(&total); err != nil {
		return model.Page[model.Withdrawal]{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM withdrawals%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		withdrawalColumns, where, len(args)+1, len(args)+2)
	rows, err := q.Query(ctx, query, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return model.Page[model.Withdrawal]{}, err
	}
	defer rows.Close()

	items := make([]model.Withdrawal, 0, page.PageSize)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return model.Page[model.Withdrawal]{}, err
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Withdrawal]{}, err
	}

	return model.Page[model.Withdrawal]{Items: items, Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

func buildWithdrawalFilter(filter model.WithdrawalFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.RequesterID != nil {
		add("requester_id=$%d", *filter.RequesterID)
	}
	if filter.Status != nil {
		add("status=$%d", string(*filter.Status))
	}
	if filter.Archived != nil {
		add("is_archived=$%d", *filter.Archived)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *withdrawalRepository) allocations(ctx context.Context, q querier, withdrawalID string) ([]model.WithdrawalAllocation, error) {
	const query = `SELECT id, withdrawal_id, source_transaction_id, amount_used, source_points_total, metadata
                   FROM withdrawal_allocations WHERE withdrawal_id=$1 ORDER BY position`
	rows, err := q.Query(ctx, query, withdrawalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.WithdrawalAllocation
	for rows.Next() {
		var (
			a    model.WithdrawalAllocation
			meta []byte
		)
		if err := rows.Scan(&a.ID, &a.WithdrawalID, &a.SourceTransactionID, &a.AmountUsed, &a.SourcePointsTotal, &meta); err != nil {
			return nil, err
		}
		if a.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanWithdrawal(row pgx.Row) (*model.Withdrawal, error) {
	var (
		w          model.Withdrawal
		status     string
		reviewedAt *time.Time
		meta       []byte
	)
	err := row.Scan(
		&w.ID, &w.RequesterID, &w.Amount, &status,
		&w.BankDestination.BankName, &w.BankDestination.AccountNumber, &w.BankDestination.RoutingCode,
		&w.CreatedAt, &reviewedAt, &w.ReviewerID, &w.RejectionReason, &w.IsArchived, &w.IdempotencyKey, &meta,
	)
	if err != nil {
		return nil, err
	}
	w.Status = model.WithdrawalStatus(status)
	w.ReviewedAt = reviewedAt
	if w.Metadata, err = decodeMetadata(meta); err != nil {
		return nil, err
	}
	return &w, nil
}

func encodeMetadata(m model.Metadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

// decodeMetadata keeps an empty object distinct from absent metadata.
func decodeMetadata(data []byte) (model.Metadata, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m model.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
