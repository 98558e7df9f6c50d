package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is the statement surface shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

type txKey struct{}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool    pgxPool
	replica pgxPool
	logger  *slog.Logger
}

type withdrawalRepository struct {
	storage *Storage
}

type ledgerRepository struct {
	storage *Storage
}

// New connects to the primary database, and to the read replica when
// replicaDSN is set, then makes sure the schema exists on the primary.
func New(ctx context.Context, dsn, replicaDSN string, logger *slog.Logger) (*Storage, error) {
	pool, err := connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if replicaDSN != "" {
		replica, err := connect(ctx, replicaDSN)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("replica: %w", err)
		}
		storage.replica = replica
		logger.Info("read replica configured")
	}

	return storage, nil
}

func connect(ctx context.Context, dsn string) (pgxPool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return pool, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.replica != nil {
		s.replica.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Withdrawals returns the withdrawal repository.
func (s *Storage) Withdrawals() repository.WithdrawalRepository {
	return &withdrawalRepository{storage: s}
}

// Ledger returns the points ledger backed by the point_transactions table.
func (s *Storage) Ledger() repository.PointsLedger {
	return &ledgerRepository{storage: s}
}

func (s *Storage) Transactor() repository.Transactor {
	return s
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS point_transactions (
            id TEXT PRIMARY KEY,
            requester_id TEXT NOT NULL,
            total_amount BIGINT NOT NULL CHECK (total_amount > 0),
            unspent_amount BIGINT NOT NULL CHECK (unspent_amount >= 0 AND unspent_amount <= total_amount),
            earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
            id TEXT PRIMARY KEY,
            requester_id TEXT NOT NULL,
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL,
            bank_name TEXT NOT NULL,
            account_number TEXT NOT NULL,
            routing_code TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            reviewed_at TIMESTAMPTZ,
            reviewer_id TEXT,
            rejection_reason TEXT,
            is_archived BOOLEAN NOT NULL DEFAULT FALSE,
            idempotency_key TEXT,
            metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
            CONSTRAINT withdrawals_rejection_reason_present CHECK (status <> 'REJECTED' OR rejection_reason IS NOT NULL)
        )`,
		`CREATE TABLE IF NOT EXISTS withdrawal_allocations (
            id TEXT PRIMARY KEY,
            withdrawal_id TEXT NOT NULL REFERENCES withdrawals(id) ON DELETE CASCADE,
            source_transaction_id TEXT NOT NULL REFERENCES point_transactions(id),
            position INT NOT NULL,
            amount_used BIGINT NOT NULL CHECK (amount_used > 0),
            source_points_total BIGINT NOT NULL,
            metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
            UNIQUE (withdrawal_id, source_transaction_id)
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + idempotencyIndex + ` ON withdrawals(requester_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_point_transactions_eligible ON point_transactions(requester_id, earned_at, id) WHERE unspent_amount > 0`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_requester ON withdrawals(requester_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// WithinTransaction runs fn inside a transaction carried by the context passed
// to it. Nested calls join the outer transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Warn("transaction rollback failed", slog.Any("error", rbErr))
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}

// conn returns the transaction bound to ctx or the primary pool.
func (s *Storage) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// reader prefers the replica outside of transactions.
func (s *Storage) reader(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	if s.replica != nil {
		return s.replica
	}
	return s.pool
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return err
	}
	if s.replica != nil {
		return s.replica.Ping(ctx)
	}
	return nil
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
