package test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

type memTxKey struct{}

type memTx struct {
	undo []func()
}

// MemoryStore is an in-memory withdrawal repository, points ledger and
// transactor. Writes made inside WithinTransaction are undone when the
// callback fails, so atomicity can be asserted without a database.
type MemoryStore struct {
	// ReserveHook runs before every reserve; a non-nil result aborts it.
	ReserveHook     func(ctx context.Context, sourceID string, amount int64) error
	ListEligibleErr error
	CreateErr       error
	GetErr          error
	ApplyErr        error
	ArchiveErr      error
	ListErr         error
	CommitErr       error

	mu          sync.Mutex
	sources     map[string]*model.SourceTransaction
	withdrawals map[string]*model.Withdrawal
	eligible    int
	committed   int
	rolledBack  int
}

var (
	_ repository.WithdrawalRepository = (*MemoryStore)(nil)
	_ repository.PointsLedger         = (*MemoryStore)(nil)
	_ repository.Transactor           = (*MemoryStore)(nil)
	_ repository.Factory              = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:     make(map[string]*model.SourceTransaction),
		withdrawals: make(map[string]*model.Withdrawal),
	}
}

func (s *MemoryStore) Withdrawals() repository.WithdrawalRepository { return s }
func (s *MemoryStore) Ledger() repository.PointsLedger               { return s }
func (s *MemoryStore) Transactor() repository.Transactor             { return s }

// Seed adds or replaces source transactions.
func (s *MemoryStore) Seed(sources ...model.SourceTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range sources {
		src := src
		s.sources[src.ID] = &src
	}
}

// Put stores a withdrawal as if it had been committed earlier.
func (s *MemoryStore) Put(w model.Withdrawal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[w.ID] = cloneWithdrawal(&w)
}

// Source returns the current state of a source transaction.
func (s *MemoryStore) Source(id string) (model.SourceTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return model.SourceTransaction{}, false
	}
	return *src, true
}

// Snapshot returns every stored withdrawal ordered by creation time.
func (s *MemoryStore) Snapshot() []model.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Withdrawal, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		out = append(out, *cloneWithdrawal(w))
	}
	sortWithdrawals(out)
	return out
}

// EligibleCalls reports how often the eligible pool was queried.
func (s *MemoryStore) EligibleCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eligible
}

// Committed reports the number of committed transactions.
func (s *MemoryStore) Committed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// RolledBack reports the number of rolled back transactions.
func (s *MemoryStore) RolledBack() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolledBack
}

// WithinTransaction joins an enclosing transaction or starts a new one.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{}
	err := fn(context.WithValue(ctx, memTxKey{}, tx))
	if err == nil && s.CommitErr != nil {
		err = s.CommitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.rolledBack++
		return err
	}
	s.committed++
	return nil
}

// record must be called with s.mu held.
func (s *MemoryStore) record(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memTxKey{}).(*memTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (s *MemoryStore) ListEligibleSourceTransactions(ctx context.Context, requesterID string) ([]model.SourceTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eligible++
	if s.ListEligibleErr != nil {
		return nil, s.ListEligibleErr
	}

	out := make([]model.SourceTransaction, 0)
	for _, src := range s.sources {
		if src.RequesterID == requesterID && src.UnspentAmount > 0 {
			out = append(out, *src)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ReserveUnspentAmount(ctx context.Context, sourceTransactionID string, amount int64) error {
	if s.ReserveHook != nil {
		if err := s.ReserveHook(ctx, sourceTransactionID, amount); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[sourceTransactionID]
	if !ok || src.UnspentAmount < amount {
		return fmt.Errorf("reserve %d from %s: %w", amount, sourceTransactionID, domainErrors.ErrAllocationConflict)
	}
	src.UnspentAmount -= amount
	s.record(ctx, func() { src.UnspentAmount += amount })
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, w *model.Withdrawal) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.withdrawals[w.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	if w.IdempotencyKey != nil {
		for _, other := range s.withdrawals {
			if other.RequesterID == w.RequesterID && other.IdempotencyKey != nil && *other.IdempotencyKey == *w.IdempotencyKey {
				return domainErrors.ErrAlreadyExists
			}
		}
	}

	s.withdrawals[w.ID] = cloneWithdrawal(w)
	id := w.ID
	s.record(ctx, func() { delete(s.withdrawals, id) })
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneWithdrawal(w), nil
}

func (s *MemoryStore) GetByIdempotencyKey(ctx context.Context, requesterID, key string) (*model.Withdrawal, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.withdrawals {
		if w.RequesterID == requesterID && w.IdempotencyKey != nil && *w.IdempotencyKey == key {
			return cloneWithdrawal(w), nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *MemoryStore) ApplyReview(ctx context.Context, t workflow.Transition) (*model.Withdrawal, bool, error) {
	if s.ApplyErr != nil {
		return nil, false, s.ApplyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[t.WithdrawalID]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	if !w.Status.IsPending() || (t.RequireActive && w.IsArchived) {
		return cloneWithdrawal(w), false, nil
	}

	previous := cloneWithdrawal(w)
	updated := workflow.Apply(*w, t)
	s.withdrawals[w.ID] = &updated
	s.record(ctx, func() { s.withdrawals[previous.ID] = previous })
	return cloneWithdrawal(&updated), true, nil
}

func (s *MemoryStore) Archive(ctx context.Context, id string) (*model.Withdrawal, error) {
	if s.ArchiveErr != nil {
		return nil, s.ArchiveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	wasArchived := w.IsArchived
	w.IsArchived = true
	s.record(ctx, func() { w.IsArchived = wasArchived })
	return cloneWithdrawal(w), nil
}

func (s *MemoryStore) List(ctx context.Context, filter model.WithdrawalFilter) (model.Page[model.Withdrawal], error) {
	if s.ListErr != nil {
		return model.Page[model.Withdrawal]{}, s.ListErr
	}
	s.mu.Lock()
	matched := make([]model.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if filter.RequesterID != nil && w.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != nil && w.Status != *filter.Status {
			continue
		}
		if filter.Archived != nil && w.IsArchived != *filter.Archived {
			continue
		}
		item := *cloneWithdrawal(w)
		item.Allocations = nil
		matched = append(matched, item)
	}
	s.mu.Unlock()
	sortWithdrawals(matched)

	p := filter.Pagination.Normalize()
	page := model.Page[model.Withdrawal]{Page: p.Page, PageSize: p.PageSize, Total: int64(len(matched)), Items: []model.Withdrawal{}}
	start := p.Offset()
	if start >= len(matched) {
		return page, nil
	}
	end := min(start+p.PageSize, len(matched))
	page.Items = matched[start:end]
	return page, nil
}

func cloneWithdrawal(w *model.Withdrawal) *model.Withdrawal {
	c := *w
	if w.Allocations != nil {
		c.Allocations = append([]model.WithdrawalAllocation(nil), w.Allocations...)
	}
	return &c
}

func sortWithdrawals(ws []model.Withdrawal) {
	sort.Slice(ws, func(i, j int) bool {
		if !ws[i].CreatedAt.Equal(ws[j].CreatedAt) {
			return ws[i].CreatedAt.Before(ws[j].CreatedAt)
		}
		return ws[i].ID < ws[j].ID
	})
}
