package test

import (
	"context"
	"sync"
	"time"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	"github.com/polkiloo/withdrawals/internal/domain/workflow"
)

var (
	_ repository.PaymentsDirectory = (*PaymentsDirectoryStub)(nil)
	_ repository.EffectsDispatcher = (*EffectsDispatcherStub)(nil)
	_ repository.DetailCache       = (*DetailCacheStub)(nil)
	_ repository.HealthChecker     = HealthCheckerStub{}
)

// PaymentsDirectoryStub serves lineage from a map and tracks concurrency.
type PaymentsDirectoryStub struct {
	Lineage map[string][]model.PaymentLineageEntry
	Errs    map[string]error
	Delay   time.Duration

	mu          sync.Mutex
	calls       []string
	inFlight    int
	maxInFlight int
}

// GetPaymentLineage returns configured lineage or error for the source.
func (s *PaymentsDirectoryStub) GetPaymentLineage(ctx context.Context, sourceTransactionID string) ([]model.PaymentLineageEntry, error) {
	s.mu.Lock()
	s.calls = append(s.calls, sourceTransactionID)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if err := s.Errs[sourceTransactionID]; err != nil {
		return nil, err
	}
	return s.Lineage[sourceTransactionID], nil
}

// Calls returns the requested source ids in call order.
func (s *PaymentsDirectoryStub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// MaxInFlight reports the highest number of concurrent lookups observed.
func (s *PaymentsDirectoryStub) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

// DispatchedEffect is one recorded Dispatch call.
type DispatchedEffect struct {
	Effect     workflow.Effect
	Withdrawal model.Withdrawal
}

// EffectsDispatcherStub records dispatched effects.
type EffectsDispatcherStub struct {
	Err error

	mu         sync.Mutex
	dispatched []DispatchedEffect
}

// Dispatch records the call and returns Err.
func (s *EffectsDispatcherStub) Dispatch(ctx context.Context, effect workflow.Effect, w model.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, DispatchedEffect{Effect: effect, Withdrawal: w})
	return s.Err
}

// Dispatched returns a copy of the recorded calls.
func (s *EffectsDispatcherStub) Dispatched() []DispatchedEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DispatchedEffect(nil), s.dispatched...)
}

// DetailCacheStub is a map-backed detail cache with injectable failures.
type DetailCacheStub struct {
	GetErr        error
	SetErr        error
	InvalidateErr error

	mu          sync.Mutex
	items       map[string]model.WithdrawalDetail
	sets        int
	invalidated []string
}

func (s *DetailCacheStub) Get(ctx context.Context, id string) (*model.WithdrawalDetail, bool, error) {
	if s.GetErr != nil {
		return nil, false, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}

func (s *DetailCacheStub) Set(ctx context.Context, detail model.WithdrawalDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.SetErr != nil {
		return s.SetErr
	}
	if s.items == nil {
		s.items = make(map[string]model.WithdrawalDetail)
	}
	s.items[detail.Withdrawal.ID] = detail
	return nil
}

func (s *DetailCacheStub) Invalidate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, id)
	if s.InvalidateErr != nil {
		return s.InvalidateErr
	}
	delete(s.items, id)
	return nil
}

// Sets reports the number of Set calls.
func (s *DetailCacheStub) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// Invalidated returns the ids passed to Invalidate.
func (s *DetailCacheStub) Invalidated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invalidated...)
}

// Has reports whether id is cached.
func (s *DetailCacheStub) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

// HealthCheckerStub returns Err from every check.
type HealthCheckerStub struct {
	Err error
}

func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}
