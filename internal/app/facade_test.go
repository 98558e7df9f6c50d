package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	pkgAuth "github.com/polkiloo/withdrawals/internal/pkg/auth"
	testhelpers "github.com/polkiloo/withdrawals/internal/test"
	"github.com/polkiloo/withdrawals/internal/usecase"
	"github.com/polkiloo/withdrawals/internal/worker"
)

var (
	facadeAdmin = model.Caller{ID: "admin-1", Role: model.RoleAdmin}
	facadeUser  = model.Caller{ID: "u1", Role: model.RoleUser}
	facadeBank  = model.BankDestination{BankName: "Acme Bank", AccountNumber: "0001", RoutingCode: "R-1"}
)

func newFacade(health error) (*WithdrawalFacade, *testhelpers.MemoryStore) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := testhelpers.NewMemoryStore()
	store.Seed(model.SourceTransaction{ID: "t1", RequesterID: "u1", TotalAmount: 500, UnspentAmount: 500, EarnedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	uc := usecase.NewWithdrawalUseCase(usecase.WithdrawalDeps{
		Withdrawals: store,
		Ledger:      store,
		Transactor:  store,
		Effects:     &testhelpers.EffectsDispatcherStub{},
		Cache:       &testhelpers.DetailCacheStub{},
		Lineage:     worker.NewLineageCollector(&testhelpers.PaymentsDirectoryStub{}, 1, logger),
	}, 100, logger)
	strategy := pkgAuth.NewHMACStrategy("secret")
	return NewWithdrawalFacade(uc, strategy, testhelpers.HealthCheckerStub{Err: health}), store
}

func TestWithdrawalFacadeParseToken(t *testing.T) {
	facade, _ := newFacade(nil)
	token := testhelpers.MintToken("secret", facadeAdmin, time.Now().Add(time.Minute))
	caller, err := facade.ParseToken(token)
	if err != nil || caller != facadeAdmin {
		t.Fatalf("unexpected caller %+v err=%v", caller, err)
	}
	if _, err := facade.ParseToken("garbage"); !errors.Is(err, pkgAuth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestWithdrawalFacadeLifecycle(t *testing.T) {
	facade, store := newFacade(nil)
	ctx := context.Background()

	w, created, err := facade.CreateWithdrawal(ctx, model.WithdrawalRequest{RequesterID: "u1", Amount: 200, BankDestination: facadeBank})
	if err != nil || !created {
		t.Fatalf("create failed: created=%v err=%v", created, err)
	}

	detail, err := facade.Detail(ctx, facadeUser, w.ID)
	if err != nil || len(detail.Allocations) != 1 {
		t.Fatalf("unexpected detail %+v err=%v", detail, err)
	}

	page, err := facade.List(ctx, facadeUser, model.WithdrawalFilter{})
	if err != nil || page.Total != 1 {
		t.Fatalf("unexpected page %+v err=%v", page, err)
	}

	if _, err := facade.Approve(ctx, facadeUser, w.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	approved, err := facade.Approve(ctx, facadeAdmin, w.ID)
	if err != nil || approved.Status != model.WithdrawalStatusApproved {
		t.Fatalf("unexpected approval %+v err=%v", approved, err)
	}
	if _, err := facade.Reject(ctx, facadeAdmin, w.ID, "Changed my mind about it."); !errors.Is(err, domainErrors.ErrAlreadyReviewed) {
		t.Fatalf("expected already reviewed, got %v", err)
	}

	archived, err := facade.Archive(ctx, facadeAdmin, w.ID)
	if err != nil || !archived.IsArchived {
		t.Fatalf("unexpected archive %+v err=%v", archived, err)
	}

	src, _ := store.Source("t1")
	if src.UnspentAmount != 300 {
		t.Fatalf("expected 300 unspent, got %d", src.UnspentAmount)
	}
}

func TestWithdrawalFacadeHealthCheck(t *testing.T) {
	facade, _ := newFacade(nil)
	if err := facade.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	down := errors.New("db down")
	facade, _ = newFacade(down)
	if err := facade.HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected health error, got %v", err)
	}
}
