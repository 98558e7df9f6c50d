package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/config"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
	pkgAuth "github.com/polkiloo/withdrawals/internal/pkg/auth"
	testhelpers "github.com/polkiloo/withdrawals/internal/test"
	"github.com/polkiloo/withdrawals/internal/usecase"
	"github.com/polkiloo/withdrawals/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999", ExternalTimeout: 3 * time.Second}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" || server.Handler != router {
		t.Fatalf("unexpected server %+v", server)
	}
	if server.ReadHeaderTimeout != 3*time.Second {
		t.Fatalf("unexpected header timeout %s", server.ReadHeaderTimeout)
	}
}

func TestRegisterLifecycleServesAndStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	recorder := &testhelpers.LifecycleRecorder{}
	engine := gin.New()
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	server := &http.Server{Addr: freeAddr(t), Handler: engine}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: &testhelpers.ShutdownerStub{},
		Logger:     slog.New(slog.NewJSONHandler(&logs, nil)),
		Server:     server,
		Config:     &config.Config{ShutdownTimeout: time.Second, MinWithdrawalAmount: 100},
	})
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var resp *http.Response
	deadline := time.Now().Add(time.Second)
	for {
		var err error
		resp, err = http.Get("http://" + server.Addr + "/healthz")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "starting withdrawals service") || !strings.Contains(out, `"min_withdrawal_amount":100`) {
		t.Fatalf("expected startup log, got %s", out)
	}
	if !strings.Contains(out, "withdrawals service stopped") {
		t.Fatalf("expected stop log, got %s", out)
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     &http.Server{Addr: "bad addr"},
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}
	_ = recorder.Stop(context.Background())
}

func TestModuleProvidesFacadeAndServer(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	logger := discardLogger()

	var (
		facade *WithdrawalFacade
		server *http.Server
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Config{RunAddress: "127.0.0.1:0", ShutdownTimeout: time.Second}),
		fx.Supply(logger),
		fx.Supply(gin.New()),
		fx.Provide(
			func() *usecase.WithdrawalUseCase {
				return usecase.NewWithdrawalUseCase(usecase.WithdrawalDeps{
					Withdrawals: store,
					Ledger:      store,
					Transactor:  store,
					Effects:     &testhelpers.EffectsDispatcherStub{},
					Cache:       &testhelpers.DetailCacheStub{},
					Lineage:     worker.NewLineageCollector(&testhelpers.PaymentsDirectoryStub{}, 1, logger),
				}, 100, logger)
			},
			func() pkgAuth.Strategy { return testhelpers.StrategyStub{} },
			func() repository.HealthChecker { return testhelpers.HealthCheckerStub{} },
		),
		Module,
		fx.Populate(&facade, &server),
	)
	if err := app.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facade == nil || server == nil || server.Addr != "127.0.0.1:0" {
		t.Fatalf("expected facade and server, got %v %+v", facade, server)
	}
}
