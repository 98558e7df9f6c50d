package router

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/pkg/auth"
	"github.com/polkiloo/withdrawals/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/withdrawals/internal/test"
)

func newEngine(facade handlers.Facade) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return Setup(facade, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	var approvedBy model.Caller
	facade := testhelpers.WithdrawalFacadeStub{
		TokenParserStub: testhelpers.TokenParserStub{Caller: model.Caller{ID: "admin-1", Role: model.RoleAdmin}},
		ApproveFn: func(ctx context.Context, caller model.Caller, id string) (*model.Withdrawal, error) {
			approvedBy = caller
			w := testhelpers.SampleWithdrawal(id, "u1")
			w.Status = model.WithdrawalStatusApproved
			return &w, nil
		},
	}
	engine := newEngine(facade)

	tests := []struct {
		method string
		path   string
		body   []byte
		status int
	}{
		{http.MethodGet, "/healthz", nil, http.StatusOK},
		{http.MethodPost, "/withdrawals", []byte(`{"amount":450,"bankDestination":{"bankName":"b","accountNumber":"a","routingCode":"r"}}`), http.StatusCreated},
		{http.MethodGet, "/withdrawals", nil, http.StatusOK},
		{http.MethodGet, "/withdrawals/w1", nil, http.StatusOK},
		{http.MethodPost, "/withdrawals/w1/approve", nil, http.StatusOK},
		{http.MethodPost, "/withdrawals/w1/reject", []byte(`{"rejectionReason":"Bank account mismatch found."}`), http.StatusOK},
		{http.MethodPost, "/withdrawals/w1/archive", nil, http.StatusOK},
	}
	for _, tt := range tests {
		var reader io.Reader
		if tt.body != nil {
			reader = bytes.NewReader(tt.body)
		}
		req := httptest.NewRequest(tt.method, tt.path, reader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer token")
		resp := serve(engine, req)
		if resp.Code != tt.status {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.status, resp.Code, resp.Body.String())
		}
		if resp.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: expected request id header", tt.method, tt.path)
		}
	}
	if approvedBy.ID != "admin-1" {
		t.Fatalf("expected caller from token, got %+v", approvedBy)
	}
}

func TestRoutesRequireAuthentication(t *testing.T) {
	engine := newEngine(testhelpers.WithdrawalFacadeStub{
		TokenParserStub: testhelpers.TokenParserStub{Err: auth.ErrInvalidToken},
	})

	resp := serve(engine, httptest.NewRequest(http.MethodGet, "/withdrawals", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/withdrawals", nil)
	req.Header.Set("Authorization", "Bearer forged")
	if resp := serve(engine, req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}

	if resp := serve(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil)); resp.Code != http.StatusOK {
		t.Fatalf("health must not require auth, got %d", resp.Code)
	}
}

func TestRouterAcceptsGzipBodies(t *testing.T) {
	var got model.WithdrawalRequest
	engine := newEngine(testhelpers.WithdrawalFacadeStub{
		CreateFn: func(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, bool, error) {
			got = req
			w := testhelpers.SampleWithdrawal("w1", req.RequesterID)
			return &w, true, nil
		},
	})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_ = json.NewEncoder(zw).Encode(map[string]any{
		"amount":          300,
		"bankDestination": map[string]string{"bankName": "b", "accountNumber": "a", "routingCode": "r"},
	})
	_ = zw.Close()

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Authorization", "Bearer token")
	resp := serve(engine, req)
	if resp.Code != http.StatusCreated || got.Amount != 300 {
		t.Fatalf("expected decompressed create, got %d amount=%d", resp.Code, got.Amount)
	}
}

func TestHealthUnavailable(t *testing.T) {
	engine := newEngine(testhelpers.WithdrawalFacadeStub{HealthErr: errors.New("db down")})
	if resp := serve(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil)); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestModuleProvidesEngine(t *testing.T) {
	var engine *gin.Engine
	app := fx.New(
		fx.NopLogger,
		fx.Supply(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		fx.Provide(func() handlers.Facade { return testhelpers.WithdrawalFacadeStub{} }),
		Module,
		fx.Populate(&engine),
	)
	if err := app.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine == nil {
		t.Fatal("expected engine")
	}
}
