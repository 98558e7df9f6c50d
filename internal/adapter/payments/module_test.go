package payments

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/polkiloo/withdrawals/internal/config"
)

func TestNewClientUsesConfig(t *testing.T) {
	cfg := &config.Config{PaymentsDirectoryAddress: "http://example.com", ExternalTimeout: 2 * time.Second}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client, err := newClient(clientParams{Config: cfg, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	httpClient, ok := client.(*HTTPClient)
	if !ok {
		t.Fatalf("unexpected client type %T", client)
	}
	if httpClient.httpClient.Timeout != 2*time.Second {
		t.Fatalf("expected configured timeout, got %v", httpClient.httpClient.Timeout)
	}
}

func TestNewClientRejectsBadAddress(t *testing.T) {
	cfg := &config.Config{PaymentsDirectoryAddress: "relative/path"}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if _, err := newClient(clientParams{Config: cfg, Logger: logger}); err == nil {
		t.Fatal("expected error for relative url")
	}
}
