package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	domainErrors "github.com/polkiloo/withdrawals/internal/domain/errors"
	"github.com/polkiloo/withdrawals/internal/domain/model"
	"github.com/polkiloo/withdrawals/internal/domain/repository"
)

const (
	breakerName             = "payments-directory"
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// TooManyRequestsError represents rate limiting signal from the payments directory.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

func (e TooManyRequestsError) Unwrap() error { return domainErrors.ErrUnavailable }

// HTTPClient reads payment lineage from the payments directory HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

var _ repository.PaymentsDirectory = (*HTTPClient)(nil)

// lineageEntry mirrors one JSON element returned by the directory.
type lineageEntry struct {
	PaymentID     string  `json:"paymentId"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        int64   `json:"amount"`
	OperationCode *string `json:"operationCode,omitempty"`
	TicketNumber  *string `json:"ticketNumber,omitempty"`
}

// NewHTTPClient creates the directory client. Timeout bounds each request.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payments directory url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payments directory url must be absolute")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    breakerName,
		Timeout: breakerOpenTimeout,
		// A lookup the caller abandoned says nothing about the directory's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// GetPaymentLineage returns the payments that funded a source point
// transaction. An unknown transaction has no lineage.
func (c *HTTPClient) GetPaymentLineage(ctx context.Context, sourceTransactionID string) ([]model.PaymentLineageEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lineage lookup %s: %w", sourceTransactionID, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		entries, err := c.fetch(ctx, sourceTransactionID)
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("lineage lookup %s: %w", sourceTransactionID, ctx.Err())
		}
		return entries, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnavailable, err)
		}
		return nil, err
	}
	return result.([]model.PaymentLineageEntry), nil
}

func (c *HTTPClient) fetch(ctx context.Context, sourceTransactionID string) ([]model.PaymentLineageEntry, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/point-transactions/", url.PathEscape(sourceTransactionID), "payments")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data []lineageEntry
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("decode lineage: %w", err)
		}
		entries := make([]model.PaymentLineageEntry, 0, len(data))
		for _, e := range data {
			entries = append(entries, model.PaymentLineageEntry{
				PaymentID:     e.PaymentID,
				PaymentMethod: model.PaymentMethod(e.PaymentMethod),
				Amount:        e.Amount,
				OperationCode: e.OperationCode,
				TicketNumber:  e.TicketNumber,
			})
		}
		return entries, nil
	case http.StatusNoContent, http.StatusNotFound:
		return []model.PaymentLineageEntry{}, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("payments directory request failed",
			slog.String("source_transaction_id", sourceTransactionID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("%w: payments directory: %s", domainErrors.ErrUnavailable, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
