package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress               string
	DatabaseURI              string
	DatabaseReplicaURI       string
	PaymentsDirectoryAddress string
	AMQPURL                  string
	EffectsExchange          string
	RedisURL                 string
	DetailCacheTTL           time.Duration
	AuthSecret               string
	MinWithdrawalAmount      int64
	LineageWorkers           int
	ExternalTimeout          time.Duration
	ShutdownTimeout          time.Duration
	LogLevel                 string
}

const (
	defaultRunAddress          = ":8080"
	defaultEffectsExchange     = "withdrawal_events"
	defaultDetailCacheTTL      = 30 * time.Second
	defaultMinWithdrawalAmount = 100
	defaultLineageWorkers      = 4
	defaultExternalTimeout     = 5 * time.Second
	defaultShutdownTimeout     = 10 * time.Second
	defaultLogLevel            = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:               getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:              getString(lookup, "DATABASE_URI", ""),
		DatabaseReplicaURI:       getString(lookup, "DATABASE_REPLICA_URI", ""),
		PaymentsDirectoryAddress: getString(lookup, "PAYMENTS_DIRECTORY_ADDRESS", ""),
		AMQPURL:                  getString(lookup, "AMQP_URL", ""),
		EffectsExchange:          getString(lookup, "EFFECTS_EXCHANGE", defaultEffectsExchange),
		RedisURL:                 getString(lookup, "REDIS_URL", ""),
		DetailCacheTTL:           getDuration(lookup, "DETAIL_CACHE_TTL", defaultDetailCacheTTL),
		AuthSecret:               getString(lookup, "AUTH_SECRET", ""),
		MinWithdrawalAmount:      getInt64(lookup, "MIN_WITHDRAWAL_AMOUNT", defaultMinWithdrawalAmount),
		LineageWorkers:           getInt(lookup, "LINEAGE_WORKERS", defaultLineageWorkers),
		ExternalTimeout:          getDuration(lookup, "EXTERNAL_TIMEOUT", defaultExternalTimeout),
		ShutdownTimeout:          getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		LogLevel:                 getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("withdrawals", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		externalTimeoutStr = cfg.ExternalTimeout.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		cacheTTLStr        = cfg.DetailCacheTTL.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.DatabaseReplicaURI, "replica", cfg.DatabaseReplicaURI, "PostgreSQL read replica DSN")
	fs.StringVar(&cfg.PaymentsDirectoryAddress, "p", cfg.PaymentsDirectoryAddress, "Payments directory base URL")
	fs.StringVar(&cfg.AMQPURL, "amqp", cfg.AMQPURL, "AMQP broker URL for review effects")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for the detail cache")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for verifying auth tokens")
	fs.Int64Var(&cfg.MinWithdrawalAmount, "min-amount", cfg.MinWithdrawalAmount, "Minimum withdrawal amount in points")
	fs.IntVar(&cfg.LineageWorkers, "lineage-workers", cfg.LineageWorkers, "Concurrent payment lineage lookups")
	fs.StringVar(&externalTimeoutStr, "external-timeout", externalTimeoutStr, "Timeout for calls to external services")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&cacheTTLStr, "cache-ttl", cacheTTLStr, "Detail cache entry lifetime")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ExternalTimeout, err = time.ParseDuration(externalTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid external timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.DetailCacheTTL, err = time.ParseDuration(cacheTTLStr); err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = strings.TrimSpace(string(content))
	}

	if cfg.LineageWorkers <= 0 {
		cfg.LineageWorkers = defaultLineageWorkers
	}

	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = defaultExternalTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DetailCacheTTL <= 0 {
		cfg.DetailCacheTTL = defaultDetailCacheTTL
	}

	if cfg.MinWithdrawalAmount <= 0 {
		cfg.MinWithdrawalAmount = defaultMinWithdrawalAmount
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("auth secret must be provided")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.PaymentsDirectoryAddress == "" {
		return nil, fmt.Errorf("payments directory address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64(lookup envLookup, key string, def int64) int64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
