package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backend selectors.
const (
	BackendMemory     = "memory"
	BackendClickHouse = "clickhouse"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Store backend: "memory" (load CSVs wholesale) or "clickhouse"
	// (partitioned columnar store built by cmd/preprocess).
	StoreBackend string

	// Memory backend inputs
	SpotCSVPath   string
	FOCSVPath     string
	DefaultTicker string

	// ClickHouse backend
	ClickHouseDSN string

	// Optional Redis as-of cache (empty addr disables it)
	RedisAddr     string
	RedisPassword string
	RedisCacheTTL time.Duration

	// Trade journal (empty path disables persistence)
	JournalPath string

	// Servers
	GatewayAddr string
	MetricsAddr string

	// Default cursor step
	DefaultStep time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),

		SpotCSVPath:   getEnv("SPOT_CSV_PATH", ""),
		FOCSVPath:     getEnv("FO_CSV_PATH", ""),
		DefaultTicker: getEnv("DEFAULT_TICKER", "NIFTY"),

		ClickHouseDSN: getEnv("CLICKHOUSE_DSN", "clickhouse://localhost:9000/fo_replay"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisCacheTTL: getDuration("REDIS_CACHE_TTL", 24*time.Hour),

		JournalPath: getEnv("JOURNAL_PATH", "data/trades.db"),

		GatewayAddr: getEnv("GATEWAY_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		DefaultStep: getDuration("DEFAULT_STEP", 5*time.Minute),
	}
}

// Validate checks that the selected backend has the inputs it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
		if c.SpotCSVPath == "" || c.FOCSVPath == "" {
			return fmt.Errorf("memory backend requires SPOT_CSV_PATH and FO_CSV_PATH")
		}
	case BackendClickHouse:
		if c.ClickHouseDSN == "" {
			return fmt.Errorf("clickhouse backend requires CLICKHOUSE_DSN")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.DefaultStep <= 0 {
		return fmt.Errorf("DEFAULT_STEP must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// getDuration parses a duration env var, accepting either a Go duration
// string ("5m") or a plain number of seconds ("300").
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
