package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the replay core.
type Metrics struct {
	AsOfQueriesTotal *prometheus.CounterVec // labels: backend, kind
	NoDataTotal      *prometheus.CounterVec // labels: kind
	AsOfQueryDur     prometheus.Histogram

	SessionsActive prometheus.Gauge
	CursorSteps    prometheus.Counter
	TradesPlaced   prometheus.Counter
	TradesRejected prometheus.Counter

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		AsOfQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_asof_queries_total",
			Help: "As-of store queries (by backend and record kind)",
		}, []string{"backend", "kind"}),
		NoDataTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_asof_nodata_total",
			Help: "As-of queries that found no qualifying record",
		}, []string{"kind"}),
		AsOfQueryDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "replay_asof_query_duration_seconds",
			Help:    "As-of query latency",
			Buckets: prometheus.DefBuckets,
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replay_sessions_active",
			Help: "Currently open replay sessions",
		}),
		CursorSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_cursor_steps_total",
			Help: "Cursor step/jump operations across all sessions",
		}),
		TradesPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_trades_placed_total",
			Help: "Paper trades appended to ledgers",
		}),
		TradesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_trades_rejected_total",
			Help: "Trade placements rejected (no price or invalid input)",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_asof_cache_hits_total",
			Help: "As-of results served from the Redis cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_asof_cache_misses_total",
			Help: "As-of results that fell through to the backend",
		}),
	}

	prometheus.MustRegister(
		m.AsOfQueriesTotal,
		m.NoDataTotal,
		m.AsOfQueryDur,
		m.SessionsActive,
		m.CursorSteps,
		m.TradesPlaced,
		m.TradesRejected,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}

// HealthStatus represents the replay server's health.
type HealthStatus struct {
	mu sync.RWMutex

	StoreBackend   string `json:"store_backend"` // "memory" or "clickhouse"
	StoreOK        bool   `json:"store_ok"`
	RedisConnected bool   `json:"redis_connected"`
	JournalOK      bool   `json:"journal_ok"`
	Sessions       int    `json:"sessions"`

	// Liveness probe results
	RedisLatencyMs   float64   `json:"redis_latency_ms"`
	JournalLatencyMs float64   `json:"journal_latency_ms"`
	LastCheckAt      time.Time `json:"last_check_at"`
	StartedAt        time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(backend string) *HealthStatus {
	return &HealthStatus{
		StoreBackend: backend,
		StartedAt:    time.Now(),
	}
}

func (h *HealthStatus) SetStoreOK(v bool) {
	h.mu.Lock()
	h.StoreOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSessions(n int) {
	h.mu.Lock()
	h.Sessions = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckJournal runs a trivial probe against the journal database and
// records latency + health.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.JournalOK = err == nil
	h.JournalLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, journalDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if journalDB != nil {
					h.CheckJournal(probeCtx, journalDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.StoreOK {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		StoreBackend     string  `json:"store_backend"`
		StoreOK          bool    `json:"store_ok"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		JournalOK        bool    `json:"journal_ok"`
		JournalLatencyMs float64 `json:"journal_latency_ms"`
		Sessions         int     `json:"sessions"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overallStatus,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		StoreBackend:     h.StoreBackend,
		StoreOK:          h.StoreOK,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		JournalOK:        h.JournalOK,
		JournalLatencyMs: h.JournalLatencyMs,
		Sessions:         h.Sessions,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
