// replayserver wires the replay core together: a shared read-only
// market store (in-memory or ClickHouse, optionally Redis-cached), the
// lot-size resolver, the trade journal and the HTTP/WebSocket gateway.
package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optionsimv1/config"
	"optionsimv1/internal/gateway"
	"optionsimv1/internal/ingest"
	"optionsimv1/internal/ledger"
	"optionsimv1/internal/logger"
	"optionsimv1/internal/lotsize"
	"optionsimv1/internal/metrics"
	"optionsimv1/internal/model"
	chstore "optionsimv1/internal/store/clickhouse"
	"optionsimv1/internal/store/instrument"
	memstore "optionsimv1/internal/store/memory"
	"optionsimv1/internal/store/rediscache"

	goredis "github.com/go-redis/redis/v8"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("replayserver", slog.LevelInfo)
	log.Println("[replayserver] starting...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[replayserver] config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus(cfg.StoreBackend)

	store, rdb, err := buildStore(cfg, m)
	if err != nil {
		log.Fatalf("[replayserver] store: %v", err)
	}
	defer store.Close()
	health.SetStoreOK(true)

	resolver, err := lotsize.New()
	if err != nil {
		log.Fatalf("[replayserver] lot resolver: %v", err)
	}

	var journal model.TradeJournal
	var journalDB *sql.DB
	if cfg.JournalPath != "" {
		j, err := ledger.NewJournal(cfg.JournalPath)
		if err != nil {
			log.Fatalf("[replayserver] journal: %v", err)
		}
		defer j.Close()
		journal = j
		journalDB = j.DB()
	}

	health.StartLivenessChecker(ctx, rdb, journalDB, 30*time.Second)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	reg := gateway.NewRegistry(instrument.Wrap(store, m, cfg.StoreBackend), resolver, journal, m, health)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, reg, ctx)

	srv := &http.Server{Addr: cfg.GatewayAddr, Handler: mux}
	go func() {
		log.Printf("[replayserver] gateway listening on %s (backend=%s)", cfg.GatewayAddr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[replayserver] gateway: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("[replayserver] shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	cancel()
}

// buildStore constructs the configured MarketStore. The returned Redis
// client is nil unless the as-of cache is enabled.
func buildStore(cfg *config.Config, m *metrics.Metrics) (model.MarketStore, *goredis.Client, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		spotFile, err := os.Open(cfg.SpotCSVPath)
		if err != nil {
			return nil, nil, err
		}
		defer spotFile.Close()
		spots, err := ingest.LoadSpot(spotFile, cfg.DefaultTicker)
		if err != nil {
			return nil, nil, err
		}

		foFile, err := os.Open(cfg.FOCSVPath)
		if err != nil {
			return nil, nil, err
		}
		defer foFile.Close()
		derivatives, err := ingest.LoadFO(foFile)
		if err != nil {
			return nil, nil, err
		}

		log.Printf("[replayserver] loaded %d spot bars, %d fo records into memory",
			len(spots), len(derivatives))
		return memstore.New(spots, derivatives), nil, nil

	case config.BackendClickHouse:
		ch, err := chstore.New(cfg.ClickHouseDSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.RedisAddr == "" {
			return ch, nil, nil
		}
		cache, err := rediscache.New(rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			TTL:      cfg.RedisCacheTTL,
			Metrics:  m,
		}, ch)
		if err != nil {
			// The cache is an optimization; run uncached rather than
			// failing the whole server.
			log.Printf("[replayserver] as-of cache disabled: %v", err)
			return ch, nil, nil
		}
		return cache, cache.Client(), nil
	}
	return nil, nil, nil // unreachable, Validate rejects other values
}
