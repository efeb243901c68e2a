// Package instrument wraps a MarketStore with Prometheus counters and
// latency observation. It changes no query semantics.
package instrument

import (
	"context"
	"errors"
	"time"

	"optionsimv1/internal/metrics"
	"optionsimv1/internal/model"
)

// Store decorates a backend with metrics. backendName labels the
// counters ("memory", "clickhouse", "clickhouse+cache").
type Store struct {
	backend model.MarketStore
	m       *metrics.Metrics
	name    string
}

// Wrap decorates backend. A nil Metrics returns the backend unchanged.
func Wrap(backend model.MarketStore, m *metrics.Metrics, backendName string) model.MarketStore {
	if m == nil {
		return backend
	}
	return &Store{backend: backend, m: m, name: backendName}
}

func (s *Store) observe(kind string, start time.Time, err error) {
	s.m.AsOfQueriesTotal.WithLabelValues(s.name, kind).Inc()
	s.m.AsOfQueryDur.Observe(time.Since(start).Seconds())
	if errors.Is(err, model.ErrNoData) {
		s.m.NoDataTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Store) AsOfSpot(ctx context.Context, ticker string, ts time.Time) (model.SpotBar, error) {
	start := time.Now()
	b, err := s.backend.AsOfSpot(ctx, ticker, ts)
	s.observe("spot", start, err)
	return b, err
}

func (s *Store) AsOfDerivative(ctx context.Context, symbol string, filter model.InstrumentFilter, ts time.Time) (model.DerivativeRecord, error) {
	start := time.Now()
	r, err := s.backend.AsOfDerivative(ctx, symbol, filter, ts)
	s.observe("derivative", start, err)
	return r, err
}

func (s *Store) EarliestSpot(ctx context.Context, ticker string, from, to time.Time) (model.SpotBar, error) {
	start := time.Now()
	b, err := s.backend.EarliestSpot(ctx, ticker, from, to)
	s.observe("earliest_spot", start, err)
	return b, err
}

func (s *Store) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	start := time.Now()
	out, err := s.backend.ListExpiries(ctx, symbol)
	s.observe("expiries", start, err)
	return out, err
}

func (s *Store) Close() error { return s.backend.Close() }
