// Package memory provides a fully materialized MarketStore backend for
// datasets small enough to load wholesale. Tables are sorted once at
// build time and never mutated, so reads need no synchronization.
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"optionsimv1/internal/model"
)

// Store holds timestamp-sorted spot and derivative tables keyed by
// ticker/symbol. Build it with New; it is read-only afterwards and safe
// for concurrent use from multiple sessions.
type Store struct {
	spots       map[string][]model.SpotBar
	derivatives map[string][]model.DerivativeRecord
	expiries    map[string][]time.Time
}

// New builds a Store from already-ingested records. Input slices may be
// in any order; they are copied and sorted by timestamp per key.
func New(spots []model.SpotBar, derivatives []model.DerivativeRecord) *Store {
	s := &Store{
		spots:       make(map[string][]model.SpotBar),
		derivatives: make(map[string][]model.DerivativeRecord),
		expiries:    make(map[string][]time.Time),
	}
	for _, b := range spots {
		s.spots[b.Ticker] = append(s.spots[b.Ticker], b)
	}
	for _, r := range derivatives {
		s.derivatives[r.Symbol] = append(s.derivatives[r.Symbol], r)
	}
	for ticker := range s.spots {
		rows := s.spots[ticker]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].TS.Before(rows[j].TS) })
	}
	for symbol := range s.derivatives {
		rows := s.derivatives[symbol]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].TS.Before(rows[j].TS) })
		s.expiries[symbol] = distinctExpiries(rows)
	}
	return s
}

func distinctExpiries(rows []model.DerivativeRecord) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, r := range rows {
		if r.Expiry.IsZero() || seen[r.Expiry] {
			continue
		}
		seen[r.Expiry] = true
		out = append(out, r.Expiry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// AsOfSpot returns the last bar at or before ts for the ticker.
func (s *Store) AsOfSpot(ctx context.Context, ticker string, ts time.Time) (model.SpotBar, error) {
	if ticker == "" {
		return model.SpotBar{}, fmt.Errorf("empty ticker: %w", model.ErrInvalidInput)
	}
	rows := s.spots[ticker]
	// First index strictly after ts; everything before it qualifies.
	i := sort.Search(len(rows), func(i int) bool { return rows[i].TS.After(ts) })
	if i == 0 {
		return model.SpotBar{}, fmt.Errorf("spot %s asof %s: %w", ticker, ts.Format(time.RFC3339), model.ErrNoData)
	}
	return rows[i-1], nil
}

// AsOfDerivative returns the last record at or before ts for the symbol
// whose instrument matches the filter class.
func (s *Store) AsOfDerivative(ctx context.Context, symbol string, filter model.InstrumentFilter, ts time.Time) (model.DerivativeRecord, error) {
	if symbol == "" {
		return model.DerivativeRecord{}, fmt.Errorf("empty symbol: %w", model.ErrInvalidInput)
	}
	rows := s.derivatives[symbol]
	i := sort.Search(len(rows), func(i int) bool { return rows[i].TS.After(ts) })
	// Descending scan from the bound until the filter matches.
	for j := i - 1; j >= 0; j-- {
		if filter.Matches(rows[j].Instrument) {
			return rows[j], nil
		}
	}
	return model.DerivativeRecord{}, fmt.Errorf("derivative %s/%s asof %s: %w",
		symbol, filter, ts.Format(time.RFC3339), model.ErrNoData)
}

// EarliestSpot returns the first bar inside [from, to] for the ticker.
func (s *Store) EarliestSpot(ctx context.Context, ticker string, from, to time.Time) (model.SpotBar, error) {
	if ticker == "" {
		return model.SpotBar{}, fmt.Errorf("empty ticker: %w", model.ErrInvalidInput)
	}
	if to.Before(from) {
		return model.SpotBar{}, fmt.Errorf("window end before start: %w", model.ErrInvalidInput)
	}
	rows := s.spots[ticker]
	i := sort.Search(len(rows), func(i int) bool { return !rows[i].TS.Before(from) })
	if i == len(rows) || rows[i].TS.After(to) {
		return model.SpotBar{}, fmt.Errorf("spot %s in [%s, %s]: %w",
			ticker, from.Format(time.RFC3339), to.Format(time.RFC3339), model.ErrNoData)
	}
	return rows[i], nil
}

// ListExpiries returns the distinct expiry dates for a symbol, ascending.
func (s *Store) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", model.ErrInvalidInput)
	}
	src := s.expiries[symbol]
	out := make([]time.Time, len(src))
	copy(out, src)
	return out, nil
}

// Coverage returns the earliest and latest spot timestamps for a ticker.
// ok is false when the ticker has no bars.
func (s *Store) Coverage(ticker string) (first, last time.Time, ok bool) {
	rows := s.spots[ticker]
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return rows[0].TS, rows[len(rows)-1].TS, true
}

// Tickers returns all tickers with spot data, sorted.
func (s *Store) Tickers() []string {
	out := make([]string, 0, len(s.spots))
	for t := range s.spots {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error { return nil }
