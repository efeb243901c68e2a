// Package clickhouse provides the large-dataset MarketStore backend.
// Data lives in tables partitioned by (year, symbol), built out-of-band
// by cmd/preprocess; as-of queries push the symbol, instrument-class
// and timestamp predicates down to ClickHouse and rely on partition
// pruning instead of loading the dataset wholesale.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"optionsimv1/internal/model"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Store is a read-only MarketStore over a ClickHouse database.
type Store struct {
	db *sql.DB
}

// New opens a ClickHouse connection and verifies connectivity.
// A failed open or ping is reported as ErrBackendUnavailable: the
// caller must surface it, not treat it as missing data.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %v: %w", err, model.ErrBackendUnavailable)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("clickhouse ping: %v: %w", err, model.ErrBackendUnavailable)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	log.Printf("[ch-store] connected to %s", dsn)
	return &Store{db: db}, nil
}

const spotAsOfQuery = `
	SELECT ticker, ts, open, high, low, close
	FROM spot_bars
	WHERE ticker = ? AND ts <= ?
	ORDER BY ts DESC
	LIMIT 1
`

// AsOfSpot returns the last spot bar at or before ts for the ticker.
func (s *Store) AsOfSpot(ctx context.Context, ticker string, ts time.Time) (model.SpotBar, error) {
	if ticker == "" {
		return model.SpotBar{}, fmt.Errorf("empty ticker: %w", model.ErrInvalidInput)
	}
	var b model.SpotBar
	err := s.db.QueryRowContext(ctx, spotAsOfQuery, ticker, ts).
		Scan(&b.Ticker, &b.TS, &b.Open, &b.High, &b.Low, &b.Close)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SpotBar{}, fmt.Errorf("spot %s asof %s: %w", ticker, ts.Format(time.RFC3339), model.ErrNoData)
		}
		return model.SpotBar{}, fmt.Errorf("clickhouse spot query: %v: %w", err, model.ErrBackendUnavailable)
	}
	return b, nil
}

// derivativeAsOfQuery builds the pushdown as-of query for a symbol and
// instrument class. The LIKE prefix predicate mirrors the in-memory
// backend's class matching; AnyInstrument omits it entirely.
func derivativeAsOfQuery(filter model.InstrumentFilter) (string, bool) {
	q := `
	SELECT symbol, instrument, expiry, strike, option_type,
	       open, high, low, close, settle_price,
	       open_interest, change_in_oi, value_in_lakh, contracts, ts
	FROM fo_records
	WHERE symbol = ? AND ts <= ?`
	withFilter := filter != model.AnyInstrument
	if withFilter {
		q += ` AND instrument LIKE ?`
	}
	q += `
	ORDER BY ts DESC
	LIMIT 1`
	return q, withFilter
}

// AsOfDerivative returns the last matching record at or before ts.
func (s *Store) AsOfDerivative(ctx context.Context, symbol string, filter model.InstrumentFilter, ts time.Time) (model.DerivativeRecord, error) {
	if symbol == "" {
		return model.DerivativeRecord{}, fmt.Errorf("empty symbol: %w", model.ErrInvalidInput)
	}
	query, withFilter := derivativeAsOfQuery(filter)
	args := []any{symbol, ts}
	if withFilter {
		args = append(args, string(filter)+"%")
	}

	var r model.DerivativeRecord
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.Symbol, &r.Instrument, &r.Expiry, &r.Strike, &r.OptionType,
		&r.Open, &r.High, &r.Low, &r.Close, &r.SettlePrice,
		&r.OpenInterest, &r.ChangeInOI, &r.ValueInLakh, &r.Contracts, &r.TS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DerivativeRecord{}, fmt.Errorf("derivative %s/%s asof %s: %w",
				symbol, filter, ts.Format(time.RFC3339), model.ErrNoData)
		}
		return model.DerivativeRecord{}, fmt.Errorf("clickhouse derivative query: %v: %w", err, model.ErrBackendUnavailable)
	}
	return r, nil
}

const earliestSpotQuery = `
	SELECT ticker, ts, open, high, low, close
	FROM spot_bars
	WHERE ticker = ? AND ts >= ? AND ts <= ?
	ORDER BY ts ASC
	LIMIT 1
`

// EarliestSpot returns the first bar inside [from, to] for the ticker.
func (s *Store) EarliestSpot(ctx context.Context, ticker string, from, to time.Time) (model.SpotBar, error) {
	if ticker == "" {
		return model.SpotBar{}, fmt.Errorf("empty ticker: %w", model.ErrInvalidInput)
	}
	if to.Before(from) {
		return model.SpotBar{}, fmt.Errorf("window end before start: %w", model.ErrInvalidInput)
	}
	var b model.SpotBar
	err := s.db.QueryRowContext(ctx, earliestSpotQuery, ticker, from, to).
		Scan(&b.Ticker, &b.TS, &b.Open, &b.High, &b.Low, &b.Close)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SpotBar{}, fmt.Errorf("spot %s in [%s, %s]: %w",
				ticker, from.Format(time.RFC3339), to.Format(time.RFC3339), model.ErrNoData)
		}
		return model.SpotBar{}, fmt.Errorf("clickhouse earliest-spot query: %v: %w", err, model.ErrBackendUnavailable)
	}
	return b, nil
}

const listExpiriesQuery = `
	SELECT DISTINCT expiry
	FROM fo_records
	WHERE symbol = ?
	ORDER BY expiry
`

// ListExpiries returns the distinct expiry dates for a symbol, ascending.
func (s *Store) ListExpiries(ctx context.Context, symbol string) ([]time.Time, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", model.ErrInvalidInput)
	}
	rows, err := s.db.QueryContext(ctx, listExpiriesQuery, symbol)
	if err != nil {
		return nil, fmt.Errorf("clickhouse expiry query: %v: %w", err, model.ErrBackendUnavailable)
	}
	defer rows.Close()

	expiries := make([]time.Time, 0)
	for rows.Next() {
		var e time.Time
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("clickhouse expiry scan: %v: %w", err, model.ErrBackendUnavailable)
		}
		expiries = append(expiries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse expiry rows: %v: %w", err, model.ErrBackendUnavailable)
	}
	return expiries, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
