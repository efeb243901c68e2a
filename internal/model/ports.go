package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple session/ledger logic from concrete storage
// implementations (in-memory table, ClickHouse, Redis cache). Cursor
// and ledger code depends only on MarketStore so the large-dataset
// backend can be swapped without touching it.

// MarketStore answers read-only as-of queries against ingested data.
// Both backends must return identical results for logically identical
// data and queries. Implementations must be safe for concurrent
// read-only use from multiple sessions.
type MarketStore interface {
	// AsOfSpot returns the spot bar with the greatest TS <= ts for the
	// ticker, or ErrNoData if no bar exists at or before ts.
	AsOfSpot(ctx context.Context, ticker string, ts time.Time) (SpotBar, error)

	// AsOfDerivative returns the derivative record with the greatest
	// TS <= ts for the symbol and instrument class, or ErrNoData.
	AsOfDerivative(ctx context.Context, symbol string, filter InstrumentFilter, ts time.Time) (DerivativeRecord, error)

	// EarliestSpot returns the first spot bar with from <= TS <= to for
	// the ticker, or ErrNoData. Sessions use it to seat the cursor at
	// the start of the selected window.
	EarliestSpot(ctx context.Context, ticker string, from, to time.Time) (SpotBar, error)

	// ListExpiries returns the distinct expiry dates for a symbol in
	// ascending order. An unknown symbol yields an empty slice, not an
	// error.
	ListExpiries(ctx context.Context, symbol string) ([]time.Time, error)

	// Close releases underlying resources.
	Close() error
}

// TradeJournal persists placed trades for audit and session restore.
type TradeJournal interface {
	// RecordTrade appends one trade to durable storage.
	RecordTrade(sessionID string, trade Trade) error

	// Trades returns all journaled trades for a session, oldest first.
	Trades(sessionID string) ([]Trade, error)

	// Close releases underlying resources.
	Close() error
}
