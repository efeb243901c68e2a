package ledger

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"optionsimv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists placed trades to SQLite for audit and session restore.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		symbol      TEXT NOT NULL,
		side        TEXT NOT NULL,
		qty_lots    INTEGER NOT NULL,
		lot_size    INTEGER NOT NULL,
		price       REAL NOT NULL,
		placed_at   DATETIME NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordTrade persists one trade under a session ID.
func (j *Journal) RecordTrade(sessionID string, t model.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO trades (session_id, symbol, side, qty_lots, lot_size, price, placed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		t.Symbol,
		string(t.Side),
		t.QuantityLots,
		t.LotSize,
		t.ExecutionPrice,
		t.TS.Format(time.RFC3339),
	)
	return err
}

// Trades returns all journaled trades for a session, oldest first.
func (j *Journal) Trades(sessionID string) ([]model.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT symbol, side, qty_lots, lot_size, price, placed_at
		 FROM trades WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var side, placedAt string
		if err := rows.Scan(&t.Symbol, &side, &t.QuantityLots, &t.LotSize, &t.ExecutionPrice, &placedAt); err != nil {
			return nil, err
		}
		t.Side = model.Side(side)
		if ts, err := time.Parse(time.RFC3339, placedAt); err == nil {
			t.TS = ts
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DB exposes the underlying handle for liveness probes.
func (j *Journal) DB() *sql.DB { return j.db }

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
