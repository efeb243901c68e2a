// Package ledger implements the append-only paper-trading blotter with
// on-demand mark-to-market. Trades are immutable snapshots; unrealized
// P&L is recomputed fresh against a reference price and never stored.
package ledger

import (
	"fmt"
	"sync"

	"optionsimv1/internal/model"
)

// Ledger is an ordered, append-only sequence of trades. It is safe for
// concurrent use, though a replay session drives it sequentially.
type Ledger struct {
	mu     sync.RWMutex
	trades []model.Trade
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{trades: make([]model.Trade, 0, 64)}
}

// Place validates and appends one trade. There is no amend or cancel.
func (l *Ledger) Place(t model.Trade) error {
	if t.Side != model.Buy && t.Side != model.Sell {
		return fmt.Errorf("side %q: %w", t.Side, model.ErrInvalidInput)
	}
	if t.QuantityLots <= 0 {
		return fmt.Errorf("quantity %d lots: %w", t.QuantityLots, model.ErrInvalidInput)
	}
	if t.LotSize <= 0 {
		return fmt.Errorf("lot size %d: %w", t.LotSize, model.ErrInvalidInput)
	}
	if t.ExecutionPrice <= 0 {
		return fmt.Errorf("execution price %v: %w", t.ExecutionPrice, model.ErrInvalidInput)
	}
	l.mu.Lock()
	l.trades = append(l.trades, t)
	l.mu.Unlock()
	return nil
}

// Restore appends previously journaled trades without re-validation,
// preserving their original order.
func (l *Ledger) Restore(trades []model.Trade) {
	l.mu.Lock()
	l.trades = append(l.trades, trades...)
	l.mu.Unlock()
}

// MarkToMarket returns total unrealized P&L against latestPrice:
// sum over trades of (latestPrice − executionPrice) × lots × lotSize,
// signed +1 for BUY and −1 for SELL. Linear in the trade set.
func (l *Ledger) MarkToMarket(latestPrice float64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var pnl float64
	for i := range l.trades {
		t := &l.trades[i]
		pnl += (latestPrice - t.ExecutionPrice) * t.Notional()
	}
	return pnl
}

// Trades returns a snapshot copy of all trades, oldest first.
func (l *Ledger) Trades() []model.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]model.Trade, len(l.trades))
	copy(cp, l.trades)
	return cp
}

// Len returns the number of placed trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}
