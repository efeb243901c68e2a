package model

import "time"

// Trade side.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL exposure.
func (s Side) Sign() float64 {
	if s == Buy {
		return 1
	}
	return -1
}

// Trade is one paper trade, immutable once appended to a ledger.
// LotSize is snapshotted at placement and never recomputed, even if
// the lot-size rule table changes later.
type Trade struct {
	TS             time.Time `json:"ts"` // cursor time at placement
	Symbol         string    `json:"symbol"`
	Side           Side      `json:"side"`
	QuantityLots   int       `json:"quantity_lots"`
	LotSize        int       `json:"lot_size"`
	ExecutionPrice float64   `json:"execution_price"`
}

// Notional returns the signed unit exposure: lots × lotSize × side sign.
func (t *Trade) Notional() float64 {
	return float64(t.QuantityLots*t.LotSize) * t.Side.Sign()
}
