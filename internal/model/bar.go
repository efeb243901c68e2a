package model

import (
	"encoding/json"
	"time"
)

// SpotBar represents one OHLC bar of an underlying index or stock.
// Bars are immutable once ingested and ordered by TS per ticker.
type SpotBar struct {
	Ticker string    `json:"ticker"`
	TS     time.Time `json:"ts"` // bar timestamp (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *SpotBar) JSON() []byte {
	d, _ := json.Marshal(b)
	return d
}
