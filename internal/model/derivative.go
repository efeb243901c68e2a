package model

import (
	"strings"
	"time"
)

// Instrument class prefixes as they appear in NSE bhavcopy data:
// FUTIDX/FUTSTK for futures, OPTIDX/OPTSTK for options. As-of queries
// filter on the class prefix, not the exact instrument string.
type InstrumentFilter string

const (
	AnyInstrument InstrumentFilter = ""
	Futures       InstrumentFilter = "FUT"
	Options       InstrumentFilter = "OPT"
)

// Matches reports whether an instrument string belongs to the filter's class.
func (f InstrumentFilter) Matches(instrument string) bool {
	if f == AnyInstrument {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(instrument), string(f))
}

// Option types. Futures rows carry an empty or "XX" option type.
const (
	OptionCall = "CE"
	OptionPut  = "PE"
)

// DerivativeRecord is one normalized F&O row: a future or option quote
// for a symbol at a timestamp. Immutable once ingested; the columnar
// backend partitions these by (year, symbol).
type DerivativeRecord struct {
	Symbol       string    `json:"symbol"`
	Instrument   string    `json:"instrument"` // FUTIDX, FUTSTK, OPTIDX, OPTSTK
	Expiry       time.Time `json:"expiry"`
	Strike       float64   `json:"strike"`      // options only, 0 for futures
	OptionType   string    `json:"option_type"` // CE, PE, "" for futures
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	SettlePrice  float64   `json:"settle_price"`
	OpenInterest int64     `json:"open_interest"`
	ChangeInOI   int64     `json:"change_in_oi"`
	// Turnover in lakhs and traded contract count, when the source
	// carries them. Used only for lot-size inference.
	ValueInLakh float64   `json:"value_in_lakh"`
	Contracts   int64     `json:"contracts"`
	TS          time.Time `json:"ts"`
}

// ReferencePrice returns the price used for lot-size inference:
// close when present, settlement otherwise. Zero means no usable price.
func (r *DerivativeRecord) ReferencePrice() float64 {
	if r.Close > 0 {
		return r.Close
	}
	return r.SettlePrice
}
