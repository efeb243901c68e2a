// Package ingest parses normalized spot and F&O CSV files into model
// records. Source files come from several NSE archive vintages, so
// every column is looked up through an alias list and timestamps are
// tried against the formats seen in the wild. Rows missing a usable
// timestamp are skipped, not fatal.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"optionsimv1/internal/model"
)

var timeFormats = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	time.RFC3339,
	"02-Jan-2006",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, f := range timeFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// Some vintages write integral columns as "1234.0".
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}

// header maps normalized column names to indices, resolving aliases.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		h[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return h
}

// get returns the field for the first alias present in the row.
func (h header) get(row []string, aliases ...string) string {
	for _, a := range aliases {
		if i, ok := h[a]; ok && i < len(row) {
			return row[i]
		}
	}
	return ""
}

// LoadSpot reads a spot/index CSV into bars. defaultTicker is used when
// the file carries no ticker column at all.
func LoadSpot(r io.Reader, defaultTicker string) ([]model.SpotBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("spot csv header: %w", err)
	}
	h := newHeader(head)

	var bars []model.SpotBar
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spot csv row: %w", err)
		}
		ts, ok := parseTime(h.get(row, "DATETIME", "TIMESTAMP", "DATE"))
		if !ok {
			skipped++
			continue
		}
		ticker := strings.TrimSpace(h.get(row, "TICKER", "SYMBOL"))
		if ticker == "" {
			ticker = defaultTicker
		}
		bars = append(bars, model.SpotBar{
			Ticker: strings.ToUpper(ticker),
			TS:     ts,
			Open:   parseFloat(h.get(row, "OPEN", "OPEN_PRICE")),
			High:   parseFloat(h.get(row, "HIGH", "HIGH_PRICE")),
			Low:    parseFloat(h.get(row, "LOW", "LOW_PRICE")),
			Close:  parseFloat(h.get(row, "CLOSE", "CLOSE_PRICE")),
		})
	}
	if skipped > 0 {
		log.Printf("[ingest] spot: skipped %d rows without parseable timestamp", skipped)
	}
	return bars, nil
}

// ForEachFO streams an F&O (options+futures) CSV, invoking fn per
// normalized record. Source files can run to tens of gigabytes, so
// rows are never materialized wholesale here.
func ForEachFO(r io.Reader, fn func(model.DerivativeRecord) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return fmt.Errorf("fo csv header: %w", err)
	}
	h := newHeader(head)

	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("fo csv row: %w", err)
		}
		ts, ok := parseTime(h.get(row, "TIMESTAMP", "DATE"))
		if !ok {
			skipped++
			continue
		}
		expiry, _ := parseTime(h.get(row, "EXPIRY_DT", "EXPIRY", "EXPIRY DATE"))
		rec := model.DerivativeRecord{
			Symbol:       strings.ToUpper(strings.TrimSpace(h.get(row, "SYMBOL"))),
			Instrument:   strings.ToUpper(strings.TrimSpace(h.get(row, "INSTRUMENT"))),
			Expiry:       expiry,
			Strike:       parseFloat(h.get(row, "STRIKE_PR", "STRIKE", "STRIKE PRICE")),
			OptionType:   strings.ToUpper(strings.TrimSpace(h.get(row, "OPTION_TYP", "OPTION_TYPE"))),
			Open:         parseFloat(h.get(row, "OPEN", "OPEN_PRICE")),
			High:         parseFloat(h.get(row, "HIGH", "HIGH_PRICE")),
			Low:          parseFloat(h.get(row, "LOW", "LOW_PRICE")),
			Close:        parseFloat(h.get(row, "CLOSE", "CLOSE_PRICE")),
			SettlePrice:  parseFloat(h.get(row, "SETTLE_PR", "SETTLEMENT_PRICE")),
			OpenInterest: parseInt(h.get(row, "OPEN_INT", "OI", "OPEN INTEREST")),
			ChangeInOI:   parseInt(h.get(row, "CHG_IN_OI", "CHG_OI", "CHANGE IN OI")),
			ValueInLakh:  parseFloat(h.get(row, "VAL_INLAKH", "VAL_IN_LAKH", "VALUE_IN_LAKH", "VAL")),
			Contracts:    parseInt(h.get(row, "CONTRACTS", "NO_OF_CONTRACTS")),
			TS:           ts,
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if skipped > 0 {
		log.Printf("[ingest] fo: skipped %d rows without parseable timestamp", skipped)
	}
	return nil
}

// LoadFO reads an F&O CSV wholesale, for the in-memory backend.
func LoadFO(r io.Reader) ([]model.DerivativeRecord, error) {
	var records []model.DerivativeRecord
	err := ForEachFO(r, func(rec model.DerivativeRecord) error {
		records = append(records, rec)
		return nil
	})
	return records, err
}
