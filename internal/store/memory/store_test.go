package memory

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"optionsimv1/internal/model"
)

func ts(h, m int) time.Time {
	return time.Date(2023, 6, 1, h, m, 0, 0, time.UTC)
}

func testStore() *Store {
	spots := []model.SpotBar{
		{Ticker: "AAA", TS: ts(10, 5), Close: 102},
		{Ticker: "AAA", TS: ts(10, 0), Close: 100},
		{Ticker: "BBB", TS: ts(10, 0), Close: 50},
	}
	derivatives := []model.DerivativeRecord{
		{Symbol: "AAA", Instrument: "FUTIDX", TS: ts(10, 0), Close: 101, Expiry: ts(0, 0).AddDate(0, 1, 0)},
		{Symbol: "AAA", Instrument: "OPTIDX", TS: ts(10, 2), Close: 7, Strike: 100, OptionType: "CE", Expiry: ts(0, 0).AddDate(0, 0, 15)},
		{Symbol: "AAA", Instrument: "FUTIDX", TS: ts(10, 5), Close: 103, Expiry: ts(0, 0).AddDate(0, 1, 0)},
	}
	return New(spots, derivatives)
}

func TestAsOfSpot(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	b, err := s.AsOfSpot(ctx, "AAA", ts(10, 3))
	if err != nil {
		t.Fatalf("asof 10:03: %v", err)
	}
	if b.Close != 100 {
		t.Errorf("asof 10:03: expected close=100, got %v", b.Close)
	}

	// Exact timestamp counts as "at or before".
	b, err = s.AsOfSpot(ctx, "AAA", ts(10, 5))
	if err != nil {
		t.Fatalf("asof 10:05: %v", err)
	}
	if b.Close != 102 {
		t.Errorf("asof 10:05: expected close=102, got %v", b.Close)
	}

	// Before the first bar: NoData, never a future record.
	if _, err := s.AsOfSpot(ctx, "AAA", ts(9, 59)); !errors.Is(err, model.ErrNoData) {
		t.Errorf("asof 09:59: expected ErrNoData, got %v", err)
	}

	// Unknown ticker: NoData, not an error.
	if _, err := s.AsOfSpot(ctx, "ZZZ", ts(12, 0)); !errors.Is(err, model.ErrNoData) {
		t.Errorf("unknown ticker: expected ErrNoData, got %v", err)
	}

	// Empty ticker is a caller contract violation.
	if _, err := s.AsOfSpot(ctx, "", ts(12, 0)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("empty ticker: expected ErrInvalidInput, got %v", err)
	}
}

func TestAsOfDerivativeFilter(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	// At 10:03 the latest record is the 10:02 option; the futures
	// filter must skip it and return the 10:00 future.
	r, err := s.AsOfDerivative(ctx, "AAA", model.Futures, ts(10, 3))
	if err != nil {
		t.Fatalf("futures asof 10:03: %v", err)
	}
	if r.Close != 101 || r.Instrument != "FUTIDX" {
		t.Errorf("futures asof 10:03: expected FUTIDX close=101, got %s close=%v", r.Instrument, r.Close)
	}

	// Unfiltered, the option at 10:02 is the latest.
	r, err = s.AsOfDerivative(ctx, "AAA", model.AnyInstrument, ts(10, 3))
	if err != nil {
		t.Fatalf("any asof 10:03: %v", err)
	}
	if r.Instrument != "OPTIDX" {
		t.Errorf("any asof 10:03: expected OPTIDX, got %s", r.Instrument)
	}

	// No options before 10:02.
	if _, err := s.AsOfDerivative(ctx, "AAA", model.Options, ts(10, 1)); !errors.Is(err, model.ErrNoData) {
		t.Errorf("options asof 10:01: expected ErrNoData, got %v", err)
	}
}

func TestEarliestSpot(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	b, err := s.EarliestSpot(ctx, "AAA", ts(9, 0), ts(11, 0))
	if err != nil {
		t.Fatalf("earliest: %v", err)
	}
	if !b.TS.Equal(ts(10, 0)) {
		t.Errorf("earliest: expected 10:00, got %s", b.TS)
	}

	// Window after all data.
	if _, err := s.EarliestSpot(ctx, "AAA", ts(11, 0), ts(12, 0)); !errors.Is(err, model.ErrNoData) {
		t.Errorf("empty window: expected ErrNoData, got %v", err)
	}

	// Inverted window is invalid input.
	if _, err := s.EarliestSpot(ctx, "AAA", ts(11, 0), ts(10, 0)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("inverted window: expected ErrInvalidInput, got %v", err)
	}
}

func TestListExpiries(t *testing.T) {
	s := testStore()
	expiries, err := s.ListExpiries(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("expiries: %v", err)
	}
	if len(expiries) != 2 {
		t.Fatalf("expected 2 distinct expiries, got %d", len(expiries))
	}
	if !expiries[0].Before(expiries[1]) {
		t.Errorf("expiries not ascending: %v", expiries)
	}
}

// referenceAsOf is a deliberately naive linear scan used to check the
// indexed implementation: the unique record with maximum TS <= query
// time, or none.
func referenceAsOf(rows []model.DerivativeRecord, symbol string, filter model.InstrumentFilter, at time.Time) (model.DerivativeRecord, bool) {
	var best model.DerivativeRecord
	found := false
	for _, r := range rows {
		if r.Symbol != symbol || r.TS.After(at) || !filter.Matches(r.Instrument) {
			continue
		}
		if !found || r.TS.After(best.TS) {
			best = r
			found = true
		}
	}
	return best, found
}

func TestAsOfDerivativeMatchesReferenceScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	instruments := []string{"FUTIDX", "OPTIDX", "FUTSTK", "OPTSTK"}
	base := ts(9, 15)

	// Unique timestamps: ties would make "the" most recent record
	// ambiguous between implementations.
	var rows []model.DerivativeRecord
	for i := 0; i < 500; i++ {
		rows = append(rows, model.DerivativeRecord{
			Symbol:     []string{"AAA", "BBB"}[rng.Intn(2)],
			Instrument: instruments[rng.Intn(len(instruments))],
			TS:         base.Add(time.Duration(i*17%10007) * time.Second),
			Close:      float64(i) + 1,
		})
	}
	s := New(nil, rows)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		symbol := []string{"AAA", "BBB"}[rng.Intn(2)]
		filter := []model.InstrumentFilter{model.AnyInstrument, model.Futures, model.Options}[rng.Intn(3)]
		at := base.Add(time.Duration(rng.Intn(11000)-500) * time.Second)

		want, wantOK := referenceAsOf(rows, symbol, filter, at)
		got, err := s.AsOfDerivative(ctx, symbol, filter, at)
		if wantOK != (err == nil) {
			t.Fatalf("%s/%s asof %s: found=%v, err=%v", symbol, filter, at, wantOK, err)
		}
		if wantOK && (got.Close != want.Close || !got.TS.Equal(want.TS)) {
			t.Fatalf("%s/%s asof %s: got close=%v ts=%s, want close=%v ts=%s",
				symbol, filter, at, got.Close, got.TS, want.Close, want.TS)
		}
	}
}
