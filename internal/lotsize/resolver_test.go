package lotsize

import (
	"errors"
	"testing"

	"optionsimv1/internal/model"
)

func mustResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResolveFromTable(t *testing.T) {
	r := mustResolver(t)

	cases := []struct {
		symbol string
		date   string
		want   int
	}{
		{"NIFTY", "2021-06-15", 50},
		{"NIFTY", "2023-09-28", 25}, // first day of the newest rule
		{"NIFTY", "2016-01-04", 75},
		{"nifty", "2016-01-04", 75}, // symbol lookup is case-insensitive
		{"BANKNIFTY", "2019-07-01", 20},
		{"BANKNIFTY", "2023-09-04", 15},
		{"FINNIFTY", "2022-03-01", 40},
	}
	for _, tc := range cases {
		got := r.Resolve(tc.symbol, d(tc.date), nil, 0)
		if got != tc.want {
			t.Errorf("Resolve(%s, %s) = %d, want %d", tc.symbol, tc.date, got, tc.want)
		}
	}
}

func TestResolveHalfOpenBoundary(t *testing.T) {
	r := mustResolver(t)

	// A date exactly on validTo belongs to the next rule, not the
	// current one: 2023-09-03 ends the 20-lot BANKNIFTY rule.
	if got := r.Resolve("BANKNIFTY", d("2023-09-02"), nil, 0); got != 20 {
		t.Errorf("day before boundary: got %d, want 20", got)
	}
	if got := r.Resolve("BANKNIFTY", d("2023-09-03"), nil, 0); got == 20 {
		t.Errorf("boundary date resolved with the expiring rule")
	}

	// The shipped NIFTY table leaves 2023-09-27 uncovered (validTo of
	// one rule, day before validFrom of the next); resolution falls
	// through to the default, which happens to also be 50.
	if got := r.Resolve("NIFTY", d("2023-09-27"), nil, 0); got != 50 {
		t.Errorf("Resolve(NIFTY, 2023-09-27) = %d, want 50", got)
	}
}

func TestOverrideWins(t *testing.T) {
	r := mustResolver(t)

	if got := r.Resolve("NIFTY", d("2021-06-15"), nil, 1234); got != 1234 {
		t.Errorf("override ignored: got %d", got)
	}
	// Non-positive override is unset, not an error.
	if got := r.Resolve("NIFTY", d("2021-06-15"), nil, -5); got != 50 {
		t.Errorf("negative override: got %d, want table value 50", got)
	}
}

func TestInference(t *testing.T) {
	r := mustResolver(t)
	unknownDate := d("2005-01-01") // predates every table rule

	sample := &model.DerivativeRecord{
		Symbol:      "MIDCPNIFTY",
		Close:       100,
		ValueInLakh: 3.75, // 375000 rupees over 50 contracts at 100 => lot 75
		Contracts:   50,
	}
	if got := r.Resolve("MIDCPNIFTY", unknownDate, sample, 0); got != 75 {
		t.Errorf("inference: got %d, want 75", got)
	}

	// Estimate rounds to the nearest multiple of 5.
	sample.ValueInLakh = 3.6 // estimate 72 -> 70
	if got := r.Resolve("MIDCPNIFTY", unknownDate, sample, 0); got != 70 {
		t.Errorf("rounding: got %d, want 70", got)
	}

	// Close missing: settle price is the fallback reference.
	settleOnly := &model.DerivativeRecord{
		Symbol:      "MIDCPNIFTY",
		SettlePrice: 100,
		ValueInLakh: 3.75,
		Contracts:   50,
	}
	if got := r.Resolve("MIDCPNIFTY", unknownDate, settleOnly, 0); got != 75 {
		t.Errorf("settle fallback: got %d, want 75", got)
	}
}

func TestInferenceRejected(t *testing.T) {
	r := mustResolver(t)
	unknownDate := d("2005-01-01")

	cases := []struct {
		name   string
		sample *model.DerivativeRecord
	}{
		{"nil sample", nil},
		{"zero value", &model.DerivativeRecord{Close: 100, Contracts: 50}},
		{"zero contracts", &model.DerivativeRecord{Close: 100, ValueInLakh: 3.75}},
		{"zero price", &model.DerivativeRecord{ValueInLakh: 3.75, Contracts: 50}},
		// 9 lakh over 1 contract at 10: estimate 90000, above the band.
		{"implausibly large", &model.DerivativeRecord{Close: 10, ValueInLakh: 9, Contracts: 1}},
		// Estimate 1.2 is inside the band but rounds to zero lots.
		{"rounds to zero", &model.DerivativeRecord{Close: 100000, ValueInLakh: 1.2, Contracts: 1}},
	}
	for _, tc := range cases {
		got := r.Resolve("MIDCPNIFTY", unknownDate, tc.sample, 0)
		if got != DefaultLotSize {
			t.Errorf("%s: got %d, want default %d", tc.name, got, DefaultLotSize)
		}
	}
}

func TestResolveDeterministicAndPositive(t *testing.T) {
	r := mustResolver(t)
	dates := []string{"2005-01-01", "2014-11-01", "2023-09-27", "2099-12-31"}
	symbols := []string{"NIFTY", "BANKNIFTY", "FINNIFTY", "UNKNOWN"}

	for _, sym := range symbols {
		for _, date := range dates {
			first := r.Resolve(sym, d(date), nil, 0)
			if first <= 0 {
				t.Fatalf("Resolve(%s, %s) = %d, must be positive", sym, date, first)
			}
			for i := 0; i < 3; i++ {
				if got := r.Resolve(sym, d(date), nil, 0); got != first {
					t.Fatalf("Resolve(%s, %s) not deterministic: %d then %d", sym, date, first, got)
				}
			}
		}
	}
}

func TestRuleValidation(t *testing.T) {
	overlapping := map[string][]Rule{
		"XXX": {
			{ValidFrom: d("2020-01-01"), ValidTo: d("2021-01-01"), LotSize: 50},
			{ValidFrom: d("2020-06-01"), ValidTo: d("2022-01-01"), LotSize: 25},
		},
	}
	if _, err := New(WithRules(overlapping)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("overlapping rules accepted: %v", err)
	}

	unordered := map[string][]Rule{
		"XXX": {
			{ValidFrom: d("2021-01-01"), ValidTo: d("2022-01-01"), LotSize: 50},
			{ValidFrom: d("2020-01-01"), ValidTo: d("2021-01-01"), LotSize: 25},
		},
	}
	if _, err := New(WithRules(unordered)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("unordered rules accepted: %v", err)
	}

	badLot := map[string][]Rule{
		"XXX": {{ValidFrom: d("2020-01-01"), ValidTo: d("2021-01-01"), LotSize: 0}},
	}
	if _, err := New(WithRules(badLot)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero lot rule accepted: %v", err)
	}

	if _, err := New(WithDefault(0)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero default accepted: %v", err)
	}
}

func TestRuleContains(t *testing.T) {
	rule := Rule{ValidFrom: d("2020-01-01"), ValidTo: d("2021-01-01"), LotSize: 50}
	if !rule.Contains(d("2020-01-01")) {
		t.Error("validFrom is inclusive")
	}
	if rule.Contains(d("2021-01-01")) {
		t.Error("validTo is exclusive")
	}
	if rule.Contains(d("2019-12-31")) || rule.Contains(d("2021-01-02")) {
		t.Error("dates outside the interval matched")
	}
}
