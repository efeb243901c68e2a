package markethours

import (
	"testing"
	"time"
)

func ist(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, IST)
}

func TestIsTradingDay(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday", ist(2023, 6, 1, 12, 0), true},   // Thursday
		{"saturday", ist(2023, 6, 3, 12, 0), false},
		{"sunday", ist(2023, 6, 4, 12, 0), false},
		{"republic day", ist(2023, 1, 26, 12, 0), false},
		{"diwali 2021", ist(2021, 11, 4, 12, 0), false},
	}
	for _, tc := range cases {
		if got := IsTradingDay(tc.t); got != tc.want {
			t.Errorf("%s: IsTradingDay = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNextTradingDaySkipsWeekend(t *testing.T) {
	// Friday 2023-06-02 18:00 + 1 day lands on Saturday; the next
	// trading day is Monday 2023-06-05 at the same time of day.
	sat := ist(2023, 6, 3, 18, 0)
	got := NextTradingDay(sat)
	want := ist(2023, 6, 5, 18, 0)
	if !got.Equal(want) {
		t.Errorf("NextTradingDay(%s) = %s, want %s", sat, got, want)
	}

	// A trading day maps to itself.
	mon := ist(2023, 6, 5, 9, 30)
	if got := NextTradingDay(mon); !got.Equal(mon) {
		t.Errorf("NextTradingDay on a trading day moved to %s", got)
	}
}

func TestNextTradingDaySkipsHolidayRun(t *testing.T) {
	// 2023-01-26 (Thu, Republic Day) -> Friday the 27th.
	got := NextTradingDay(ist(2023, 1, 26, 10, 0))
	want := ist(2023, 1, 27, 10, 0)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestIsMarketOpen(t *testing.T) {
	if !IsMarketOpen(ist(2023, 6, 1, 9, 15)) {
		t.Error("09:15 on a trading day should be open")
	}
	if IsMarketOpen(ist(2023, 6, 1, 9, 14)) {
		t.Error("09:14 should be closed")
	}
	if IsMarketOpen(ist(2023, 6, 1, 15, 30)) {
		t.Error("15:30 should be closed (close is exclusive)")
	}
	if IsMarketOpen(ist(2023, 6, 3, 10, 0)) {
		t.Error("saturday should be closed")
	}
}
