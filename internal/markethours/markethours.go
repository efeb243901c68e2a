// Package markethours models the NSE trading calendar for replay.
// Historical bhavcopy data has no rows on weekends and exchange
// holidays, so daily playback uses this package to skip over days that
// can never produce a price change.
package markethours

import "time"

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// NSE cash/derivatives session bounds in IST.
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30
)

// IsWeekday returns true if t is Mon-Fri in IST.
func IsWeekday(t time.Time) bool {
	wd := t.In(IST).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t falls on a weekday that is not an
// exchange holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	return IsWeekday(ist) && !IsHoliday(ist)
}

// IsMarketOpen returns true if t falls within session hours
// (9:15-15:30 IST) on a trading day.
func IsMarketOpen(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	ist := t.In(IST)
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// NextTradingDay returns t moved forward whole days until it lands on
// a trading day, preserving the time of day. t itself is returned when
// it already is one. The scan is bounded; an all-holiday stretch longer
// than two weeks does not occur on the exchange calendar.
func NextTradingDay(t time.Time) time.Time {
	d := t
	for i := 0; i < 14; i++ {
		if IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevTradingDay is NextTradingDay scanning backward.
func PrevTradingDay(t time.Time) time.Time {
	d := t
	for i := 0; i < 14; i++ {
		if IsTradingDay(d) {
			return d
		}
		d = d.AddDate(0, 0, -1)
	}
	return d
}
