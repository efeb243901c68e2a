package markethours

import "time"

// NSE trading holidays per calendar year, month/day pairs. The table is
// best-effort: it covers the vintages the shipped lot table covers and
// is only used to skip playback days, so a missing entry costs one
// no-change step, never wrong data.
var nseHolidays = map[int][]struct {
	month time.Month
	day   int
}{
	2023: {
		{time.January, 26},  // Republic Day
		{time.March, 7},     // Holi
		{time.March, 30},    // Ram Navami
		{time.April, 4},     // Mahavir Jayanti
		{time.April, 7},     // Good Friday
		{time.April, 14},    // Dr. Ambedkar Jayanti
		{time.May, 1},       // Maharashtra Day
		{time.June, 29},     // Bakri Id
		{time.August, 15},   // Independence Day
		{time.September, 19}, // Ganesh Chaturthi
		{time.October, 2},   // Mahatma Gandhi Jayanti
		{time.October, 24},  // Dussehra
		{time.November, 14}, // Diwali Balipratipada
		{time.November, 27}, // Guru Nanak Jayanti
		{time.December, 25}, // Christmas
	},
	2022: {
		{time.January, 26},  // Republic Day
		{time.March, 1},     // Mahashivratri
		{time.March, 18},    // Holi
		{time.April, 14},    // Dr. Ambedkar Jayanti / Mahavir Jayanti
		{time.April, 15},    // Good Friday
		{time.May, 3},       // Id-ul-Fitr
		{time.August, 9},    // Muharram
		{time.August, 15},   // Independence Day
		{time.August, 31},   // Ganesh Chaturthi
		{time.October, 5},   // Dussehra
		{time.October, 26},  // Diwali Balipratipada
		{time.November, 8},  // Guru Nanak Jayanti
	},
	2021: {
		{time.January, 26},  // Republic Day
		{time.March, 11},    // Mahashivratri
		{time.March, 29},    // Holi
		{time.April, 2},     // Good Friday
		{time.April, 14},    // Dr. Ambedkar Jayanti
		{time.April, 21},    // Ram Navami
		{time.May, 13},      // Id-ul-Fitr
		{time.July, 21},     // Bakri Id
		{time.August, 19},   // Muharram
		{time.September, 10}, // Ganesh Chaturthi
		{time.October, 15},  // Dussehra
		{time.November, 4},  // Diwali Laxmi Pujan
		{time.November, 5},  // Diwali Balipratipada
		{time.November, 19}, // Guru Nanak Jayanti
	},
}

var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool)
	for year, days := range nseHolidays {
		for _, h := range days {
			holidaySet[dateKey(year, h.month, h.day)] = true
		}
	}
}

// IsHoliday returns true if the date (in IST) is a listed NSE holiday.
func IsHoliday(t time.Time) bool {
	ist := t.In(IST)
	return holidaySet[dateKey(ist.Year(), ist.Month(), ist.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, IST).Format("2006-01-02")
}
