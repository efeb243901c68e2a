package lotsize

import "time"

// d parses a YYYY-MM-DD rule boundary. The table is static, so a parse
// failure is a programming error.
func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic("lotsize: bad rule date " + s)
	}
	return t
}

// builtinRules returns the shipped historical lot table for the index
// derivatives. The values are best-effort approximations of exchange
// circulars, not authoritative; replace them via WithRules when curated
// data is available.
func builtinRules() map[string][]Rule {
	return map[string][]Rule{
		"NIFTY": {
			{ValidFrom: d("2007-01-01"), ValidTo: d("2014-10-31"), LotSize: 50},
			{ValidFrom: d("2014-11-01"), ValidTo: d("2015-10-31"), LotSize: 25},
			{ValidFrom: d("2015-11-01"), ValidTo: d("2020-02-28"), LotSize: 75},
			{ValidFrom: d("2020-03-01"), ValidTo: d("2023-09-27"), LotSize: 50},
			{ValidFrom: d("2023-09-28"), ValidTo: d("2100-01-01"), LotSize: 25},
		},
		"BANKNIFTY": {
			{ValidFrom: d("2007-01-01"), ValidTo: d("2014-10-31"), LotSize: 25},
			{ValidFrom: d("2014-11-01"), ValidTo: d("2019-06-30"), LotSize: 30},
			{ValidFrom: d("2019-07-01"), ValidTo: d("2023-09-03"), LotSize: 20},
			{ValidFrom: d("2023-09-04"), ValidTo: d("2100-01-01"), LotSize: 15},
		},
		"FINNIFTY": {
			{ValidFrom: d("2021-01-01"), ValidTo: d("2023-09-28"), LotSize: 40},
			{ValidFrom: d("2023-09-29"), ValidTo: d("2100-01-01"), LotSize: 50},
		},
	}
}
