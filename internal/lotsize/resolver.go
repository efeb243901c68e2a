// Package lotsize resolves the contract multiplier for a symbol on a
// trade date. Resolution is a short-circuiting chain of strategies
// encoding a trust hierarchy: explicit operator override, then the
// curated historical rule table, then inference from a representative
// derivative record, then a fixed conservative default. The resolver
// is deterministic and side-effect-free.
package lotsize

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"optionsimv1/internal/model"
)

// DefaultLotSize is the final fallback when every other tier declines.
// Historically a sensible value for index derivatives.
const DefaultLotSize = 50

// Inference acceptance band and rounding granularity.
const (
	minPlausibleLot = 1
	maxPlausibleLot = 50000
	lotRounding     = 5
)

// Rule maps a half-open date interval [ValidFrom, ValidTo) to a lot
// size. A date exactly equal to ValidTo belongs to the next rule.
type Rule struct {
	ValidFrom time.Time
	ValidTo   time.Time
	LotSize   int
}

// Contains reports whether d falls inside the rule's interval.
func (r Rule) Contains(d time.Time) bool {
	return !d.Before(r.ValidFrom) && d.Before(r.ValidTo)
}

// Request carries everything a strategy may consult.
type Request struct {
	Symbol    string
	TradeDate time.Time
	Sample    *model.DerivativeRecord // optional, same symbol/date
	Override  int                     // optional, <= 0 means unset
}

// strategy returns a lot size and whether it succeeded. A declining
// strategy falls through to the next tier; that is never an error.
type strategy func(req Request) (int, bool)

// Resolver resolves lot sizes through the strategy chain.
type Resolver struct {
	rules      map[string][]Rule
	defaultLot int
	chain      []strategy
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRules replaces the built-in historical rule table. Keys are
// upper-cased symbols.
func WithRules(rules map[string][]Rule) Option {
	return func(r *Resolver) { r.rules = rules }
}

// WithDefault replaces the final-fallback lot size.
func WithDefault(lot int) Option {
	return func(r *Resolver) { r.defaultLot = lot }
}

// New builds a Resolver. It validates the rule table: rules per symbol
// must be chronologically ordered and non-overlapping.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		rules:      builtinRules(),
		defaultLot: DefaultLotSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaultLot <= 0 {
		return nil, fmt.Errorf("default lot %d: %w", r.defaultLot, model.ErrInvalidInput)
	}
	if err := validateRules(r.rules); err != nil {
		return nil, err
	}
	r.chain = []strategy{r.fromOverride, r.fromTable, r.fromSample, r.fromDefault}
	return r, nil
}

func validateRules(table map[string][]Rule) error {
	for symbol, rules := range table {
		sorted := sort.SliceIsSorted(rules, func(i, j int) bool {
			return rules[i].ValidFrom.Before(rules[j].ValidFrom)
		})
		if !sorted {
			return fmt.Errorf("lot rules for %s not chronological: %w", symbol, model.ErrInvalidInput)
		}
		for i, rule := range rules {
			if rule.LotSize <= 0 {
				return fmt.Errorf("lot rule %s[%d] has non-positive lot: %w", symbol, i, model.ErrInvalidInput)
			}
			if !rule.ValidFrom.Before(rule.ValidTo) {
				return fmt.Errorf("lot rule %s[%d] has empty interval: %w", symbol, i, model.ErrInvalidInput)
			}
			if i > 0 && rules[i-1].ValidTo.After(rule.ValidFrom) {
				return fmt.Errorf("lot rules for %s overlap at %s: %w",
					symbol, rule.ValidFrom.Format("2006-01-02"), model.ErrInvalidInput)
			}
		}
	}
	return nil
}

// Resolve walks the chain and returns the first accepted lot size.
// The result is always positive.
func (r *Resolver) Resolve(symbol string, tradeDate time.Time, sample *model.DerivativeRecord, override int) int {
	req := Request{
		Symbol:    strings.ToUpper(symbol),
		TradeDate: tradeDate,
		Sample:    sample,
		Override:  override,
	}
	for _, s := range r.chain {
		if lot, ok := s(req); ok {
			return lot
		}
	}
	return r.defaultLot // unreachable: fromDefault always accepts
}

// fromOverride: manual operator control always wins.
func (r *Resolver) fromOverride(req Request) (int, bool) {
	if req.Override > 0 {
		return req.Override, true
	}
	return 0, false
}

// fromTable: curated historical rule table lookup.
func (r *Resolver) fromTable(req Request) (int, bool) {
	for _, rule := range r.rules[req.Symbol] {
		if rule.Contains(req.TradeDate) {
			return rule.LotSize, true
		}
	}
	return 0, false
}

// fromSample estimates the lot size from turnover on a representative
// record: lot ≈ value / (price × contracts), with value in lakhs.
// Declines on any missing or non-positive field, an implausible
// estimate, or an estimate that rounds to zero.
func (r *Resolver) fromSample(req Request) (int, bool) {
	s := req.Sample
	if s == nil {
		return 0, false
	}
	if s.ValueInLakh <= 0 || s.Contracts <= 0 {
		return 0, false
	}
	price := s.ReferencePrice()
	if price <= 0 {
		return 0, false
	}
	value := s.ValueInLakh * 100000.0 // lakhs -> rupees
	est := value / (price * float64(s.Contracts))
	if est <= minPlausibleLot || est >= maxPlausibleLot {
		return 0, false
	}
	lot := int(math.Round(est/lotRounding)) * lotRounding
	if lot <= 0 {
		return 0, false
	}
	return lot, true
}

func (r *Resolver) fromDefault(Request) (int, bool) {
	return r.defaultLot, true
}
