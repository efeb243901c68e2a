// Package session implements the replay session: a playback cursor over
// a selected symbol/expiry/date window, bound to a read-only market
// store, the lot-size resolver and a paper-trading ledger. Each session
// owns its own state; many sessions may share one store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"optionsimv1/internal/ledger"
	"optionsimv1/internal/lotsize"
	"optionsimv1/internal/model"
)

// Config selects the replay window and playback parameters.
type Config struct {
	Symbol      string
	Start       time.Time // window start (inclusive)
	End         time.Time // window end (inclusive)
	Expiry      time.Time // selected expiry, zero when unset
	Step        time.Duration
	LotOverride int // optional operator override, <= 0 means unset
}

// DefaultStep is used when the config leaves Step unset.
const DefaultStep = 5 * time.Minute

func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("empty symbol: %w", model.ErrInvalidInput)
	}
	if c.Start.IsZero() || c.End.IsZero() || c.End.Before(c.Start) {
		return fmt.Errorf("window [%s, %s]: %w", c.Start, c.End, model.ErrInvalidInput)
	}
	return nil
}

// Session is one replay session. Created once per replay, discarded at
// the end; the cursor is never reset implicitly.
type Session struct {
	ID       string
	Symbol   string
	Expiry   time.Time
	Start    time.Time
	End      time.Time
	override int

	store    model.MarketStore
	resolver *lotsize.Resolver
	journal  model.TradeJournal // optional

	mu     sync.Mutex
	cursor Cursor
	ledger *ledger.Ledger
}

// New creates a session and seats the cursor at the earliest in-window
// spot timestamp. Returns ErrNoData (wrapped) when the window contains
// no spot bars for the symbol.
func New(ctx context.Context, id string, store model.MarketStore, resolver *lotsize.Resolver, journal model.TradeJournal, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	step := cfg.Step
	if step <= 0 {
		step = DefaultStep
	}
	first, err := store.EarliestSpot(ctx, cfg.Symbol, cfg.Start, cfg.End)
	if err != nil {
		return nil, fmt.Errorf("seat cursor: %w", err)
	}

	s := &Session{
		ID:       id,
		Symbol:   cfg.Symbol,
		Expiry:   cfg.Expiry,
		Start:    cfg.Start,
		End:      cfg.End,
		override: cfg.LotOverride,
		store:    store,
		resolver: resolver,
		journal:  journal,
		cursor:   NewCursor(first.TS, step),
		ledger:   ledger.New(),
	}

	if journal != nil {
		prior, err := journal.Trades(id)
		if err != nil {
			log.Printf("[session] %s: journal restore failed: %v", id, err)
		} else if len(prior) > 0 {
			s.ledger.Restore(prior)
			log.Printf("[session] %s: restored %d journaled trades", id, len(prior))
		}
	}
	return s, nil
}

// StepForward advances the cursor by d (default step when d is zero).
func (s *Session) StepForward(d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.StepForward(d)
	return s.cursor.Current()
}

// StepBackward moves the cursor back by d (default step when d is zero).
func (s *Session) StepBackward(d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.StepBackward(d)
	return s.cursor.Current()
}

// JumpTo moves the cursor to an absolute timestamp.
func (s *Session) JumpTo(ts time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.JumpTo(ts)
	return s.cursor.Current()
}

// Cursor returns the current simulated timestamp.
func (s *Session) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Current()
}

// Expiries lists the available expiry dates for the session's symbol.
func (s *Session) Expiries(ctx context.Context) ([]time.Time, error) {
	return s.store.ListExpiries(ctx, s.Symbol)
}

// Snapshot is the prevailing market view at the cursor. HasSpot and
// HasFutures are false when the respective as-of query found no data;
// that is a neutral condition, not an error.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Symbol       string    `json:"symbol"`
	Cursor       time.Time `json:"cursor"`
	SpotPrice    float64   `json:"spot_price"`
	HasSpot      bool      `json:"has_spot"`
	FuturesPrice float64   `json:"futures_price"`
	HasFutures   bool      `json:"has_futures"`
	LotSize      int       `json:"lot_size"`
	TradeCount   int       `json:"trade_count"`
	// UnrealizedPnL is marked against the futures price; zero and
	// meaningless when HasFutures is false or no trades are placed.
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Snapshot queries both as-of prices at the cursor, resolves the lot
// size and recomputes unrealized P&L. Only InvalidInput and
// BackendUnavailable escape; NoData is folded into the Has* flags.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	at := s.cursor.Current()
	s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.ID,
		Symbol:    s.Symbol,
		Cursor:    at,
	}

	spot, err := s.store.AsOfSpot(ctx, s.Symbol, at)
	switch {
	case err == nil:
		snap.SpotPrice = spot.Close
		snap.HasSpot = true
	case !errors.Is(err, model.ErrNoData):
		return Snapshot{}, err
	}

	var sample *model.DerivativeRecord
	fut, err := s.store.AsOfDerivative(ctx, s.Symbol, model.Futures, at)
	switch {
	case err == nil:
		snap.FuturesPrice = fut.Close
		snap.HasFutures = true
		sample = &fut
	case !errors.Is(err, model.ErrNoData):
		return Snapshot{}, err
	}

	snap.LotSize = s.resolver.Resolve(s.Symbol, at, sample, s.override)
	snap.TradeCount = s.ledger.Len()
	if snap.HasFutures {
		snap.UnrealizedPnL = s.ledger.MarkToMarket(snap.FuturesPrice)
	}
	return snap, nil
}

// PlaceTrade prices a futures paper trade at the cursor and appends it
// to the ledger. Rejected with ErrNoData when no futures price exists
// at the cursor; nothing is appended in that case.
func (s *Session) PlaceTrade(ctx context.Context, side model.Side, quantityLots int) (model.Trade, error) {
	if quantityLots <= 0 {
		return model.Trade{}, fmt.Errorf("quantity %d lots: %w", quantityLots, model.ErrInvalidInput)
	}

	s.mu.Lock()
	at := s.cursor.Current()
	s.mu.Unlock()

	fut, err := s.store.AsOfDerivative(ctx, s.Symbol, model.Futures, at)
	if err != nil {
		return model.Trade{}, fmt.Errorf("price trade: %w", err)
	}

	trade := model.Trade{
		TS:             at,
		Symbol:         s.Symbol,
		Side:           side,
		QuantityLots:   quantityLots,
		LotSize:        s.resolver.Resolve(s.Symbol, at, &fut, s.override),
		ExecutionPrice: fut.Close,
	}
	if err := s.ledger.Place(trade); err != nil {
		return model.Trade{}, err
	}

	if s.journal != nil {
		if err := s.journal.RecordTrade(s.ID, trade); err != nil {
			log.Printf("[session] %s: journal write failed: %v", s.ID, err)
		}
	}
	log.Printf("[session] %s: %s %d lots %s @ %.2f (lot=%d)",
		s.ID, trade.Side, trade.QuantityLots, trade.Symbol, trade.ExecutionPrice, trade.LotSize)
	return trade, nil
}

// Trades returns the session's blotter, oldest first.
func (s *Session) Trades() []model.Trade {
	return s.ledger.Trades()
}

// MarkToMarket recomputes unrealized P&L against an explicit price.
func (s *Session) MarkToMarket(latestPrice float64) float64 {
	return s.ledger.MarkToMarket(latestPrice)
}
