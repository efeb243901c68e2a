package ledger

import (
	"errors"
	"testing"
	"time"

	"optionsimv1/internal/model"
)

func trade(side model.Side, lots, lotSize int, price float64) model.Trade {
	return model.Trade{
		TS:             time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC),
		Symbol:         "NIFTY",
		Side:           side,
		QuantityLots:   lots,
		LotSize:        lotSize,
		ExecutionPrice: price,
	}
}

func TestMarkToMarket(t *testing.T) {
	l := New()

	// BUY 2 lots of 50 at 100; marked at 110 => (110-100)*2*50 = 1000.
	if err := l.Place(trade(model.Buy, 2, 50, 100)); err != nil {
		t.Fatalf("place buy: %v", err)
	}
	if pnl := l.MarkToMarket(110); pnl != 1000 {
		t.Errorf("after buy: pnl = %v, want 1000", pnl)
	}

	// SELL 1 lot of 50 at 105 contributes (110-105)*1*50*(-1) = -250.
	if err := l.Place(trade(model.Sell, 1, 50, 105)); err != nil {
		t.Fatalf("place sell: %v", err)
	}
	if pnl := l.MarkToMarket(110); pnl != 750 {
		t.Errorf("after sell: pnl = %v, want 750", pnl)
	}
}

func TestMarkToMarketLinear(t *testing.T) {
	// P&L of the union of two disjoint trade sets equals the sum of
	// their individual P&Ls at the same reference price.
	setA := []model.Trade{trade(model.Buy, 2, 50, 100), trade(model.Sell, 3, 25, 98)}
	setB := []model.Trade{trade(model.Sell, 1, 50, 105), trade(model.Buy, 4, 15, 101.5)}

	la, lb, lu := New(), New(), New()
	for _, tr := range setA {
		la.Place(tr)
		lu.Place(tr)
	}
	for _, tr := range setB {
		lb.Place(tr)
		lu.Place(tr)
	}

	const ref = 110.0
	sum := la.MarkToMarket(ref) + lb.MarkToMarket(ref)
	if union := lu.MarkToMarket(ref); union != sum {
		t.Errorf("union pnl %v != sum of parts %v", union, sum)
	}
}

func TestPlaceValidation(t *testing.T) {
	l := New()
	cases := []struct {
		name string
		tr   model.Trade
	}{
		{"bad side", trade("HOLD", 1, 50, 100)},
		{"zero lots", trade(model.Buy, 0, 50, 100)},
		{"negative lots", trade(model.Buy, -1, 50, 100)},
		{"zero lot size", trade(model.Buy, 1, 0, 100)},
		{"zero price", trade(model.Buy, 1, 50, 0)},
	}
	for _, tc := range cases {
		if err := l.Place(tc.tr); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
	if l.Len() != 0 {
		t.Errorf("rejected trades must not be appended, len=%d", l.Len())
	}
}

func TestTradesSnapshotIsCopy(t *testing.T) {
	l := New()
	l.Place(trade(model.Buy, 1, 50, 100))

	snap := l.Trades()
	snap[0].ExecutionPrice = 999

	if got := l.Trades()[0].ExecutionPrice; got != 100 {
		t.Errorf("ledger mutated through snapshot: price=%v", got)
	}
}

func TestMarkToMarketEmpty(t *testing.T) {
	if pnl := New().MarkToMarket(110); pnl != 0 {
		t.Errorf("empty ledger pnl = %v, want 0", pnl)
	}
}
