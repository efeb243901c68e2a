package rediscache

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := newBreaker(3, 100*time.Millisecond)
	if b.currentState() != breakerClosed {
		t.Errorf("expected closed, got %v", b.currentState())
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := newBreaker(3, 100*time.Millisecond)
	errFail := errors.New("fail")

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errFail }); err != errFail {
			t.Fatalf("expected errFail, got %v", err)
		}
	}
	if b.currentState() != breakerOpen {
		t.Errorf("expected open after 3 failures, got %v", b.currentState())
	}

	// Calls are rejected without invoking fn.
	called := false
	err := b.Execute(func() error { called = true; return nil })
	if err != errBreakerOpen {
		t.Errorf("expected errBreakerOpen, got %v", err)
	}
	if called {
		t.Error("fn ran while the breaker was open")
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := newBreaker(2, 50*time.Millisecond)
	errFail := errors.New("fail")
	for i := 0; i < 2; i++ {
		b.Execute(func() error { return errFail })
	}
	if b.currentState() != breakerOpen {
		t.Fatal("expected open")
	}

	time.Sleep(60 * time.Millisecond)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.currentState() != breakerClosed {
		t.Errorf("expected closed after successful probe, got %v", b.currentState())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newBreaker(2, 50*time.Millisecond)
	errFail := errors.New("fail")
	for i := 0; i < 2; i++ {
		b.Execute(func() error { return errFail })
	}

	time.Sleep(60 * time.Millisecond)
	b.Execute(func() error { return errFail })

	if b.currentState() != breakerOpen {
		t.Errorf("expected open after failed probe, got %v", b.currentState())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := newBreaker(3, 100*time.Millisecond)
	errFail := errors.New("fail")

	b.Execute(func() error { return errFail })
	b.Execute(func() error { return errFail })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errFail })
	b.Execute(func() error { return errFail })

	if b.currentState() != breakerClosed {
		t.Errorf("expected closed after counter reset, got %v", b.currentState())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []breakerState
	b := newBreaker(1, 50*time.Millisecond)
	b.onStateChange = func(from, to breakerState) {
		transitions = append(transitions, to)
	}

	b.Execute(func() error { return errors.New("fail") })
	if len(transitions) != 1 || transitions[0] != breakerOpen {
		t.Fatalf("expected [open], got %v", transitions)
	}

	time.Sleep(60 * time.Millisecond)
	b.Execute(func() error { return nil })

	if len(transitions) != 3 || transitions[1] != breakerHalfOpen || transitions[2] != breakerClosed {
		t.Errorf("expected [open half-open closed], got %v", transitions)
	}
}
