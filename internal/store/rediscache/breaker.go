package rediscache

import (
	"errors"
	"sync"
	"time"
)

// errBreakerOpen is returned by breaker.Execute while the breaker is
// open; callers treat it as a cache miss.
var errBreakerOpen = errors.New("cache breaker open")

// breakerState is the circuit breaker state.
type breakerState int

const (
	breakerClosed   breakerState = iota // cache calls pass through
	breakerOpen                         // cache bypassed outright
	breakerHalfOpen                     // one probe call allowed
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker trips after maxFailures consecutive Redis errors so a dead
// cache does not add a network timeout to every as-of query. After
// resetTimeout one probe call goes through; success closes the
// breaker, failure reopens it.
type breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	maxFailures int
	resetAfter  time.Duration
	lastFailure time.Time

	onStateChange func(from, to breakerState)
}

func newBreaker(maxFailures int, resetAfter time.Duration) *breaker {
	return &breaker{maxFailures: maxFailures, resetAfter: resetAfter}
}

// Execute runs fn unless the breaker is open. fn's error counts toward
// tripping; errBreakerOpen is returned without calling fn.
func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == breakerOpen {
		if time.Since(b.lastFailure) > b.resetAfter {
			b.transition(breakerHalfOpen)
		} else {
			b.mu.Unlock()
			return errBreakerOpen
		}
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == breakerHalfOpen || b.failures >= b.maxFailures {
			b.transition(breakerOpen)
		}
		return err
	}
	if b.state == breakerHalfOpen {
		b.transition(breakerClosed)
	}
	b.failures = 0
	return nil
}

func (b *breaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) transition(to breakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if to == breakerClosed {
		b.failures = 0
	}
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
