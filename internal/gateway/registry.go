// Package gateway is the thin presentation surface over the replay
// core: a REST API for session control and a WebSocket stream that
// pushes a fresh snapshot after every cursor move. It owns the session
// registry; all market semantics stay in internal/session.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"optionsimv1/internal/lotsize"
	"optionsimv1/internal/markethours"
	"optionsimv1/internal/metrics"
	"optionsimv1/internal/model"
	"optionsimv1/internal/ringbuf"
	"optionsimv1/internal/session"

	"github.com/gorilla/websocket"
)

// historyCap bounds the snapshots replayed to a client attaching
// mid-playback.
const historyCap = 64

// entry is one registered session plus its stream fan-out and autoplay
// state.
type entry struct {
	sess    *session.Session
	history *ringbuf.Ring[session.Snapshot]

	mu       sync.Mutex
	clients  map[*client]bool
	stopPlay context.CancelFunc
}

// attach registers a conn as a stream client and starts its pumps.
// All writes to the conn from here on go through the returned client's
// send channel.
func (e *entry) attach(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuf), e: e}
	e.mu.Lock()
	e.clients[c] = true
	e.mu.Unlock()
	go c.writePump()
	go c.readPump()
	return c
}

// removeClient unregisters c and closes its send channel, ending its
// writePump. Safe to call more than once.
func (e *entry) removeClient(c *client) {
	e.mu.Lock()
	if _, ok := e.clients[c]; ok {
		delete(e.clients, c)
		close(c.send)
	}
	e.mu.Unlock()
}

// broadcast records the snapshot in the replay history and enqueues it
// for every connected client. Enqueueing never blocks: a client that
// stopped reading fills its buffer and drops frames; e.mu is never
// held across a network write.
func (e *entry) broadcast(snap session.Snapshot) {
	e.history.Push(snap)
	buf, err := json.Marshal(snap)
	if err != nil {
		return
	}
	e.mu.Lock()
	for c := range e.clients {
		c.enqueue(buf)
	}
	e.mu.Unlock()
}

// Registry holds all live replay sessions for this process.
type Registry struct {
	store    model.MarketStore
	resolver *lotsize.Resolver
	journal  model.TradeJournal
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus

	mu      sync.RWMutex
	entries map[string]*entry
	seq     int64
}

// NewRegistry creates an empty registry bound to the shared read-only
// store and resolver. journal, m and health may be nil.
func NewRegistry(store model.MarketStore, resolver *lotsize.Resolver, journal model.TradeJournal, m *metrics.Metrics, health *metrics.HealthStatus) *Registry {
	return &Registry{
		store:    store,
		resolver: resolver,
		journal:  journal,
		metrics:  m,
		health:   health,
		entries:  make(map[string]*entry),
	}
}

// setSessionCount mirrors the live session count onto the Prometheus
// gauge and the health report.
func (r *Registry) setSessionCount(n int) {
	if r.metrics != nil {
		r.metrics.SessionsActive.Set(float64(n))
	}
	if r.health != nil {
		r.health.SetSessions(n)
	}
}

// Create opens a new session over the shared store.
func (r *Registry) Create(ctx context.Context, cfg session.Config) (*session.Session, error) {
	r.mu.Lock()
	r.seq++
	id := fmt.Sprintf("SESS-%d", r.seq)
	r.mu.Unlock()

	sess, err := session.New(ctx, id, r.store, r.resolver, r.journal, cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[id] = &entry{
		sess:    sess,
		history: ringbuf.New[session.Snapshot](historyCap),
		clients: make(map[*client]bool),
	}
	n := len(r.entries)
	r.mu.Unlock()

	r.setSessionCount(n)
	return sess, nil
}

// get returns the entry for a session ID.
func (r *Registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e, ok
}

// Close discards a session, stopping autoplay and disconnecting
// stream clients.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	n := len(r.entries)
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.stopPlay != nil {
		e.stopPlay()
		e.stopPlay = nil
	}
	clients := make([]*client, 0, len(e.clients))
	for c := range e.clients {
		clients = append(clients, c)
	}
	e.mu.Unlock()
	for _, c := range clients {
		e.removeClient(c)
	}

	r.setSessionCount(n)
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// startAutoplay advances the session cursor by step every interval and
// broadcasts the resulting snapshot, until stopped or the broadcast
// context ends. A second start replaces the previous loop.
func (r *Registry) startAutoplay(ctx context.Context, e *entry, interval, step time.Duration) {
	e.mu.Lock()
	if e.stopPlay != nil {
		e.stopPlay()
	}
	playCtx, cancel := context.WithCancel(ctx)
	e.stopPlay = cancel
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-playCtx.Done():
				return
			case <-ticker.C:
				at := e.sess.StepForward(step)
				// Daily playback lands on weekends and exchange
				// holidays that carry no bhavcopy rows; skip ahead.
				if step >= 24*time.Hour && !markethours.IsTradingDay(at) {
					e.sess.JumpTo(markethours.NextTradingDay(at))
				}
				if r.metrics != nil {
					r.metrics.CursorSteps.Inc()
				}
				snap, err := e.sess.Snapshot(playCtx)
				if err != nil {
					continue
				}
				e.broadcast(snap)
			}
		}
	}()
}

// stopAutoplay halts a running autoplay loop, if any.
func (r *Registry) stopAutoplay(e *entry) {
	e.mu.Lock()
	if e.stopPlay != nil {
		e.stopPlay()
		e.stopPlay = nil
	}
	e.mu.Unlock()
}
