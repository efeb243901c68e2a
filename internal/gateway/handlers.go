package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"optionsimv1/internal/model"
	"optionsimv1/internal/session"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy onto HTTP codes: invalid
// input 400, missing data 422, backend unavailable 503.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, model.ErrNoData):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrBackendUnavailable):
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// parseWhen accepts a date ("2006-01-02") or a full RFC3339 timestamp.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, reg *Registry, ctx context.Context) {
	// WebSocket stream: pushes a snapshot after every autoplay step.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		e, ok := reg.get(id)
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		c := e.attach(conn)
		// Replay the retained history so a client attaching
		// mid-playback can backfill its chart, then push the current
		// view so it renders without waiting for the next step. Both go
		// through the send channel; the writePump is the conn's only
		// writer.
		for _, snap := range e.history.Recent() {
			if buf, err := json.Marshal(snap); err == nil {
				c.enqueue(buf)
			}
		}
		if snap, err := e.sess.Snapshot(r.Context()); err == nil {
			if buf, err := json.Marshal(snap); err == nil {
				c.enqueue(buf)
			}
		}
	})

	// REST: distinct expiries for a symbol.
	mux.HandleFunc("/api/expiries", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		symbol := r.URL.Query().Get("symbol")
		expiries, err := reg.store.ListExpiries(r.Context(), symbol)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]string, len(expiries))
		for i, e := range expiries {
			out[i] = e.Format("2006-01-02")
		}
		writeJSON(w, out)
	})

	// REST: create a replay session.
	mux.HandleFunc("/api/session/create", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Symbol      string `json:"symbol"`
			Start       string `json:"start"`
			End         string `json:"end"`
			Expiry      string `json:"expiry,omitempty"`
			StepSeconds int    `json:"step_seconds,omitempty"`
			LotOverride int    `json:"lot_override,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		start, err := parseWhen(req.Start)
		if err != nil {
			writeError(w, errors.Join(err, model.ErrInvalidInput))
			return
		}
		end, err := parseWhen(req.End)
		if err != nil {
			writeError(w, errors.Join(err, model.ErrInvalidInput))
			return
		}
		cfg := session.Config{
			Symbol:      req.Symbol,
			Start:       start,
			End:         end,
			Step:        time.Duration(req.StepSeconds) * time.Second,
			LotOverride: req.LotOverride,
		}
		if req.Expiry != "" {
			expiry, err := parseWhen(req.Expiry)
			if err != nil {
				writeError(w, errors.Join(err, model.ErrInvalidInput))
				return
			}
			cfg.Expiry = expiry
		}
		sess, err := reg.Create(r.Context(), cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		snap, err := sess.Snapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, snap)
	})

	// REST: current snapshot.
	mux.HandleFunc("/api/session/snapshot", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		e, ok := reg.get(r.URL.Query().Get("id"))
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		snap, err := e.sess.Snapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, snap)
	})

	// REST: step the cursor (forward/backward) or jump to a timestamp.
	mux.HandleFunc("/api/session/step", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ID          string `json:"id"`
			Direction   string `json:"direction"` // "forward" or "backward"
			StepSeconds int    `json:"step_seconds,omitempty"`
			JumpTo      string `json:"jump_to,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		e, ok := reg.get(req.ID)
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}

		step := time.Duration(req.StepSeconds) * time.Second
		switch {
		case req.JumpTo != "":
			ts, err := parseWhen(req.JumpTo)
			if err != nil {
				writeError(w, errors.Join(err, model.ErrInvalidInput))
				return
			}
			e.sess.JumpTo(ts)
		case req.Direction == "backward":
			e.sess.StepBackward(step)
		default:
			e.sess.StepForward(step)
		}
		if reg.metrics != nil {
			reg.metrics.CursorSteps.Inc()
		}

		snap, err := e.sess.Snapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		e.broadcast(snap)
		writeJSON(w, snap)
	})

	// REST: place a futures paper trade at the cursor.
	mux.HandleFunc("/api/session/trade", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ID           string `json:"id"`
			Side         string `json:"side"`
			QuantityLots int    `json:"quantity_lots"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		e, ok := reg.get(req.ID)
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		trade, err := e.sess.PlaceTrade(r.Context(), model.Side(req.Side), req.QuantityLots)
		if err != nil {
			if reg.metrics != nil {
				reg.metrics.TradesRejected.Inc()
			}
			writeError(w, err)
			return
		}
		if reg.metrics != nil {
			reg.metrics.TradesPlaced.Inc()
		}
		writeJSON(w, trade)
	})

	// REST: blotter with current unrealized P&L per the latest snapshot.
	mux.HandleFunc("/api/session/trades", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		e, ok := reg.get(r.URL.Query().Get("id"))
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		snap, err := e.sess.Snapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{
			"trades":         e.sess.Trades(),
			"unrealized_pnl": snap.UnrealizedPnL,
			"has_price":      snap.HasFutures,
		})
	})

	// REST: autoplay control.
	mux.HandleFunc("/api/session/play", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			ID              string `json:"id"`
			Play            bool   `json:"play"`
			IntervalSeconds int    `json:"interval_seconds,omitempty"`
			StepSeconds     int    `json:"step_seconds,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		e, ok := reg.get(req.ID)
		if !ok {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		if req.Play {
			interval := time.Duration(req.IntervalSeconds) * time.Second
			if interval <= 0 {
				interval = time.Second
			}
			reg.startAutoplay(ctx, e, interval, time.Duration(req.StepSeconds)*time.Second)
		} else {
			reg.stopAutoplay(e)
		}
		writeJSON(w, map[string]any{"playing": req.Play})
	})

	// REST: discard a session.
	mux.HandleFunc("/api/session/close", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		id := r.URL.Query().Get("id")
		if !reg.Close(id) {
			http.Error(w, `{"error":"unknown session"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"status": "closed"})
	})
}
