package model

import "errors"

// Sentinel errors shared across store backends and session logic.
// Callers check them with errors.Is; backends wrap them with context.
var (
	// ErrNoData means an as-of query found no record at or before the
	// requested timestamp. Recoverable: surfaced as an empty result,
	// never fatal.
	ErrNoData = errors.New("no data at or before requested time")

	// ErrInvalidInput marks caller contract violations (empty symbol,
	// inverted date range, non-positive quantity) rejected before any
	// backend is reached.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable means the large-dataset backend could not
	// be reached or opened. Fatal for the session's queries and must
	// not be collapsed into ErrNoData.
	ErrBackendUnavailable = errors.New("store backend unavailable")
)
