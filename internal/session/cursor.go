package session

import "time"

// Cursor is the playback position of a replay session: a simulated
// timestamp plus a default step size. Every transition is a pure
// function of the previous timestamp — no bound is enforced against
// the data's coverage, since as-of queries outside it simply report
// no data.
type Cursor struct {
	current time.Time
	step    time.Duration
}

// NewCursor creates a cursor positioned at start.
func NewCursor(start time.Time, step time.Duration) Cursor {
	return Cursor{current: start, step: step}
}

// Current returns the cursor's simulated timestamp.
func (c *Cursor) Current() time.Time { return c.current }

// Step returns the default step size.
func (c *Cursor) Step() time.Duration { return c.step }

// StepForward advances the cursor by d, or by the default step when
// d is zero.
func (c *Cursor) StepForward(d time.Duration) {
	if d == 0 {
		d = c.step
	}
	c.current = c.current.Add(d)
}

// StepBackward moves the cursor back by d, or by the default step when
// d is zero.
func (c *Cursor) StepBackward(d time.Duration) {
	if d == 0 {
		d = c.step
	}
	c.current = c.current.Add(-d)
}

// JumpTo moves the cursor to an absolute timestamp.
func (c *Cursor) JumpTo(ts time.Time) {
	c.current = ts
}
