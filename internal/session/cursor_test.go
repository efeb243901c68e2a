package session

import (
	"testing"
	"time"
)

func TestCursorStepsCancel(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	c := NewCursor(start, 5*time.Minute)

	for _, d := range []time.Duration{time.Minute, 30 * time.Minute, 24 * time.Hour} {
		c.StepForward(d)
		c.StepBackward(d)
		if !c.Current().Equal(start) {
			t.Errorf("forward+backward by %s did not cancel: at %s", d, c.Current())
		}
	}
}

func TestCursorDefaultStep(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	c := NewCursor(start, 5*time.Minute)

	c.StepForward(0)
	if want := start.Add(5 * time.Minute); !c.Current().Equal(want) {
		t.Errorf("default forward: at %s, want %s", c.Current(), want)
	}
	c.StepBackward(0)
	if !c.Current().Equal(start) {
		t.Errorf("default backward: at %s, want %s", c.Current(), start)
	}
}

func TestCursorUnbounded(t *testing.T) {
	start := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	c := NewCursor(start, time.Minute)

	// The cursor may leave any data coverage; stepping far back is a
	// pure transition, not an error.
	c.StepBackward(100 * 24 * time.Hour)
	if want := start.Add(-100 * 24 * time.Hour); !c.Current().Equal(want) {
		t.Errorf("at %s, want %s", c.Current(), want)
	}
}

func TestCursorJump(t *testing.T) {
	c := NewCursor(time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), time.Minute)
	target := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	c.JumpTo(target)
	if !c.Current().Equal(target) {
		t.Errorf("jump: at %s, want %s", c.Current(), target)
	}
}
