package ringbuf

import (
	"sync"
	"testing"
)

func TestPushBelowCapacity(t *testing.T) {
	r := New[int](4)
	r.Push(1)
	r.Push(2)
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	got := r.Recent()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Recent = %v, want [1 2]", got)
	}
}

func TestOverflowEvictsOldest(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.Recent()
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Errorf("Recent = %v, want [3 4 5]", got)
	}
	if r.Len() != 3 || r.Cap() != 3 {
		t.Errorf("len/cap = %d/%d, want 3/3", r.Len(), r.Cap())
	}
}

func TestMinimumCapacity(t *testing.T) {
	r := New[string](0)
	r.Push("a")
	r.Push("b")
	got := r.Recent()
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Recent = %v, want [b]", got)
	}
}

func TestConcurrentPush(t *testing.T) {
	r := New[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Push(i)
				r.Recent()
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("len = %d, want full ring", r.Len())
	}
}
