package ids

import (
	"sync"
	"testing"
	"time"
)

func TestGenerator_MonotonicWithinMillisecond(t *testing.T) {
	t.Parallel()

	g := NewGenerator()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	prev := ""
	for i := 0; i < 100; i++ {
		id, err := g.New(now)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if len(id) != 26 {
			t.Fatalf("expected 26 chars, got %d", len(id))
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %q after %q", id, prev)
		}
		prev = id
	}
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	t.Parallel()

	g := NewGenerator()
	const n = 64
	var wg sync.WaitGroup
	out := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := g.New(time.Now().UTC())
			if err != nil {
				t.Errorf("New: %v", err)
				return
			}
			out <- id
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]struct{}, n)
	for id := range out {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
