package rate

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, capacity int) (*Limiter, *time.Time) {
	t.Helper()
	l, err := New(capacity)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowWithinWindow(t *testing.T) {
	l, now := newTestLimiter(t, 10)

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("vote:1", 3, time.Minute); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	ok, retry := l.Allow("vote:1", 3, time.Minute)
	if ok {
		t.Fatal("fourth hit should be limited")
	}
	if retry != time.Minute {
		t.Fatalf("expected retry after a minute, got %s", retry)
	}

	if ok, _ := l.Allow("vote:2", 3, time.Minute); !ok {
		t.Fatal("keys are limited independently")
	}

	*now = now.Add(time.Minute)
	if ok, _ := l.Allow("vote:1", 3, time.Minute); !ok {
		t.Fatal("window should have reset")
	}
}

func TestAllowDisabled(t *testing.T) {
	l, _ := newTestLimiter(t, 10)
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow("k", 0, time.Minute); !ok {
			t.Fatal("limit 0 disables limiting")
		}
	}
	if l.Len() != 0 {
		t.Fatal("disabled limiter must not track keys")
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	l, _ := newTestLimiter(t, 2)
	l.Allow("a", 1, time.Minute)
	l.Allow("b", 1, time.Minute)
	l.Allow("c", 1, time.Minute)

	if l.Len() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", l.Len())
	}
	// "a" was evicted, so it starts a fresh window.
	if ok, _ := l.Allow("a", 1, time.Minute); !ok {
		t.Fatal("evicted key should start over")
	}
}

func TestAllowConcurrent(t *testing.T) {
	l, _ := newTestLimiter(t, 100)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if ok, _ := l.Allow(fmt.Sprintf("k%d", i%2), 10, time.Minute); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if allowed != 20 {
		t.Fatalf("expected exactly 20 allowed hits, got %d", allowed)
	}
}
