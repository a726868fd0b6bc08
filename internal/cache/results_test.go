package cache

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(ttl time.Duration, capacity int) (*Cache[string], *time.Time) {
	c := New[string](ttl, capacity)
	now := time.Unix(1700000000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetPut(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, now := newTestCache(time.Minute, 10)

	c.Put("k", "v")
	*now = now.Add(time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	if c.Len() != 0 {
		t.Errorf("stale entry not evicted, Len = %d", c.Len())
	}
}

func TestCache_FIFOEviction(t *testing.T) {
	const capacity = 3
	c, now := newTestCache(time.Hour, capacity)

	for i := 0; i < capacity; i++ {
		c.Put(fmt.Sprintf("k%d", i), "v")
		*now = now.Add(time.Second)
	}

	// Access the oldest entry; FIFO must still evict it, not the
	// least-recently-used one.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("k0 should be present")
	}

	c.Put("k3", "v")

	if _, ok := c.Get("k0"); ok {
		t.Error("first-inserted key should have been evicted")
	}
	for _, key := range []string{"k1", "k2", "k3"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should have survived eviction", key)
		}
	}
	if c.Len() != capacity {
		t.Errorf("Len = %d, want %d", c.Len(), capacity)
	}
}

func TestCache_RePutRefreshes(t *testing.T) {
	c, now := newTestCache(time.Minute, 2)

	c.Put("k", "old")
	*now = now.Add(30 * time.Second)
	c.Put("k", "new")
	*now = now.Add(45 * time.Second)

	got, ok := c.Get("k")
	if !ok || got != "new" {
		t.Fatalf("Get = (%q, %v), want (new, true)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_ZeroCapacityUnbounded(t *testing.T) {
	c, _ := newTestCache(time.Minute, 0)
	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("k%d", i), "v")
	}
	if c.Len() != 100 {
		t.Errorf("Len = %d, want 100", c.Len())
	}
}
