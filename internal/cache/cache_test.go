// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*Cache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](ttl)
	c.now = clock.Now
	c.stats.LastCleanup = clock.now
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Minute)

	c.Set("key1", "value1")
	value, ok := c.Get("key1")
	if !ok || value != "value1" {
		t.Errorf("Get(key1) = %q, %v", value, ok)
	}
	if _, ok := c.Get("key2"); ok {
		t.Error("key2 should not exist")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.TotalKeys != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HitRate() != 50 {
		t.Errorf("HitRate() = %v, want 50", stats.HitRate())
	}
}

func TestCacheExpiration(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(time.Minute)

	c.Set("key1", "value1")
	clock.Advance(59 * time.Second)
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("key1 expired early")
	}
	clock.Advance(2 * time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Fatal("key1 should be expired")
	}
	if got := c.GetStats(); got.Evictions != 1 || got.TotalKeys != 0 {
		t.Errorf("stats after expiry = %+v", got)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(time.Minute)

	c.SetWithTTL("short", "v", time.Second)
	c.Set("long", "v")
	clock.Advance(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("short should be expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long should still be cached")
	}
}

func TestCacheSweepOnSet(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(time.Minute)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	clock.Advance(DefaultCleanupInterval)
	c.Set("fresh", "v")

	stats := c.GetStats()
	if stats.TotalKeys != 1 || stats.Evictions != 5 {
		t.Errorf("stats after sweep = %+v", stats)
	}
	if !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("LastCleanup = %v, want %v", stats.LastCleanup, clock.Now())
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}

	c.Clear()
	stats := c.GetStats()
	if stats.TotalKeys != 0 || stats.Evictions != 3 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			c.Set(key, n)
			c.Get(key)
		}(i)
	}
	wg.Wait()

	if got := c.GetStats().TotalKeys; got != 4 {
		t.Errorf("TotalKeys = %d, want 4", got)
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a := GenerateKey("spotify:track", "4uLU6hMCjMI75M1A2tKUQC")
	b := GenerateKey("spotify:track", "4uLU6hMCjMI75M1A2tKUQC")
	other := GenerateKey("spotify:track", "0VjIjW4GlUZAMYd2vXMi3b")

	if a != b {
		t.Error("same params must give the same key")
	}
	if a == other {
		t.Error("different params must give different keys")
	}
	if !strings.HasPrefix(a, "spotify:track:") {
		t.Errorf("key %q lacks namespace", a)
	}
}
