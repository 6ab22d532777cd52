// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache provides a small in-memory TTL cache.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

type entry[V any] struct {
	value      V
	expiration time.Time
}

// Memory is a thread-safe TTL cache keyed by string.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     func() time.Time

	hits, misses, sets, evictions atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemory returns an empty cache. A positive cleanupInterval starts a
// janitor goroutine that removes expired entries; call Stop to end it.
func NewMemory[V any](cleanupInterval time.Duration) *Memory[V] {
	c := &Memory[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

// Get returns the value for key unless it is missing or expired.
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, found := c.entries[key]
	c.mu.RUnlock()

	if !found || !c.now().Before(e.expiration) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiration: c.now().Add(ttl)}
	c.mu.Unlock()
	c.sets.Add(1)
}

// Delete removes key.
func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Memory[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Memory[V]) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: c.Len(),
	}
}

// DeleteExpired removes expired entries and returns how many it removed.
func (c *Memory[V]) DeleteExpired() int {
	now := c.now()

	c.mu.Lock()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expiration) {
			delete(c.entries, k)
			n++
		}
	}
	c.mu.Unlock()

	c.evictions.Add(int64(n))
	return n
}

// Stop ends the janitor, if any, and waits for it. Safe to call repeatedly.
func (c *Memory[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Memory[V]) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
