// SPDX-License-Identifier: MIT

// Package cache holds previously resolved stream URLs for a bounded time.
// All resolver workers share one Store; it is the only mutable state they
// touch concurrently.
package cache

import (
	"sync"
	"time"
)

// Store is a TTL-bounded map from channel key to resolved stream URL.
// Implementations must be safe for concurrent use. Concurrent Sets for the
// same key are last-write-wins.
type Store interface {
	// Get returns the cached URL. An entry older than its TTL counts as
	// absent (lazy expiry).
	Get(key string) (string, bool)
	// Set stores a URL under key for at most ttl.
	Set(key, url string, ttl time.Duration)
	// Delete removes one entry.
	Delete(key string)
	// Stats returns hit/miss counters.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	CurrentSize int
}

type entry struct {
	url        string
	expiration time.Time
}

// memoryStore is the in-memory Store used by default.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	stats   Stats
	now     func() time.Time
}

// NewMemory returns an in-memory Store. A nil clock uses time.Now; tests
// inject a deterministic clock instead of sleeping.
func NewMemory(clock func() time.Time) Store {
	if clock == nil {
		clock = time.Now
	}
	return &memoryStore{
		entries: make(map[string]entry),
		now:     clock,
	}
}

func (s *memoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[key]
	if !found || s.now().After(e.expiration) {
		s.stats.Misses++
		return "", false
	}
	s.stats.Hits++
	return e.url, true
}

func (s *memoryStore) Set(key, url string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{url: url, expiration: s.now().Add(ttl)}
	s.stats.Sets++
}

func (s *memoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *memoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.CurrentSize = len(s.entries)
	return stats
}

// noOpStore disables caching; every Get misses.
type noOpStore struct{}

// NewNoOp returns a Store that never caches.
func NewNoOp() Store {
	return noOpStore{}
}

func (noOpStore) Get(string) (string, bool)         { return "", false }
func (noOpStore) Set(string, string, time.Duration) {}
func (noOpStore) Delete(string)                     {}
func (noOpStore) Stats() Stats                      { return Stats{} }
