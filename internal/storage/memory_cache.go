// internal/storage/memory_cache.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache is an in-process cache with expiry and least-recently-read eviction
type MemoryCache struct {
	cache      map[string]*cacheEntry
	mutex      sync.RWMutex
	maxSize    int           // max number of entries
	expiration time.Duration // entry lifetime
	now        func() time.Time
}

type cacheEntry struct {
	Value     string
	CreatedAt time.Time
	LastRead  time.Time
}

// NewMemoryCache creates an in-memory cache
func NewMemoryCache(maxSize int, expiration time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}

	if expiration <= 0 {
		expiration = 5 * time.Minute
	}

	return &MemoryCache{
		cache:      make(map[string]*cacheEntry),
		maxSize:    maxSize,
		expiration: expiration,
		now:        time.Now,
	}
}

// Get returns the cached value for key
func (s *MemoryCache) Get(_ context.Context, key string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.cache[key]
	if !exists {
		return "", ErrCacheMiss
	}
	if s.now().Sub(entry.CreatedAt) > s.expiration {
		delete(s.cache, key)
		return "", ErrCacheMiss
	}
	entry.LastRead = s.now()
	return entry.Value, nil
}

// Set stores value under key, evicting the least recently read entries when full
func (s *MemoryCache) Set(_ context.Context, key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	s.cache[key] = &cacheEntry{
		Value:     value,
		CreatedAt: now,
		LastRead:  now,
	}

	if len(s.cache) > s.maxSize {
		// drop 20%, at least one
		s.cleanupLRU(max(1, s.maxSize/5))
	}
	return nil
}

// Delete removes key
func (s *MemoryCache) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	delete(s.cache, key)
	s.mutex.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included
func (s *MemoryCache) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.cache)
}

// Close clears the cache
func (s *MemoryCache) Close() error {
	s.mutex.Lock()
	s.cache = make(map[string]*cacheEntry)
	s.mutex.Unlock()
	return nil
}

// cleanupLRU removes the count least recently read entries; caller holds the lock
func (s *MemoryCache) cleanupLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}

	entries := make([]keyAge, 0, len(s.cache))
	for k, v := range s.cache {
		entries = append(entries, keyAge{k, v.LastRead})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(s.cache, entries[i].key)
	}
}
