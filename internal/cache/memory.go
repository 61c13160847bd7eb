package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// defaultMaxEntries caps the store when no explicit size is given. Entries
// are small JSON blobs, so this keeps worst-case memory in the tens of MB.
const defaultMaxEntries = 4096

// Memory is an in-process Store. Expiry is checked on every read, a periodic
// sweep collects keys that are never read again, and the entry count is
// capped: writes past capacity evict expired entries first, then arbitrary
// ones.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int

	done chan struct{}
	once sync.Once
}

// NewMemory creates an in-memory store with the default size cap and starts
// its sweep loop.
func NewMemory(sweepInterval time.Duration) *Memory {
	return NewMemorySized(sweepInterval, defaultMaxEntries)
}

// NewMemorySized is NewMemory with an explicit entry cap.
func NewMemorySized(sweepInterval time.Duration, maxEntries int) *Memory {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	m := &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced.
		if cur, ok := m.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := time.Now()
	m.mu.Lock()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	return nil
}

// evictLocked frees room for one new entry: expired entries go first, then
// arbitrary live ones. Every cached value is re-derivable from its origin, so
// dropping a live entry only costs a re-fetch.
func (m *Memory) evictLocked(now time.Time) {
	for key, e := range m.entries {
		if len(m.entries) < m.maxEntries {
			return
		}
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
	for key := range m.entries {
		if len(m.entries) < m.maxEntries {
			return
		}
		delete(m.entries, key)
	}
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the sweep loop.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, e := range m.entries {
				if now.After(e.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
