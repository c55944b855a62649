package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a thread-safe in-memory Cache with per-entry TTL.
// Expired entries are dropped lazily on access and swept opportunistically
// on writes, so memory use tracks the live working set.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	value    any
	deadline time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithDefaultTTL sets the retention applied by Put and by PutTTL calls with
// a non-positive ttl. Zero means entries never expire.
func WithDefaultTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		m.defaultTTL = ttl
	}
}

// NewMemory creates an in-memory TTL cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the live value stored under key.
func (m *Memory) Get(ctx context.Context, key string) (any, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock: the entry may have been replaced.
		if cur, ok := m.entries[key]; ok && cur.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Put stores value under key with the default TTL.
func (m *Memory) Put(ctx context.Context, key string, value any) error {
	return m.PutTTL(ctx, key, value, m.defaultTTL)
}

// PutTTL stores value under key, expiring after ttl.
func (m *Memory) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.deadline = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.sweepLocked()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Evict removes key, reporting whether a live entry was removed.
func (m *Memory) Evict(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	delete(m.entries, key)
	return !entry.expired(m.now()), nil
}

// Clear removes all entries.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, entry := range m.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

// sweepLocked drops expired entries. Caller holds the write lock.
func (m *Memory) sweepLocked() {
	now := m.now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
}
