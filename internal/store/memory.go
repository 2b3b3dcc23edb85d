package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	script    string
	html      string
	expiresAt time.Time
}

// MemoryCache is an in-process schemas.ScriptCache with the same expiry rules
// as the Postgres store. It is used when no database is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache. A nil clock uses time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.script, true, nil
}

func (m *MemoryCache) Put(_ context.Context, key, script, sourceHTML string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		script:    script,
		html:      sourceHTML,
		expiresAt: m.now().Add(EntryTTL),
	}
	return nil
}

// PurgeExpired drops expired entries.
func (m *MemoryCache) PurgeExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
