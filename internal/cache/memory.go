package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a MemoryStore created with a non-positive limit.
const DefaultMaxEntries = 1000

type memoryItem struct {
	entry      *Entry
	lastAccess time.Time
}

// MemoryStore is an in-process Store that evicts the least recently used entry once full.
type MemoryStore struct {
	mu         sync.RWMutex
	items      map[string]*memoryItem
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		items:      make(map[string]*memoryItem),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	it.lastAccess = m.now()
	return it.entry.clone(), nil
}

func (m *MemoryStore) Touch(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[key]; ok {
		it.entry.Hits++
	}
	return nil
}

func (m *MemoryStore) Put(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[e.Key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked()
	}
	m.items[e.Key] = &memoryItem{entry: e.clone(), lastAccess: m.now()}
	return nil
}

func (m *MemoryStore) evictLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, it := range m.items {
		if oldestKey == "" || it.lastAccess.Before(oldest) {
			oldestKey, oldest = k, it.lastAccess
		}
	}
	delete(m.items, oldestKey)
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStore) Stats(_ context.Context) (StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := StoreStats{Entries: len(m.items)}
	for _, it := range m.items {
		st.TotalHits += it.entry.Hits
		if st.Oldest.IsZero() || it.entry.CreatedAt.Before(st.Oldest) {
			st.Oldest = it.entry.CreatedAt
		}
		if it.entry.CreatedAt.After(st.Newest) {
			st.Newest = it.entry.CreatedAt
		}
	}
	return st, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*memoryItem)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, it := range m.items {
		if it.entry.CreatedAt.Before(olderThan) {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}
