package storage

import (
	"fmt"
	"slices"
	"sync"
)

// MemoryStorage is an in-memory storage backend.
type MemoryStorage struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*Record)}
}

// Store saves a copy of r.
func (m *MemoryStorage) Store(r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Series] = copyRecord(r)
	return nil
}

// Load retrieves a copy of the record of series.
func (m *MemoryStorage) Load(series string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[series]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, series)
	}
	return copyRecord(r), nil
}

// List returns the archived series names in order.
func (m *MemoryStorage) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes the record of series.
func (m *MemoryStorage) Delete(series string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, series)
	return nil
}

// Clear removes all data.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*Record)
	return nil
}

// Close closes the storage backend.
func (m *MemoryStorage) Close() error {
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func copyRecord(r *Record) *Record {
	cp := *r
	cp.Data = append([]byte(nil), r.Data...)
	return &cp
}
