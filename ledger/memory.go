package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps entries for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	max     int
}

func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max}
}

func (m *MemoryStore) Record(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.entries = append(m.entries, &cp)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = m.entries[len(m.entries)-m.max:]
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := 0
	if limit > 0 && len(m.entries) > limit {
		start = len(m.entries) - limit
	}
	out := make([]*Entry, len(m.entries)-start)
	copy(out, m.entries[start:])
	return out, nil
}

func (m *MemoryStore) Run(ctx context.Context, runID string) ([]*Entry, error) {
	all, _ := m.Recent(ctx, 0)
	return filterRun(all, runID), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
