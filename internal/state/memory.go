package state

import (
	"sync"
	"time"

	"github.com/danielpatrickdp/truthjournal/internal/vector"
)

// MemoryStore is an in-process Store used by replay and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

func (m *MemoryStore) LoadBaseline() (Record, bool)   { return m.get(NameBaseline) }
func (m *MemoryStore) LoadLastReport() (Record, bool) { return m.get(NameLastReport) }

func (m *MemoryStore) SaveBaseline(v vector.Truth) error   { return m.put(NameBaseline, v) }
func (m *MemoryStore) SaveLastReport(v vector.Truth) error { return m.put(NameLastReport, v) }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) get(name string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[name]
	return rec, ok
}

func (m *MemoryStore) put(name string, v vector.Truth) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[name] = Record{Vector: v, CapturedAt: m.now().UTC().Truncate(time.Second)}
	return nil
}
