package journal

import "time"

// Memory keeps entries in process. Used by replay and tests.
type Memory struct {
	chain   *chain
	entries []Entry
}

// NewMemory returns an empty in-memory journal.
func NewMemory(now func() time.Time) *Memory {
	return &Memory{chain: newChain(now, "")}
}

func (m *Memory) Append(e Entry) (Entry, error) {
	m.chain.mu.Lock()
	defer m.chain.mu.Unlock()
	sealed, err := m.chain.seal(e)
	if err != nil {
		return Entry{}, err
	}
	m.chain.head = sealed.Hash
	m.entries = append(m.entries, sealed)
	return sealed, nil
}

func (m *Memory) List(limit int) ([]Entry, error) {
	m.chain.mu.Lock()
	defer m.chain.mu.Unlock()
	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
