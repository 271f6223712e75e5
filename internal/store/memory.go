package store

import (
	"context"
	"sync"

	"github.com/fraction12/wireflow/internal/document"
)

// Memory keeps every saved version in process. States are stored
// serialized so callers never share memory with the store.
type Memory struct {
	mu       sync.Mutex
	versions [][]byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (*document.DocumentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.versions) == 0 {
		return nil, nil
	}
	return decode(m.versions[len(m.versions)-1])
}

func (m *Memory) Save(ctx context.Context, state *document.DocumentState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.versions = append(m.versions, data)
	m.mu.Unlock()
	return nil
}

// Versions returns how many times the document has been saved.
func (m *Memory) Versions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.versions)
}

func (m *Memory) Close() error { return nil }
