package settings

import (
	"context"
	"sync"

	"github.com/teslashibe/rtvi-console/pkg/callconfig"
)

// MemoryStore keeps settings in process memory. Values are cloned on the
// way in and out so callers cannot alias stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*callconfig.CallSettings
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*callconfig.CallSettings)}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, clientID string) (*callconfig.CallSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[keyFor(clientID)].Clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, clientID string, cs *callconfig.CallSettings) error {
	if cs == nil {
		return ErrNilSettings
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[keyFor(clientID)] = cs.Clone()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*callconfig.CallSettings)
	return nil
}
