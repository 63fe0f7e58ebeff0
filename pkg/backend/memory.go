package backend

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. It is used in tests and as an
// embedded store for callers that do not need persistence.
type Memory struct {
	values map[string][]byte
	mu     sync.RWMutex
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
	}
}

func (s *Memory) WriteRange(_ context.Context, key string, off int64, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.values[key]

	end := off + int64(len(p))
	if int64(len(value)) < end {
		grown := make([]byte, end)
		copy(grown, value)
		value = grown
	}

	copy(value[off:end], p)
	s.values[key] = value

	return nil
}

func (s *Memory) ReadRange(_ context.Context, key string, off int64, p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok || off >= int64(len(value)) {
		return 0, nil
	}

	return copy(p, value[off:]), nil
}

// Len returns the current byte length of a value, zero when absent.
func (s *Memory) Len(key string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.values[key]))
}
