package memory

import (
	"context"
	"sync"
)

// Slot keeps the serialized leaderboard in process memory. Used by tests
// and as the fallback when no durable backend is configured.
type Slot struct {
	mu   sync.RWMutex
	data []byte
}

func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *Slot) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make([]byte, len(data))
	copy(s.data, data)
	return nil
}
