package cart

import (
	"context"
	"sync"
)

// Store persists carts by session id. Load of an unknown session returns an
// empty cart.
type Store interface {
	Load(ctx context.Context, session string) (*Cart, error)
	Save(ctx context.Context, session string, c *Cart) error
	Delete(ctx context.Context, session string) error
}

type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Cart)}
}

func (s *MemoryStore) Load(_ context.Context, session string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.carts[session]
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return &Cart{Lines: lines}, nil
}

func (s *MemoryStore) Save(_ context.Context, session string, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Empty() {
		delete(s.carts, session)
		return nil
	}
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	s.carts[session] = Cart{Lines: lines}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, session)
	return nil
}
