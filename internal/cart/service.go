package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("cart session is required")

// ErrNotCleared reports that checkout succeeded but the cart could not be
// emptied afterwards. The work done by the checkout stands.
var ErrNotCleared = errors.New("cart not cleared after checkout")

// Service is the cart of every session, backed by a Store. Mutations of one
// session are serialised inside the process.
type Service struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{store: store, locks: make(map[string]*sessionLock)}
}

func (s *Service) lock(session string) func() {
	s.mu.Lock()
	l, ok := s.locks[session]
	if !ok {
		l = &sessionLock{}
		s.locks[session] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, session)
		}
		s.mu.Unlock()
	}
}

func (s *Service) mutate(ctx context.Context, session string, fn func(*Cart)) (Snapshot, error) {
	if session == "" {
		return Snapshot{}, ErrNoSession
	}
	unlock := s.lock(session)
	defer unlock()

	c, err := s.store.Load(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}
	fn(c)
	if err := s.store.Save(ctx, session, c); err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(), nil
}

func (s *Service) Add(ctx context.Context, session string, p Product, quantity int) (Snapshot, error) {
	return s.mutate(ctx, session, func(c *Cart) { c.Add(p, quantity) })
}

func (s *Service) UpdateQuantity(ctx context.Context, session string, productID uuid.UUID, quantity int) (Snapshot, error) {
	return s.mutate(ctx, session, func(c *Cart) { c.UpdateQuantity(productID, quantity) })
}

func (s *Service) Remove(ctx context.Context, session string, productID uuid.UUID) (Snapshot, error) {
	return s.mutate(ctx, session, func(c *Cart) { c.Remove(productID) })
}

func (s *Service) Clear(ctx context.Context, session string) error {
	if session == "" {
		return ErrNoSession
	}
	unlock := s.lock(session)
	defer unlock()
	return s.store.Delete(ctx, session)
}

func (s *Service) Snapshot(ctx context.Context, session string) (Snapshot, error) {
	if session == "" {
		return Snapshot{}, nil
	}
	c, err := s.store.Load(ctx, session)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// Checkout runs fn with the current cart while holding the session lock and
// clears the cart only when fn succeeds. On failure the cart is untouched.
// A clear that fails after fn succeeded is reported as ErrNotCleared.
func (s *Service) Checkout(ctx context.Context, session string, fn func(Snapshot) error) error {
	if session == "" {
		return ErrNoSession
	}
	unlock := s.lock(session)
	defer unlock()

	c, err := s.store.Load(ctx, session)
	if err != nil {
		return err
	}
	if err := fn(c.Snapshot()); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, session); err != nil {
		return fmt.Errorf("%w: %w", ErrNotCleared, err)
	}
	return nil
}
