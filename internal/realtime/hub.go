package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	TableOrders   = "orders"
	TableShipping = "shipping"

	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change is a single row change. OrderID is the order the row belongs to:
// the row id itself for orders, the order_id column for shipping.
type Change struct {
	Table   string    `json:"table"`
	Op      string    `json:"op"`
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
}

// Filter selects changes of one table. A zero OrderID matches every row.
type Filter struct {
	Table   string
	OrderID uuid.UUID
}

func (f Filter) matches(c Change) bool {
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	return f.OrderID == uuid.Nil || f.OrderID == c.OrderID
}

type Subscription struct {
	id     uint64
	filter Filter
	C      <-chan Change
	ch     chan Change
}

type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription
	buffer int
	log    *slog.Logger
}

func NewHub(log *slog.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{subs: make(map[uint64]*Subscription), buffer: buffer, log: log}
}

func (h *Hub) Subscribe(f Filter) *Subscription {
	ch := make(chan Change, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &Subscription{id: h.nextID, filter: f, C: ch, ch: ch}
	h.subs[s.id] = s
	return s
}

// Unsubscribe stops delivery and closes s.C. Calling it twice is harmless.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.ch)
}

// Publish never blocks: a subscriber whose buffer is full misses the change.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if !s.filter.matches(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			h.log.Warn("realtime_change_dropped",
				"table", c.Table,
				"order_id", c.OrderID.String(),
				"subscription", s.id,
			)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
