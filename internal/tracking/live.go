package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/realtime"
)

// Loader reads the current state of an order. repo.GormRepo satisfies it.
type Loader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error)
}

type Snapshot struct {
	Order    models.Order     `json:"order"`
	Shipping *models.Shipping `json:"shipping,omitempty"`
	Timeline []Step           `json:"timeline"`
}

type LiveTracker struct {
	hub    *realtime.Hub
	loader Loader
	log    *slog.Logger
}

func NewLiveTracker(hub *realtime.Hub, loader Loader, log *slog.Logger) *LiveTracker {
	if log == nil {
		log = slog.Default()
	}
	return &LiveTracker{hub: hub, loader: loader, log: log}
}

// View streams snapshots of one order until closed.
type View struct {
	updates chan Snapshot
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Updates yields the initial snapshot and then one per observed change. It
// is closed when the view stops.
func (v *View) Updates() <-chan Snapshot {
	return v.updates
}

// Close releases both subscriptions and waits for the view to stop.
func (v *View) Close() {
	v.once.Do(func() { close(v.done) })
	<-v.stopped
}

func (t *LiveTracker) load(ctx context.Context, orderID uuid.UUID) (Snapshot, error) {
	order, err := t.loader.GetOrder(ctx, orderID)
	if err != nil {
		return Snapshot{}, err
	}
	ship, err := t.loader.FindShippingByOrderID(ctx, orderID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Order: *order, Shipping: ship, Timeline: TimelineFor(*order, ship)}, nil
}

// Watch loads the order and subscribes to its order and shipping rows. The
// view stops when ctx is done or Close is called.
func (t *LiveTracker) Watch(ctx context.Context, orderID uuid.UUID) (*View, error) {
	orderSub := t.hub.Subscribe(realtime.Filter{Table: realtime.TableOrders, OrderID: orderID})
	shipSub := t.hub.Subscribe(realtime.Filter{Table: realtime.TableShipping, OrderID: orderID})

	first, err := t.load(ctx, orderID)
	if err != nil {
		t.hub.Unsubscribe(orderSub)
		t.hub.Unsubscribe(shipSub)
		return nil, err
	}

	v := &View{
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	v.updates <- first

	go func() {
		defer close(v.stopped)
		defer close(v.updates)
		defer t.hub.Unsubscribe(shipSub)
		defer t.hub.Unsubscribe(orderSub)

		l := t.log.With("order_id", orderID.String())
		last := first
		for {
			var ok bool
			select {
			case <-ctx.Done():
				return
			case <-v.done:
				return
			case _, ok = <-orderSub.C:
			case _, ok = <-shipSub.C:
			}
			if !ok {
				return
			}

			next, err := t.load(ctx, orderID)
			if err != nil {
				l.Warn("live_tracking_reload_failed", "error", err.Error())
				continue
			}
			if sameState(next, last) {
				continue
			}
			select {
			case v.updates <- next:
				last = next
			case <-ctx.Done():
				return
			case <-v.done:
				return
			}
		}
	}()

	return v, nil
}

// sameState compares what a status write can change. Every write bumps the
// row version, so version and status identify a state regardless of how the
// driver renders timestamps.
func sameState(a, b Snapshot) bool {
	if a.Order.Version != b.Order.Version || a.Order.Status != b.Order.Status {
		return false
	}
	if (a.Shipping == nil) != (b.Shipping == nil) {
		return false
	}
	if a.Shipping == nil {
		return true
	}
	return a.Shipping.Version == b.Shipping.Version && a.Shipping.Status == b.Shipping.Status
}
