package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/realtime"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

// StatusService moves orders and their shipping records forward. Every
// write is conditional on the version read just before it.
type StatusService struct {
	Store  Store
	Events EventPublisher
	// Changes receives a change per write. Leave nil when database triggers
	// already announce writes.
	Changes ChangePublisher
	Log     *slog.Logger
	Now     func() time.Time
}

func NewStatusService(store Store, events EventPublisher, changes ChangePublisher, log *slog.Logger) *StatusService {
	return &StatusService{Store: store, Events: events, Changes: changes, Log: logger(log)}
}

func (s *StatusService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func checkVersion(expected *int, actual int) error {
	if expected != nil && *expected != actual {
		return fmt.Errorf("%w: version is %d, expected %d", ErrConflict, actual, *expected)
	}
	return nil
}

func (s *StatusService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, expectedVersion *int) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}
	l := s.Log.With("svc", "order.status", "order_id", orderID.String())

	order, err := s.Store.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	if err := checkVersion(expectedVersion, order.Version); err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	ok, err := s.Store.UpdateOrderStatus(ctx, orderID, status, order.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s changed concurrently", ErrConflict, orderID)
	}

	from := order.Status
	order.Status = status
	order.Version++
	order.UpdatedAt = s.now()

	l.Info("order_status_changed", "from", string(from), "to", string(status))
	publish(ctx, s.Events, l, mykafka.TopicOrderEvents, orderID.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": orderID.String(),
		"from":     string(from),
		"to":       string(status),
		"version":  order.Version,
	})
	s.announce(realtime.TableOrders, order.ID, order.ID)
	return order, nil
}

// UpdateShippingStatus stamps shipped_at on the move to shipped and
// delivered_at on the move to delivered, each only once.
func (s *StatusService) UpdateShippingStatus(ctx context.Context, orderID uuid.UUID, status models.ShippingStatus, expectedVersion *int) (*models.Shipping, error) {
	if !status.Settable() {
		return nil, fmt.Errorf("%w: unknown shipping status %q", ErrValidation, status)
	}
	l := s.Log.With("svc", "shipping.status", "order_id", orderID.String())

	ship, err := s.Store.GetShippingByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shipping for order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	if err := checkVersion(expectedVersion, ship.Version); err != nil {
		return nil, err
	}
	if ship.Status == status {
		return ship, nil
	}
	if !ship.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: shipping %s -> %s", ErrInvalidTransition, ship.Status, status)
	}

	from := ship.Status
	now := s.now()
	ship.Status = status
	switch status {
	case models.ShippingShipped:
		if ship.ShippedAt == nil {
			ship.ShippedAt = &now
		}
	case models.ShippingDelivered:
		if ship.DeliveredAt == nil {
			ship.DeliveredAt = &now
		}
	}

	ok, err := s.Store.UpdateShipping(ctx, ship, ship.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: shipping of order %s changed concurrently", ErrConflict, orderID)
	}
	ship.Version++
	ship.UpdatedAt = now

	l.Info("shipping_status_changed", "from", string(from), "to", string(status))
	publish(ctx, s.Events, l, mykafka.TopicOrderEvents, orderID.String(), map[string]any{
		"type":            "shipping_status_changed",
		"order_id":        orderID.String(),
		"tracking_number": ship.TrackingNumber,
		"from":            string(from),
		"to":              string(status),
		"version":         ship.Version,
	})
	s.announce(realtime.TableShipping, ship.ID, orderID)
	return ship, nil
}

func (s *StatusService) announce(table string, id, orderID uuid.UUID) {
	if s.Changes == nil {
		return
	}
	s.Changes.Publish(realtime.Change{Table: table, Op: realtime.OpUpdate, ID: id, OrderID: orderID})
}
