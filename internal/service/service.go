package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/realtime"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrUnauthorized      = errors.New("unauthorized")       // 401
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
	ErrInvalidTransition = errors.New("invalid transition") // 422
	ErrOrderCreation     = errors.New("order creation")     // 500
	ErrStoreRead         = errors.New("store read")         // 500
)

// Store is the data store surface the services work against.
// *repo.GormRepo implements it.
type Store interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error)
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	PatchProduct(ctx context.Context, id uuid.UUID, patch repo.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, version int) (bool, error)

	CreateShipping(ctx context.Context, s *models.Shipping) error
	TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error)
	GetShippingByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipping, error)
	GetShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error)
	FindShippingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipping, error)
	ListShippingByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]models.Shipping, error)
	UpdateShipping(ctx context.Context, s *models.Shipping, version int) (bool, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

var _ Store = (*repo.GormRepo)(nil)

// EventPublisher is satisfied by *mykafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// ChangePublisher is satisfied by *realtime.Hub.
type ChangePublisher interface {
	Publish(c realtime.Change)
}

// publish is best effort: the write it describes has already committed.
func publish(ctx context.Context, pub EventPublisher, log *slog.Logger, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		log.Warn("publish_event_error", "topic", topic, "type", event["type"], "error", err.Error())
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
