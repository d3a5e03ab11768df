package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

const (
	trackingPrefix       = "TRK"
	trackingDigits       = 10
	maxTrackingAttempts  = 5
	estimatedDeliveryAge = 5 * 24 * time.Hour
)

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
	City      string
	ZipCode   string
	Country   string
}

func (c Customer) trimmed() Customer {
	return Customer{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Address:   strings.TrimSpace(c.Address),
		City:      strings.TrimSpace(c.City),
		ZipCode:   strings.TrimSpace(c.ZipCode),
		Country:   strings.TrimSpace(c.Country),
	}
}

func (c Customer) validate() error {
	fields := []struct{ name, value string }{
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"email", c.Email},
		{"address", c.Address},
		{"city", c.City},
		{"zip_code", c.ZipCode},
		{"country", c.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}
	return nil
}

type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderInput struct {
	Customer    Customer
	Lines       []OrderLine
	TotalAmount decimal.Decimal
	UserID      *uuid.UUID
}

type CreateOrderResult struct {
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
}

// OrderWithShipping is an order as the admin console and customers see it.
// Shipping is nil for orders whose shipping record was never written.
type OrderWithShipping struct {
	models.Order
	Shipping *models.Shipping `json:"shipping,omitempty"`
}

type OrderService struct {
	Store  Store
	Events EventPublisher
	Log    *slog.Logger

	Now               func() time.Time
	NewTrackingNumber func() (string, error)
}

func NewOrderService(store Store, events EventPublisher, log *slog.Logger) *OrderService {
	return &OrderService{Store: store, Events: events, Log: logger(log)}
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OrderService) trackingNumber() (string, error) {
	if s.NewTrackingNumber != nil {
		return s.NewTrackingNumber()
	}
	return NewTrackingNumber()
}

// NewTrackingNumber returns "TRK" followed by ten random digits.
func NewTrackingNumber() (string, error) {
	var b strings.Builder
	b.Grow(len(trackingPrefix) + trackingDigits)
	b.WriteString(trackingPrefix)
	ten := big.NewInt(10)
	for i := 0; i < trackingDigits; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
		}
	}
	return nil
}

// CreateOrder writes the order, its items and its shipping record in that
// order. When a step fails, the steps already done are undone newest first
// and the error wraps ErrOrderCreation.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	customer := in.Customer.trimmed()
	if err := customer.validate(); err != nil {
		return nil, err
	}
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	if in.TotalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: total must be >= 0", ErrValidation)
	}

	l := s.Log.With("svc", "order.create")
	now := s.now()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      in.UserID,
		FirstName:   customer.FirstName,
		LastName:    customer.LastName,
		Email:       customer.Email,
		Address:     customer.Address,
		City:        customer.City,
		ZipCode:     customer.ZipCode,
		Country:     customer.Country,
		TotalAmount: in.TotalAmount.Round(2),
		Status:      models.OrderPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var sg saga
	fail := func(step string, err error) (*CreateOrderResult, error) {
		err = fmt.Errorf("%w: %s: %w", ErrOrderCreation, step, err)
		if cerr := sg.rollback(ctx); cerr != nil {
			l.Error("create_order_compensation_error", "order_id", order.ID.String(), "error", cerr.Error())
			err = errors.Join(err, cerr)
		}
		l.Error("create_order_error", "step", step, "order_id", order.ID.String(), "error", err.Error())
		return nil, err
	}

	if err := s.Store.CreateOrder(ctx, order); err != nil {
		return fail("insert order", err)
	}
	sg.onFailure("order", func(ctx context.Context) error { return s.Store.DeleteOrder(ctx, order.ID) })

	items := make([]models.OrderItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			CreatedAt: now,
		})
	}
	if err := s.Store.CreateOrderItems(ctx, items); err != nil {
		return fail("insert order items", err)
	}
	sg.onFailure("order items", func(ctx context.Context) error { return s.Store.DeleteOrderItems(ctx, order.ID) })

	shipping, err := s.insertShipping(ctx, order.ID, now)
	if err != nil {
		return fail("insert shipping", err)
	}

	l.Info("order_created", "order_id", order.ID.String(), "tracking_number", shipping.TrackingNumber)
	publish(ctx, s.Events, l, mykafka.TopicOrderEvents, order.ID.String(), map[string]any{
		"type":            "order_created",
		"order_id":        order.ID.String(),
		"tracking_number": shipping.TrackingNumber,
		"total_amount":    order.TotalAmount.StringFixed(2),
		"items":           len(items),
	})

	return &CreateOrderResult{OrderID: order.ID, TrackingNumber: shipping.TrackingNumber}, nil
}

// insertShipping retries with a fresh tracking number when the generated one
// is already taken, either seen up front or reported by the unique index.
func (s *OrderService) insertShipping(ctx context.Context, orderID uuid.UUID, now time.Time) (*models.Shipping, error) {
	for attempt := 1; attempt <= maxTrackingAttempts; attempt++ {
		number, err := s.trackingNumber()
		if err != nil {
			return nil, fmt.Errorf("generate tracking number: %w", err)
		}
		taken, err := s.Store.TrackingNumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		shipping := &models.Shipping{
			OrderID:           orderID,
			TrackingNumber:    number,
			Status:            models.ShippingProcessing,
			EstimatedDelivery: now.Add(estimatedDeliveryAge),
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		err = s.Store.CreateShipping(ctx, shipping)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return shipping, nil
	}
	return nil, fmt.Errorf("no unused tracking number after %d attempts", maxTrackingAttempts)
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderWithShipping, error) {
	order, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	ship, err := s.Store.FindShippingByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderWithShipping{Order: *order, Shipping: ship}, nil
}

// ListOrders is the admin listing, newest first.
func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) (int64, []OrderWithShipping, error) {
	total, orders, err := s.Store.ListOrders(ctx, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	out, err := s.withShipping(ctx, orders)
	return total, out, err
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]OrderWithShipping, error) {
	orders, err := s.Store.ListUserOrders(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.withShipping(ctx, orders)
}

func (s *OrderService) withShipping(ctx context.Context, orders []models.Order) ([]OrderWithShipping, error) {
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	byOrder, err := s.Store.ListShippingByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]OrderWithShipping, len(orders))
	for i, o := range orders {
		out[i] = OrderWithShipping{Order: o}
		if ship, ok := byOrder[o.ID]; ok {
			out[i].Shipping = &ship
		}
	}
	return out, nil
}
