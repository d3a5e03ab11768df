package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(map[string]any)})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i], _ = e.Event["type"].(string)
	}
	return out
}

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(testutil.NewDB(t))
}

func validCustomer() Customer {
	return Customer{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Address:   "12 St James's Square",
		City:      "London",
		ZipCode:   "SW1Y 4JH",
		Country:   "UK",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, r *repo.GormRepo, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: dec(price), Category: "test"}
	require.NoError(t, r.CreateProduct(context.Background(), &p))
	return p
}

// placeOrder creates an order with one line through the builder.
func placeOrder(t *testing.T, r *repo.GormRepo) *CreateOrderResult {
	t.Helper()
	res, err := NewOrderService(r, nil, nil).CreateOrder(context.Background(), CreateOrderInput{
		Customer:    validCustomer(),
		Lines:       []OrderLine{{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("9.99")}},
		TotalAmount: dec("10.79"),
	})
	require.NoError(t, err)
	return res
}

func countRows(t *testing.T, r *repo.GormRepo, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(model).Count(&n).Error)
	return n
}
