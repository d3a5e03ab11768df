package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

var trackingPattern = regexp.MustCompile(`^TRK[0-9]{10}$`)

func TestNewTrackingNumber_Format(t *testing.T) {
	t.Parallel()
	for i := 0; i < 50; i++ {
		n, err := NewTrackingNumber()
		require.NoError(t, err)
		assert.Regexp(t, trackingPattern, n)
	}
}

func TestCreateOrder_WritesOrderItemsAndShipping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	events := &recordingPublisher{}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	svc := NewOrderService(r, events, nil)
	svc.Now = func() time.Time { return now }

	userID := uuid.New()
	a, b := uuid.New(), uuid.New()
	res, err := svc.CreateOrder(ctx, CreateOrderInput{
		Customer: Customer{
			FirstName: "  Ada ", LastName: "Lovelace", Email: "ada@example.com",
			Address: "1 St", City: "London", ZipCode: "N1", Country: "UK",
		},
		Lines: []OrderLine{
			{ProductID: a, Quantity: 2, UnitPrice: dec("10.00")},
			{ProductID: b, Quantity: 1, UnitPrice: dec("5.00")},
		},
		TotalAmount: dec("27.00"),
		UserID:      &userID,
	})
	require.NoError(t, err)
	assert.Regexp(t, trackingPattern, res.TrackingNumber)

	order, err := r.GetOrder(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", order.FirstName)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 1, order.Version)
	assert.Equal(t, "27.00", order.TotalAmount.StringFixed(2))
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
	require.Len(t, order.Items, 2)

	ship, err := r.GetShippingByOrderID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.TrackingNumber, ship.TrackingNumber)
	assert.Equal(t, models.ShippingProcessing, ship.Status)
	assert.True(t, ship.EstimatedDelivery.Equal(now.Add(5*24*time.Hour)))
	assert.Nil(t, ship.ShippedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, mykafka.TopicOrderEvents, events.events[0].Topic)
	assert.Equal(t, "order_created", events.events[0].Event["type"])
}

func TestCreateOrder_Validation(t *testing.T) {
	t.Parallel()

	line := OrderLine{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("1.00")}
	noCity := validCustomer()
	noCity.City = "   "

	tests := []struct {
		name string
		in   CreateOrderInput
	}{
		{"missing field", CreateOrderInput{Customer: noCity, Lines: []OrderLine{line}, TotalAmount: dec("1.08")}},
		{"no lines", CreateOrderInput{Customer: validCustomer(), TotalAmount: dec("0")}},
		{"zero quantity", CreateOrderInput{Customer: validCustomer(), Lines: []OrderLine{{ProductID: uuid.New(), Quantity: 0, UnitPrice: dec("1")}}}},
		{"negative price", CreateOrderInput{Customer: validCustomer(), Lines: []OrderLine{{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("-1")}}}},
		{"nil product", CreateOrderInput{Customer: validCustomer(), Lines: []OrderLine{{Quantity: 1, UnitPrice: dec("1")}}}},
		{"negative total", CreateOrderInput{Customer: validCustomer(), Lines: []OrderLine{line}, TotalAmount: dec("-0.01")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := newRepo(t)
			_, err := NewOrderService(r, nil, nil).CreateOrder(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, countRows(t, r, &models.Order{}))
		})
	}
}

// faultyStore fails selected writes of an otherwise real repository.
type faultyStore struct {
	*repo.GormRepo
	shippingErrs   []error
	deleteOrderErr error
	trackingFree   bool
}

func (f *faultyStore) CreateShipping(ctx context.Context, s *models.Shipping) error {
	if len(f.shippingErrs) > 0 {
		err := f.shippingErrs[0]
		f.shippingErrs = f.shippingErrs[1:]
		if err != nil {
			return err
		}
	}
	return f.GormRepo.CreateShipping(ctx, s)
}

func (f *faultyStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if f.deleteOrderErr != nil {
		return f.deleteOrderErr
	}
	return f.GormRepo.DeleteOrder(ctx, id)
}

func (f *faultyStore) TrackingNumberExists(ctx context.Context, n string) (bool, error) {
	if f.trackingFree {
		return false, nil
	}
	return f.GormRepo.TrackingNumberExists(ctx, n)
}

func orderInput() CreateOrderInput {
	return CreateOrderInput{
		Customer: validCustomer(),
		Lines: []OrderLine{
			{ProductID: uuid.New(), Quantity: 2, UnitPrice: dec("10.00")},
			{ProductID: uuid.New(), Quantity: 1, UnitPrice: dec("5.00")},
		},
		TotalAmount: dec("27.00"),
	}
}

func TestCreateOrder_ShippingFailureIsCompensated(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	boom := errors.New("shipping insert failed")
	events := &recordingPublisher{}

	svc := NewOrderService(&faultyStore{GormRepo: r, shippingErrs: []error{boom}}, events, nil)
	_, err := svc.CreateOrder(context.Background(), orderInput())

	require.ErrorIs(t, err, ErrOrderCreation)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, countRows(t, r, &models.Order{}))
	assert.Zero(t, countRows(t, r, &models.OrderItem{}))
	assert.Zero(t, countRows(t, r, &models.Shipping{}))
	assert.Empty(t, events.events)
}

func TestCreateOrder_CompensationFailureIsReported(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	boom := errors.New("shipping insert failed")
	stuck := errors.New("delete order failed")

	svc := NewOrderService(&faultyStore{GormRepo: r, shippingErrs: []error{boom}, deleteOrderErr: stuck}, nil, nil)
	_, err := svc.CreateOrder(context.Background(), orderInput())

	require.ErrorIs(t, err, ErrOrderCreation)
	require.ErrorIs(t, err, stuck)
	assert.EqualValues(t, 1, countRows(t, r, &models.Order{}), "order survives the failed compensation")
	assert.Zero(t, countRows(t, r, &models.OrderItem{}), "items were still compensated")
}

func TestCreateOrder_RetriesTakenTrackingNumber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	first := placeOrder(t, r)

	numbers := []string{first.TrackingNumber, first.TrackingNumber, "TRK0000000042"}
	svc := NewOrderService(r, nil, nil)
	svc.NewTrackingNumber = func() (string, error) {
		n := numbers[0]
		numbers = numbers[1:]
		return n, nil
	}

	res, err := svc.CreateOrder(ctx, orderInput())
	require.NoError(t, err)
	assert.Equal(t, "TRK0000000042", res.TrackingNumber)
}

func TestCreateOrder_RetriesOnDuplicateKey(t *testing.T) {
	t.Parallel()
	r := newRepo(t)

	store := &faultyStore{GormRepo: r, trackingFree: true, shippingErrs: []error{gorm.ErrDuplicatedKey, nil}}
	res, err := NewOrderService(store, nil, nil).CreateOrder(context.Background(), orderInput())
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, r, &models.Shipping{}))
	assert.Regexp(t, trackingPattern, res.TrackingNumber)
}

func TestCreateOrder_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	first := placeOrder(t, r)

	calls := 0
	svc := NewOrderService(r, nil, nil)
	svc.NewTrackingNumber = func() (string, error) {
		calls++
		return first.TrackingNumber, nil
	}

	_, err := svc.CreateOrder(context.Background(), orderInput())
	require.ErrorIs(t, err, ErrOrderCreation)
	assert.Equal(t, maxTrackingAttempts, calls)
	assert.EqualValues(t, 1, countRows(t, r, &models.Order{}))
}

func TestListOrders_IncludesShipping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := newRepo(t)
	svc := NewOrderService(r, nil, nil)

	userID := uuid.New()
	in := orderInput()
	in.UserID = &userID
	mine, err := svc.CreateOrder(ctx, in)
	require.NoError(t, err)
	placeOrder(t, r)

	total, all, err := svc.ListOrders(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	for _, o := range all {
		require.NotNil(t, o.Shipping)
		assert.Equal(t, o.ID, o.Shipping.OrderID)
	}

	own, err := svc.ListUserOrders(ctx, userID, 0, 10)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.OrderID, own[0].ID)
	assert.Equal(t, mine.TrackingNumber, own[0].Shipping.TrackingNumber)

	_, err = svc.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
