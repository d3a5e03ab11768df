package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
)

var taxMultiplier = decimal.RequireFromString("1.08")

// OrderTotal is the cart subtotal with 8% tax, rounded to cents.
func OrderTotal(lines []cart.Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	return subtotal.Mul(taxMultiplier).Round(2)
}

type CheckoutService struct {
	Orders *OrderService
	Carts  *cart.Service
	Log    *slog.Logger
}

func NewCheckoutService(orders *OrderService, carts *cart.Service, log *slog.Logger) *CheckoutService {
	return &CheckoutService{Orders: orders, Carts: carts, Log: logger(log)}
}

// Checkout turns the session cart into an order. Invalid input is rejected
// before anything is written; the cart is emptied only after the order,
// its items and its shipping record are all stored.
func (s *CheckoutService) Checkout(ctx context.Context, session string, customer Customer, userID *uuid.UUID) (*CreateOrderResult, error) {
	customer = customer.trimmed()
	if err := customer.validate(); err != nil {
		return nil, err
	}
	if addr, err := mail.ParseAddress(customer.Email); err != nil || addr.Address != customer.Email {
		return nil, fmt.Errorf("%w: email is invalid", ErrValidation)
	}

	var result *CreateOrderResult
	err := s.Carts.Checkout(ctx, session, func(snap cart.Snapshot) error {
		if len(snap.Lines) == 0 {
			return fmt.Errorf("%w: cart is empty", ErrValidation)
		}
		lines := make([]OrderLine, 0, len(snap.Lines))
		for _, l := range snap.Lines {
			lines = append(lines, OrderLine{ProductID: l.Product.ID, Quantity: l.Quantity, UnitPrice: l.Product.Price})
		}
		res, err := s.Orders.CreateOrder(ctx, CreateOrderInput{
			Customer:    customer,
			Lines:       lines,
			TotalAmount: OrderTotal(snap.Lines),
			UserID:      userID,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if errors.Is(err, cart.ErrNoSession) {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if errors.Is(err, cart.ErrNotCleared) && result != nil {
		s.Log.Warn("clear_cart_after_checkout_error", "order_id", result.OrderID.String(), "error", err.Error())
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
