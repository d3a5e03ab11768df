package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Match string

const (
	MatchTrackingNumber Match = "tracking_number"
	MatchOrderID        Match = "order_id"
	MatchNone           Match = "none"
)

type LocateResult struct {
	Match    Match            `json:"match"`
	Order    *models.Order    `json:"order,omitempty"`
	Shipping *models.Shipping `json:"shipping,omitempty"`
}

func (r LocateResult) Found() bool {
	return r.Match != MatchNone
}

type Locator struct {
	Store Store
	Log   *slog.Logger
}

func NewLocator(store Store, log *slog.Logger) *Locator {
	return &Locator{Store: store, Log: logger(log)}
}

// Locate resolves a customer query, first as a tracking number and then as
// an order id. Nothing matching is a MatchNone result, not an error; errors
// are store failures and wrap ErrStoreRead.
func (s *Locator) Locate(ctx context.Context, query string) (LocateResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return LocateResult{}, fmt.Errorf("%w: query is required", ErrValidation)
	}
	l := s.Log.With("svc", "order.locate", "query", q)

	ship, err := s.Store.GetShippingByTrackingNumber(ctx, q)
	switch {
	case err == nil:
		order, err := s.Store.GetOrder(ctx, ship.OrderID)
		if err == nil {
			return LocateResult{Match: MatchTrackingNumber, Order: order, Shipping: ship}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return LocateResult{}, s.readError(l, "order by tracking number", err)
		}
		l.Warn("locate_orphan_shipping", "order_id", ship.OrderID.String())
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return LocateResult{}, s.readError(l, "shipping by tracking number", err)
	}

	id, ok := parseOrderID(q)
	if !ok {
		return LocateResult{Match: MatchNone}, nil
	}
	order, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LocateResult{Match: MatchNone}, nil
	}
	if err != nil {
		return LocateResult{}, s.readError(l, "order by id", err)
	}
	ship, err = s.Store.FindShippingByOrderID(ctx, id)
	if err != nil {
		return LocateResult{}, s.readError(l, "shipping by order id", err)
	}
	return LocateResult{Match: MatchOrderID, Order: order, Shipping: ship}, nil
}

func (s *Locator) readError(l *slog.Logger, what string, err error) error {
	l.Error("locate_store_error", "lookup", what, "error", err.Error())
	return fmt.Errorf("%w: %s: %w", ErrStoreRead, what, err)
}

// parseOrderID accepts only the canonical 36 character form.
func parseOrderID(q string) (uuid.UUID, bool) {
	if len(q) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(q)
	return id, err == nil
}
