package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	var userID *uuid.UUID
	if id, ok := middleware.CurrentUser(c); ok {
		userID = &id
	}

	res, err := h.Svc.Checkout(ctx, cartSession(c, false), service.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Address:   req.Address,
		City:      req.City,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
	}, userID)
	if err != nil {
		return failure(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", res.OrderID.String(), "tracking_number", res.TrackingNumber)
	return c.JSON(http.StatusCreated, transport.CheckoutResponse{
		OrderID:        res.OrderID,
		TrackingNumber: res.TrackingNumber,
	})
}
