package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type OrderHTTP struct {
	Orders *service.OrderService
	Status *service.StatusService
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Orders.ListOrders(ctx, offset, limit)
	if err != nil {
		return failure(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "get_order_error", "id is not a uuid", err)
	}
	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		return failure(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	userID, ok := middleware.CurrentUser(c)
	if !ok {
		l.Warn("my_orders_error", "status", http.StatusUnauthorized)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	orders, err := h.Orders.ListUserOrders(ctx, userID, offset, limit)
	if err != nil {
		return failure(l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": orders})
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order_status")

	id, req, err := statusRequest(c)
	if err != nil {
		return badRequest(l, "update_order_status_error", "invalid request", err)
	}

	order, err := h.Status.UpdateOrderStatus(ctx, id, models.OrderStatus(req.Status), req.Version)
	if err != nil {
		return failure(l, "update_order_status_error", err)
	}
	l.Info("update_order_status_success", "order_id", id.String(), "status_value", req.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateShippingStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_shipping_status")

	id, req, err := statusRequest(c)
	if err != nil {
		return badRequest(l, "update_shipping_status_error", "invalid request", err)
	}

	ship, err := h.Status.UpdateShippingStatus(ctx, id, models.ShippingStatus(req.Status), req.Version)
	if err != nil {
		return failure(l, "update_shipping_status_error", err)
	}
	l.Info("update_shipping_status_success", "order_id", id.String(), "status_value", req.Status)
	return c.JSON(http.StatusOK, ship)
}

func statusRequest(c echo.Context) (uuid.UUID, transport.UpdateStatusRequest, error) {
	var req transport.UpdateStatusRequest
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, req, err
	}
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, req, err
	}
	return id, req, nil
}
