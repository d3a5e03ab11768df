package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	CartCookie    = "cart_session"
	cartCookieAge = 7 * 24 * time.Hour
)

var quantityTooLarge = fmt.Sprintf("quantity must be at most %d", cart.MaxLineQuantity)

type CartHTTP struct {
	Carts   *cart.Service
	Catalog *service.CatalogService
}

// cartSession returns the session id from the cookie, issuing a new one when
// create is set and the browser has none yet.
func cartSession(c echo.Context, create bool) string {
	if ck, err := c.Cookie(CartCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if !create {
		return ""
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     CartCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cartCookieAge.Seconds()),
	})
	return id
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	snap, err := h.Carts.Snapshot(ctx, cartSession(c, false))
	if err != nil {
		return failure(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if req.ProductID == uuid.Nil {
		return badRequest(l, "add_to_cart_error", "product_id required", nil)
	}
	if req.Quantity > cart.MaxLineQuantity {
		return badRequest(l, "add_to_cart_error", quantityTooLarge, nil)
	}

	product, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return failure(l, "add_to_cart_error", err)
	}

	snap, err := h.Carts.Add(ctx, cartSession(c, true), cart.ProductFrom(*product), req.Quantity)
	if err != nil {
		return failure(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", product.ID.String())
	return c.JSON(http.StatusOK, snap)
}

// UpdateItem sets the quantity of a line; zero or less removes it.
func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "update_cart_error", "id is not a uuid", err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_error", "invalid body", err)
	}
	if req.Quantity > cart.MaxLineQuantity {
		return badRequest(l, "update_cart_error", quantityTooLarge, nil)
	}

	snap, err := h.Carts.UpdateQuantity(ctx, cartSession(c, true), id, req.Quantity)
	if err != nil {
		return failure(l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(l, "remove_from_cart_error", "id is not a uuid", err)
	}

	snap, err := h.Carts.Remove(ctx, cartSession(c, true), id)
	if err != nil {
		return failure(l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if session := cartSession(c, false); session != "" {
		if err := h.Carts.Clear(ctx, session); err != nil {
			return failure(l, "clear_cart_error", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}
