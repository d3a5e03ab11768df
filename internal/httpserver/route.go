package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const (
	CSRFCookie = "_csrf"
	CSRFHeader = "X-CSRF-Token"
)

type Deps struct {
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Tracking *TrackingHTTP
	Orders   *OrderHTTP
	Auth     *AuthHTTP

	JWTSecret   []byte
	CSRFEnabled bool
	// Ready reports whether dependencies can serve traffic.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)

	api := e.Group("/api/v1", authMW.Identify)
	if d.CSRFEnabled {
		api.Use(csrf())
	}

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.ClearCart)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)

	api.POST("/checkout", d.Checkout.Checkout)

	api.GET("/tracking/:query", d.Tracking.Track)
	api.GET("/tracking/:query/live", d.Tracking.Live)

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)

	api.GET("/orders", d.Orders.MyOrders, authMW.RequireAuth)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/orders", d.Orders.ListOrders)
	admin.GET("/orders/:id", d.Orders.GetOrder)
	admin.PATCH("/orders/:id/status", d.Orders.UpdateOrderStatus)
	admin.PATCH("/orders/:id/shipping", d.Orders.UpdateShippingStatus)
}

// csrf guards cookie-authenticated requests. Bearer-token clients cannot be
// driven by a foreign page and skip the check.
func csrf() echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		},
		TokenLookup:    "header:" + CSRFHeader,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
	})
}
