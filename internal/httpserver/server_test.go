package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/realtime"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/tracking"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var testSecret = []byte("handler-test-secret")

type testEnv struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	hub    *realtime.Hub
	status *service.StatusService
}

func newEnv(t *testing.T, csrfEnabled bool) *testEnv {
	t.Helper()
	r := repo.New(testutil.NewDB(t))
	hub := realtime.NewHub(nil, 16)

	orders := service.NewOrderService(r, nil, nil)
	status := service.NewStatusService(r, nil, hub, nil)
	catalog := service.NewCatalogService(r, nil, nil, nil)
	carts := cart.NewService(cart.NewMemoryStore())

	e := echo.New()
	Register(e, &Deps{
		Catalog:     &CatalogHTTP{Svc: catalog},
		Cart:        &CartHTTP{Carts: carts, Catalog: catalog},
		Checkout:    &CheckoutHTTP{Svc: service.NewCheckoutService(orders, carts, nil)},
		Tracking:    &TrackingHTTP{Locator: service.NewLocator(r, nil), Tracker: tracking.NewLiveTracker(hub, r, nil)},
		Orders:      &OrderHTTP{Orders: orders, Status: status},
		Auth:        &AuthHTTP{Svc: service.NewAuthService(r, testSecret, nil)},
		JWTSecret:   testSecret,
		CSRFEnabled: csrfEnabled,
	})
	return &testEnv{e: e, repo: r, hub: hub, status: status}
}

type call struct {
	method  string
	path    string
	body    any
	cookies []*http.Cookie
	bearer  string
	headers map[string]string
}

func (env *testEnv) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func token(t *testing.T, role string, userID uuid.UUID) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(role, userID.String(), time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)
	return tok
}

var checkoutBody = map[string]string{
	"first_name": "Ada",
	"last_name":  "Lovelace",
	"email":      "ada@example.com",
	"address":    "12 St James's Square",
	"city":       "London",
	"zip_code":   "SW1Y 4JH",
	"country":    "UK",
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
