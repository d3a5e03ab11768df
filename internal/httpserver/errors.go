package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
	public string
}{
	{service.ErrValidation, http.StatusBadRequest, ""},
	{cart.ErrNoSession, http.StatusBadRequest, "cart is empty"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "invalid username or password"},
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{service.ErrConflict, http.StatusConflict, "resource was changed, reload and retry"},
	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, ""},
	{service.ErrOrderCreation, http.StatusInternalServerError, "could not place the order, please try again"},
	{service.ErrStoreRead, http.StatusServiceUnavailable, "lookup is temporarily unavailable"},
}

// failure logs err under event and turns it into the single message the
// client sees. An empty public message exposes the error text minus its
// sentinel prefix.
func failure(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			status, msg = m.status, m.public
			if msg == "" {
				msg = strings.TrimPrefix(err.Error(), m.err.Error()+": ")
			}
			break
		}
	}

	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "reason", msg, "error", err.Error())
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err.Error())
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	args := []any{"status", http.StatusBadRequest, "reason", reason}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Warn(event, args...)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
