package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tracking"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type TrackingHTTP struct {
	Locator *service.Locator
	Tracker *tracking.LiveTracker

	Upgrader websocket.Upgrader
}

type trackingResponse struct {
	Match    service.Match    `json:"match"`
	Order    *models.Order    `json:"order"`
	Shipping *models.Shipping `json:"shipping,omitempty"`
	Timeline []tracking.Step  `json:"timeline"`
}

// Track answers a tracking-number or order-id query. A query that matches
// nothing is a 404, so the client drops whatever it showed before.
func (h *TrackingHTTP) Track(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tracking.get")

	res, err := h.Locator.Locate(ctx, c.Param("query"))
	if err != nil {
		return failure(l, "track_order_error", err)
	}
	if !res.Found() {
		l.Info("track_order_not_found", "status", http.StatusNotFound)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	return c.JSON(http.StatusOK, trackingResponse{
		Match:    res.Match,
		Order:    res.Order,
		Shipping: res.Shipping,
		Timeline: tracking.TimelineFor(*res.Order, res.Shipping),
	})
}

// Live streams tracking snapshots over a websocket until either side goes
// away. The subscription lives exactly as long as the socket.
func (h *TrackingHTTP) Live(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tracking.live")

	res, err := h.Locator.Locate(ctx, c.Param("query"))
	if err != nil {
		return failure(l, "track_live_error", err)
	}
	if !res.Found() {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		l.Warn("track_live_upgrade_failed", "error", err.Error())
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view, err := h.Tracker.Watch(ctx, res.Order.ID)
	if err != nil {
		l.Error("track_live_watch_failed", "order_id", res.Order.ID.String(), "error", err.Error())
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "tracking unavailable"),
			time.Now().Add(wsWriteWait))
		return nil
	}
	defer view.Close()

	// the client sends nothing; reading is only to notice the close
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	l.Info("track_live_started", "order_id", res.Order.ID.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-view.Updates():
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snap); err != nil {
				l.Info("track_live_closed", "error", err.Error())
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}
