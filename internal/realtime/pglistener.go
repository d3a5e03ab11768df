package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const listenerPingInterval = 90 * time.Second

// Listener forwards postgres notifications on NotifyChannel into a Hub.
type Listener struct {
	pl  *pq.Listener
	hub *Hub
	log *slog.Logger
}

func NewListener(dsn string, hub *Hub, log *slog.Logger) (*Listener, error) {
	if log == nil {
		log = slog.Default()
	}
	pl := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("pg_listener_event", "event", int(ev), "error", err.Error())
		}
	})
	if err := pl.Listen(NotifyChannel); err != nil {
		_ = pl.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return &Listener{pl: pl, hub: hub, log: log}, nil
}

// Run blocks until ctx is done, pinging the connection when idle so that a
// silently dropped connection is noticed and re-established by pq.
func (l *Listener) Run(ctx context.Context) {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-l.pl.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; notifications sent meanwhile are lost.
			if n == nil {
				l.log.Info("pg_listener_reconnected")
				continue
			}
			c, err := ParseNotification(n.Extra)
			if err != nil {
				l.log.Warn("pg_notification_invalid", "payload", n.Extra, "error", err.Error())
				continue
			}
			l.hub.Publish(c)
		case <-ticker.C:
			if err := l.pl.Ping(); err != nil {
				l.log.Warn("pg_listener_ping_failed", "error", err.Error())
			}
		}
	}
}

func (l *Listener) Close() error {
	return l.pl.Close()
}

func ParseNotification(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Table == "" {
		return Change{}, fmt.Errorf("notification without table")
	}
	return c, nil
}
