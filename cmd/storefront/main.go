package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/realtime"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tracking"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

func main() {
	cfg := config.Load()
	if err := cfg.Require(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	store := repo.New(db)

	hub := realtime.NewHub(logger, 0)

	// With triggers in place every write reaches the hub through NOTIFY;
	// otherwise the status service announces its own writes.
	var changes service.ChangePublisher = hub
	var listener *realtime.Listener
	if cfg.PGNotify {
		installed, err := realtime.InstallTriggers(ctx, db)
		if err != nil {
			logger.Warn("pg_notify_triggers_failed", "fallback", "local_announce", "error", err.Error())
		}
		if installed {
			listener, err = realtime.NewListener(cfg.DatabaseURL, hub, logger)
			if err != nil {
				log.Fatalf("pg listener: %v", err)
			}
			go listener.Run(ctx)
			changes = nil
		}
	}

	var carts cart.Store = cart.NewMemoryStore()
	var redisStore *cart.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = cart.NewRedisStore(ctx, cfg.RedisURL, cart.DefaultTTL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		carts = redisStore
	}

	var events service.EventPublisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	}

	var searcher service.Searcher
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(ctx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		}, logger)
		if err != nil {
			logger.Warn("search_unavailable", "error", err.Error())
		} else if err := esClient.EnsureIndex(ctx); err != nil {
			logger.Warn("search_index_failed", "error", err.Error())
		} else {
			searcher = esClient
		}
	}

	cartSvc := cart.NewService(carts)
	orders := service.NewOrderService(store, events, logger)
	status := service.NewStatusService(store, events, changes, logger)
	catalog := service.NewCatalogService(store, searcher, events, logger)
	auth := service.NewAuthService(store, cfg.JWTAccessSecret, logger)

	if cfg.AdminUsername != "" {
		if err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Catalog:  &httpserver.CatalogHTTP{Svc: catalog},
		Cart:     &httpserver.CartHTTP{Carts: cartSvc, Catalog: catalog},
		Checkout: &httpserver.CheckoutHTTP{Svc: service.NewCheckoutService(orders, cartSvc, logger)},
		Tracking: &httpserver.TrackingHTTP{
			Locator: service.NewLocator(store, logger),
			Tracker: tracking.NewLiveTracker(hub, store, logger),
		},
		Orders:      &httpserver.OrderHTTP{Orders: orders, Status: status},
		Auth:        &httpserver.AuthHTTP{Svc: auth},
		JWTSecret:   cfg.JWTAccessSecret,
		CSRFEnabled: cfg.CSRFEnabled,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err.Error())
	}
	if listener != nil {
		if err := listener.Close(); err != nil {
			logger.Error("listener_close_error", "error", err.Error())
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err.Error())
		}
	}
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Error("redis_close_error", "error", err.Error())
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err.Error())
	}

	logger.Info("shutdown_complete")
}
