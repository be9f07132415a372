// Package app wires configuration, transport, storage and the modules into one process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/eventbus"
	"github.com/Black-And-White-Club/roster-bot/app/modules/auth"
	"github.com/Black-And-White-Club/roster-bot/app/modules/event"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const queueGroup = "roster-bot"

// App holds the process-wide resources.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router
	HTTPServer    *http.Server
	MetricsServer *http.Server

	AuthModule  *auth.Module
	EventModule *event.Module

	wg sync.WaitGroup
}

// Initialize builds every dependency from cfg. On error the caller still calls Close.
func (app *App) Initialize(ctx context.Context, cfg *config.Config) error {
	app.Config = cfg
	app.Observability = observability.New(observability.Config{
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
	})
	logger := app.Observability.Logger

	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.DB = bun.NewDB(pgdb, pgdialect.New())
	if err := app.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus, err := eventbus.NewEventBus(ctx, eventbus.Config{
		URL:            cfg.NATS.URL,
		NkeySeed:       cfg.NATS.NkeySeed,
		RequestTimeout: cfg.NATS.RequestTimeout,
		QueueGroup:     queueGroup,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eventBus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create Watermill router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	app.Router = router

	httpRouter := chi.NewRouter()
	httpRouter.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	httpRouter.Get("/healthz", app.handleHealth)
	metrics := promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{})
	httpRouter.Handle("/metrics", metrics)
	if addr := cfg.Observability.MetricsAddress; addr != "" && addr != cfg.HTTP.Address {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics)
		app.MetricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}
	app.HTTPRouter = httpRouter

	authModule, err := auth.NewModule(ctx, cfg, app.Observability, httpRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize auth module: %w", err)
	}
	app.AuthModule = authModule

	eventModule, err := event.NewEventModule(ctx, cfg, app.Observability, eventBus, router, httpRouter, authModule, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize event module: %w", err)
	}
	app.EventModule = eventModule

	app.HTTPServer = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.InfoContext(ctx, "Application initialized",
		attr.String("http_address", cfg.HTTP.Address),
		attr.String("reminder_backend", cfg.Scheduler.Backend),
	)
	return nil
}

// Run starts the modules, the message router and the HTTP server, and blocks until ctx is
// cancelled or one of them fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	app.wg.Add(1)
	go app.EventModule.Run(ctx, &app.wg)

	errCh := make(chan error, 3)
	go func() {
		if err := app.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router stopped: %w", err)
		}
	}()
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", app.HTTPServer.Addr))
		if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server stopped: %w", err)
		}
	}()

	if app.MetricsServer != nil {
		go func() {
			if err := app.MetricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server stopped: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
		return nil
	case err := <-errCh:
		return err
	}
}

// Close shuts everything down in reverse order of construction.
func (app *App) Close() error {
	var errs []error

	if app.HTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.HTTPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down HTTP server: %w", err))
		}
		cancel()
	}
	if app.MetricsServer != nil {
		if err := app.MetricsServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing metrics server: %w", err))
		}
	}
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing message router: %w", err))
		}
	}
	if app.EventModule != nil {
		if err := app.EventModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event module: %w", err))
		}
		app.wg.Wait()
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	serveHealth(w, r, app.healthChecks())
}

// healthCheck is one dependency /healthz reports on.
type healthCheck struct {
	name  string
	check func(context.Context) error
}

func (app *App) healthChecks() []healthCheck {
	checks := []healthCheck{{name: "database", check: app.DB.PingContext}}
	if app.EventModule != nil {
		checks = append(checks, healthCheck{name: "reminder queue", check: app.EventModule.HealthCheck})
	}
	return checks
}

func serveHealth(w http.ResponseWriter, r *http.Request, checks []healthCheck) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, c := range checks {
		if err := c.check(ctx); err != nil {
			http.Error(w, c.name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
