package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/eventbus"
	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	eventapi "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/api"
	eventhandlers "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/handlers"
	eventplatform "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/platform"
	eventdb "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories"
	eventrouter "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/router"
	eventtime "github.com/Black-And-White-Club/roster-bot/app/modules/event/time_utils"
	eventwizard "github.com/Black-And-White-Club/roster-bot/app/modules/event/wizard"
	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	reminderqueue "github.com/Black-And-White-Club/roster-bot/app/modules/reminder/queue"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// RouteGuard installs authentication on a route group.
type RouteGuard interface {
	Protect(r chi.Router)
}

// Module represents the event module.
type Module struct {
	EventService eventservice.Service
	EventRouter  *eventrouter.EventRouter
	Hub          *eventwizard.Hub

	timers     *reminder.TimerScheduler
	queue      *reminderqueue.Service
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewEventModule creates a new instance of the event module. httpRouter and guard may be
// nil, in which case the read API is not mounted.
func NewEventModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	guard RouteGuard,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "event.NewEventModule called")

	initiationRoles, err := parseInitiationRoles(cfg.Signup.InitiationRoles)
	if err != nil {
		return nil, err
	}

	module := &Module{logger: logger}

	repo := eventdb.NewRepository(db)
	platform := eventplatform.NewClient(eventBus, eventplatform.Config{
		RequestsPerSecond: cfg.NATS.PlatformRate,
		Burst:             cfg.NATS.PlatformBurst,
	}, logger)
	notifier := reminder.NewBusNotifier(eventBus)

	var scheduler reminder.Scheduler
	switch cfg.Scheduler.Backend {
	case reminderqueue.BackendRiver:
		queue, err := reminderqueue.NewService(ctx, reminderqueue.Config{
			DSN:  cfg.Postgres.DSN,
			Lead: cfg.Scheduler.ReminderLead,
		}, db, notifier, obs)
		if err != nil {
			return nil, fmt.Errorf("failed to create reminder queue: %w", err)
		}
		module.queue = queue
		scheduler = queue
	case reminder.BackendMemory, "":
		module.timers = reminder.NewTimerScheduler(context.WithoutCancel(ctx), notifier, logger,
			reminder.WithLead(cfg.Scheduler.ReminderLead),
			reminder.WithMetrics(obs.Metrics.Reminders),
		)
		scheduler = module.timers
	default:
		return nil, fmt.Errorf("unknown reminder backend %q", cfg.Scheduler.Backend)
	}

	offset := cfg.Scheduler.SlotOffset()
	service := eventservice.NewEventService(
		repo,
		platform,
		scheduler,
		logger,
		obs.Metrics.Operations,
		tracer,
		db,
		eventservice.WithInitiationRoles(initiationRoles),
		eventservice.WithTimeParser(eventtime.NewParser(slotZone(offset))),
	)

	realClock := clock.RealClock{}
	hub := eventwizard.NewHub(
		eventBus,
		service,
		eventwizard.NewMachine(realClock, offset),
		eventwizard.Config{
			StepTimeout:    cfg.Wizard.StepTimeout,
			PrefillTimeout: cfg.Wizard.PrefillTimeout,
		},
		realClock,
		logger,
		obs.Metrics.Wizard,
	)

	handlers := eventhandlers.NewEventHandlers(service, hub, logger, tracer)

	eventRouter := eventrouter.NewEventRouter(logger, router, eventBus, eventBus, tracer)
	if err := eventRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure event router: %w", err)
	}

	if httpRouter != nil && guard != nil {
		api := eventapi.NewHandler(service, logger, tracer)
		httpRouter.Group(func(r chi.Router) {
			guard.Protect(r)
			api.Routes(r)
		})
	}

	module.EventService = service
	module.EventRouter = eventRouter
	module.Hub = hub
	return module, nil
}

// slotZone is the wall-clock zone leaders type times in. Adding offset to a time in this
// zone yields UTC.
func slotZone(offset time.Duration) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(-offset.Hours())), int(-offset.Seconds()))
}

func parseInitiationRoles(raw map[string]string) (map[eventdomain.EventKind]string, error) {
	out := make(map[eventdomain.EventKind]string, len(raw))
	for k, role := range raw {
		kind, err := eventdomain.ParseEventKind(k)
		if err != nil {
			return nil, fmt.Errorf("invalid signup.initiation_roles: %w", err)
		}
		out[kind] = role
	}
	return out, nil
}

// Run starts the reminder backend, re-arms reminders of upcoming events and blocks until
// ctx ends.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting event module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start reminder queue", attr.Error(err))
			return
		}
	}

	n, err := m.EventService.RearmReminders(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to re-arm reminders", attr.Error(err))
	} else {
		m.logger.InfoContext(ctx, "Reminders re-armed", attr.Int("count", n))
	}

	<-ctx.Done()
	m.logger.Info("Event module goroutine stopped")
}

// HealthCheck reports whether the reminder backend reaches its storage. The in-memory
// backend has nothing to check.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.HealthCheck(ctx)
}

// Close aborts running wizards and stops the reminder backend.
func (m *Module) Close() error {
	m.logger.Info("Stopping event module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.Hub != nil {
		m.Hub.Close()
	}
	if m.timers != nil {
		m.timers.Close()
	}
	if m.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.queue.Stop(ctx); err != nil {
			m.logger.Error("Error stopping reminder queue", attr.Error(err))
			return err
		}
	}

	m.logger.Info("Event module stopped")
	return nil
}
