package eventrouter

import (
	"context"
	"log/slog"

	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	eventhandlers "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/handlers"
	"github.com/Black-And-White-Club/roster-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// EventRouter handles Watermill handler registration for roster events.
type EventRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewEventRouter creates a new EventRouter.
func NewEventRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *EventRouter {
	return &EventRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *EventRouter) Configure(_ context.Context, handlers eventhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Topics lists every inbound topic the router consumes.
func Topics() []string {
	return []string{
		rosterevents.WizardStartRequestedV1,
		rosterevents.WizardInputSubmittedV1,
		rosterevents.SignupEligibilityRequestedV1,
		rosterevents.SignupRequestedV1,
		rosterevents.AbsenceRequestedV1,
		rosterevents.EventEditRequestedV1,
		rosterevents.EventDeleteRequestedV1,
		rosterevents.ReminderDueV1,
	}
}

func (r *EventRouter) registerHandlers(handlers eventhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering event module handlers", slog.Any("topics", Topics()))

	registerHandler(deps, rosterevents.WizardStartRequestedV1, handlers.HandleWizardStartRequested)
	registerHandler(deps, rosterevents.WizardInputSubmittedV1, handlers.HandleWizardInputSubmitted)
	registerHandler(deps, rosterevents.SignupEligibilityRequestedV1, handlers.HandleSignupEligibilityRequested)
	registerHandler(deps, rosterevents.SignupRequestedV1, handlers.HandleSignupRequested)
	registerHandler(deps, rosterevents.AbsenceRequestedV1, handlers.HandleAbsenceRequested)
	registerHandler(deps, rosterevents.EventEditRequestedV1, handlers.HandleEventEditRequested)
	registerHandler(deps, rosterevents.EventDeleteRequestedV1, handlers.HandleEventDeleteRequested)
	registerHandler(deps, rosterevents.ReminderDueV1, handlers.HandleReminderDue)

	r.logger.Info("Event module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "event." + topic

	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTransformingTyped[T](
			handlerName,
			deps.logger,
			deps.tracer,
			deps.publisher,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *EventRouter) Close() error {
	return r.router.Close()
}
