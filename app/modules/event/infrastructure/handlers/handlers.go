package eventhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// Rejection reasons carried by EventRequestRejectedPayloadV1.
const (
	ReasonNotAnEvent        = "not_an_event"
	ReasonNotLeader         = "not_leader"
	ReasonInvalid           = "invalid"
	ReasonInvalidTransition = "invalid_transition"
)

// EventHandlers implements Handlers.
type EventHandlers struct {
	service eventservice.Service
	wizard  Wizard
	logger  *slog.Logger
	tracer  trace.Tracer
	// pick chooses among the not-an-event replies; nil is random.
	pick func(n int) int
}

// Option configures EventHandlers.
type Option func(*EventHandlers)

// WithRejectionPicker fixes the choice of not-an-event reply.
func WithRejectionPicker(pick func(n int) int) Option {
	return func(h *EventHandlers) { h.pick = pick }
}

// NewEventHandlers creates a new EventHandlers instance.
func NewEventHandlers(service eventservice.Service, wizard Wizard, logger *slog.Logger, tracer trace.Tracer, opts ...Option) Handlers {
	h := &EventHandlers{
		service: service,
		wizard:  wizard,
		logger:  logger,
		tracer:  tracer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *EventHandlers) HandleWizardStartRequested(ctx context.Context, payload *rosterevents.WizardStartRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleWizardStartRequested")
	defer span.End()

	id := h.wizard.Start(ctx, payload)
	h.logger.InfoContext(ctx, "Wizard start request handled",
		attr.ExtractCorrelationID(ctx),
		attr.SessionID(id),
		attr.UserID(payload.UserID),
	)
	return nil, nil
}

func (h *EventHandlers) HandleWizardInputSubmitted(ctx context.Context, payload *rosterevents.WizardInputSubmittedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleWizardInputSubmitted")
	defer span.End()

	if err := h.wizard.Deliver(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to deliver wizard input: %w", err)
	}
	return nil, nil
}

func (h *EventHandlers) HandleSignupEligibilityRequested(ctx context.Context, payload *rosterevents.SignupEligibilityRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleSignupEligibilityRequested")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}

	el, err := h.service.CheckEligibility(ctx, eventservice.SignupQuery{
		Key:    key,
		Role:   payload.Role,
		UserID: payload.UserID,
	})
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}

	out := &rosterevents.SignupEligibilityPayloadV1{
		EventKey:    payload.EventKey,
		Role:        payload.Role,
		UserID:      payload.UserID,
		Eligible:    el.Eligible,
		RoleFull:    el.RoleFull,
		NeedsClass:  el.NeedsClass,
		Classes:     el.Classes,
		FlexOptions: el.FlexOptions,
	}
	switch {
	case !el.Eligible:
		out.Message = eventservice.SignupMessage(eventservice.OutcomeIneligible, payload.Role)
	case el.RoleFull:
		out.Message = eventservice.SignupMessage(eventservice.OutcomeReserved, payload.Role)
	}
	return []handlerwrapper.Result{{Topic: replyTopic(ctx, rosterevents.SignupEligibilityV1), Payload: out}}, nil
}

func (h *EventHandlers) HandleSignupRequested(ctx context.Context, payload *rosterevents.SignupRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleSignupRequested")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}

	res, err := h.service.Signup(ctx, eventservice.SignupRequest{
		Key:      key,
		Role:     payload.Role,
		UserID:   payload.UserID,
		UserName: payload.UserName,
		Class:    string(payload.Class),
		Flex:     payload.Flex,
	})
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}

	if res.Landed == eventdomain.RoleAbsent {
		return []handlerwrapper.Result{{
			Topic: replyTopic(ctx, rosterevents.AbsenceCommittedV1),
			Payload: &rosterevents.AbsenceCommittedPayloadV1{
				EventKey: payload.EventKey,
				UserID:   payload.UserID,
				Message:  res.Message,
			},
		}}, nil
	}

	return []handlerwrapper.Result{{
		Topic: replyTopic(ctx, rosterevents.SignupCommittedV1),
		Payload: &rosterevents.SignupCommittedPayloadV1{
			EventKey:  payload.EventKey,
			UserID:    payload.UserID,
			Requested: res.Requested,
			Landed:    res.Landed,
			Outcome:   rosterevents.SignupOutcome(res.Outcome),
			Flex:      res.Player.Flex,
			Message:   res.Message,
		},
	}}, nil
}

func (h *EventHandlers) HandleAbsenceRequested(ctx context.Context, payload *rosterevents.AbsenceRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleAbsenceRequested")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}
	if err := h.service.MarkAbsent(ctx, key, payload.UserID, payload.UserName); err != nil {
		return h.reject(ctx, payload.EventKey, payload.UserID, err)
	}

	return []handlerwrapper.Result{{
		Topic: replyTopic(ctx, rosterevents.AbsenceCommittedV1),
		Payload: &rosterevents.AbsenceCommittedPayloadV1{
			EventKey: payload.EventKey,
			UserID:   payload.UserID,
			Message:  eventservice.SignupMessage(eventservice.OutcomeAccepted, eventdomain.RoleAbsent),
		},
	}}, nil
}

func (h *EventHandlers) HandleEventEditRequested(ctx context.Context, payload *rosterevents.EventEditRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleEventEditRequested")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.RequesterID, err)
	}

	res, err := h.service.EditEvent(ctx, key, payload.RequesterID, eventservice.EditRequest{
		Title:       payload.Title,
		Description: payload.Description,
		Duration:    payload.Duration,
		StartsAt:    payload.StartsAt,
	})
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.RequesterID, err)
	}

	msg := "Event updated."
	if res.ScheduleChanged {
		msg = "Event updated. The calendar entry follows the new schedule."
	}
	return []handlerwrapper.Result{{
		Topic: replyTopic(ctx, rosterevents.EventEditedV1),
		Payload: &rosterevents.EventEditedPayloadV1{
			EventKey:        payload.EventKey,
			RequesterID:     payload.RequesterID,
			ScheduleChanged: res.ScheduleChanged,
			StartsAt:        res.StartsAt,
			Message:         msg,
		},
	}}, nil
}

func (h *EventHandlers) HandleEventDeleteRequested(ctx context.Context, payload *rosterevents.EventDeleteRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleEventDeleteRequested")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.RequesterID, err)
	}

	res, err := h.service.DeleteEvent(ctx, key, payload.RequesterID, payload.Confirmed)
	if err != nil {
		return h.reject(ctx, payload.EventKey, payload.RequesterID, err)
	}

	out := &rosterevents.EventDeleteResultPayloadV1{
		EventKey:    payload.EventKey,
		RequesterID: payload.RequesterID,
		Status:      rosterevents.DeleteStatus(res.Status),
	}
	switch res.Status {
	case eventservice.DeleteConfirmationRequired:
		out.Message = "This event is still scheduled. Deleting it cancels the calendar entry and clears the channel. Confirm to continue."
	default:
		out.Message = "Event deleted."
	}
	return []handlerwrapper.Result{{Topic: replyTopic(ctx, rosterevents.EventDeleteResultV1), Payload: out}}, nil
}

func (h *EventHandlers) HandleReminderDue(ctx context.Context, payload *rosterevents.ReminderDuePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "EventHandlers.HandleReminderDue")
	defer span.End()

	key, err := eventdomain.ParseKey(payload.EventKey)
	if err != nil {
		h.logger.WarnContext(ctx, "Dropping reminder with malformed key",
			attr.EventKey(payload.EventKey),
			attr.Error(err),
		)
		return nil, nil
	}
	if err := h.service.SendReminder(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil, nil
}

// reject answers business failures with EventRequestRejectedV1 and returns any other
// error so the message is redelivered.
func (h *EventHandlers) reject(ctx context.Context, eventKey, userID string, err error) ([]handlerwrapper.Result, error) {
	reason, msg, ok := h.rejection(err)
	if !ok {
		return nil, err
	}
	h.logger.InfoContext(ctx, "Request rejected",
		attr.ExtractCorrelationID(ctx),
		attr.EventKey(eventKey),
		attr.UserID(userID),
		attr.String("reason", reason),
		attr.Error(err),
	)
	return []handlerwrapper.Result{{
		Topic: replyTopic(ctx, rosterevents.EventRequestRejectedV1),
		Payload: &rosterevents.EventRequestRejectedPayloadV1{
			EventKey: eventKey,
			UserID:   userID,
			Reason:   reason,
			Message:  msg,
		},
	}}, nil
}

func (h *EventHandlers) rejection(err error) (reason, msg string, ok bool) {
	var ve *eventdomain.ValidationError
	switch {
	case errors.Is(err, eventdomain.ErrNotAnEvent):
		return ReasonNotAnEvent, eventdomain.RejectionMessage(h.pick), true
	case errors.Is(err, eventdomain.ErrNotLeader):
		return ReasonNotLeader, "Only the event leader can do that.", true
	case errors.Is(err, eventdomain.ErrInvalidTransition):
		return ReasonInvalidTransition, "This event can no longer be changed.", true
	case errors.As(err, &ve):
		return ReasonInvalid, ve.Message, true
	}
	return "", "", false
}

// replyTopic prefers the reply subject of a request-style message.
func replyTopic(ctx context.Context, fallback string) string {
	if rt, ok := ctx.Value(handlerwrapper.CtxKeyReplyTo).(string); ok && rt != "" {
		return rt
	}
	return fallback
}
