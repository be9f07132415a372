package eventservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories"
	eventtime "github.com/Black-And-White-Club/roster-bot/app/modules/event/time_utils"
	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/app/shared/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "EventService"

// EventService implements the Service interface.
type EventService struct {
	repo      eventdb.Repository
	platform  Platform
	reminders reminder.Scheduler
	logger    *slog.Logger
	metrics   observability.OperationMetrics
	tracer    trace.Tracer
	db        *bun.DB

	clock           clock.Clock
	parser          *eventtime.Parser
	initiationRoles map[eventdomain.EventKind]string
	locks           *keyLocks
}

// Option configures an EventService.
type Option func(*EventService)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option { return func(s *EventService) { s.clock = c } }

// WithTimeParser sets the parser used for free-text start times.
func WithTimeParser(p *eventtime.Parser) Option { return func(s *EventService) { s.parser = p } }

// WithInitiationRoles gates signed roles of a kind behind a platform role.
func WithInitiationRoles(roles map[eventdomain.EventKind]string) Option {
	return func(s *EventService) { s.initiationRoles = roles }
}

// NewEventService creates a new EventService.
func NewEventService(
	repo eventdb.Repository,
	platform Platform,
	reminders reminder.Scheduler,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	opts ...Option,
) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &EventService{
		repo:      repo,
		platform:  platform,
		reminders: reminders,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		clock:     clock.RealClock{},
		locks:     newKeyLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = eventtime.NewParser(time.UTC)
	}
	return s
}

var _ Service = (*EventService)(nil)

// GetEvent loads a published event.
func (s *EventService) GetEvent(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	return unwrap(withTelemetry(s, ctx, "GetEvent", key.String(), func(ctx context.Context) (results.OperationResult[*eventdomain.EventRecord, error], error) {
		rec, err := s.loadEvent(ctx, nil, key)
		if err != nil {
			return classify[*eventdomain.EventRecord](err)
		}
		return results.SuccessResult[*eventdomain.EventRecord, error](rec), nil
	}))
}

// loadEvent loads key and maps a missing row or malformed key to ErrNotAnEvent.
func (s *EventService) loadEvent(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	return s.fetchEvent(ctx, db, key, s.repo.Load)
}

// lockEvent loads the event under its row lock. Read-modify-write operations use it
// inside runInTx so concurrent replicas serialize on the row.
func (s *EventService) lockEvent(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	return s.fetchEvent(ctx, db, key, s.repo.LoadForUpdate)
}

func (s *EventService) fetchEvent(
	ctx context.Context,
	db bun.IDB,
	key eventdomain.Key,
	load func(context.Context, bun.IDB, eventdomain.Key) (*eventdomain.EventRecord, error),
) (*eventdomain.EventRecord, error) {
	if _, err := eventdomain.ParseKey(key.String()); err != nil {
		return nil, err
	}
	rec, err := load(ctx, db, key)
	if err != nil {
		if errors.Is(err, eventdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", eventdomain.ErrNotAnEvent, key)
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return rec, nil
}

// notifyLeader sends a DM to the event leader. Failures are logged only.
func (s *EventService) notifyLeader(ctx context.Context, rec *eventdomain.EventRecord, text string) {
	if rec.LeaderID == "" {
		return
	}
	if err := s.platform.SendDirectMessage(ctx, rec.LeaderID, text); err != nil {
		s.logger.WarnContext(ctx, "Failed to notify event leader",
			attr.EventKey(rec.Key().String()),
			attr.UserID(rec.LeaderID),
			attr.Error(err),
		)
	}
}

// refreshRoster re-renders the roster message. Failures are logged only; the stored
// record stays authoritative.
func (s *EventService) refreshRoster(ctx context.Context, rec *eventdomain.EventRecord) {
	if err := s.platform.EditRoster(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh roster message",
			attr.EventKey(rec.Key().String()),
			attr.Error(err),
		)
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *EventService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *EventService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// unwrap turns an operation result into the (value, error) pair returned to callers.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, nil
	}
	return *result.Success, nil
}

// isBusinessFailure reports errors the caller can act on, as opposed to storage or
// transport errors.
func isBusinessFailure(err error) bool {
	return eventdomain.IsValidation(err) ||
		errors.Is(err, eventdomain.ErrNotAnEvent) ||
		errors.Is(err, eventdomain.ErrNotLeader) ||
		errors.Is(err, eventdomain.ErrInvalidTransition) ||
		errors.Is(err, eventdomain.ErrRoleFull)
}

// classify returns business failures as a failure result and everything else as an error.
func classify[S any](err error) (results.OperationResult[S, error], error) {
	if isBusinessFailure(err) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}
