// Package reminder fires a one-shot notification a fixed lead time before an event starts.
//
// There is at most one live reminder per key. Setting a key again cancels the earlier
// reminder first.
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
)

// DefaultLead is how long before the start a reminder fires.
const DefaultLead = 30 * time.Minute

// BackendMemory labels metrics of the in-process scheduler.
const BackendMemory = "memory"

// Scheduler arms and cancels keyed reminders.
type Scheduler interface {
	// Set replaces any reminder for key with one firing lead before startsAt. Starts that
	// are already inside the lead window arm nothing.
	Set(ctx context.Context, key string, startsAt time.Time) error
	// Cancel drops the reminder for key. Unknown keys are ignored.
	Cancel(ctx context.Context, key string) error
}

// Notifier delivers a fired reminder.
type Notifier interface {
	Notify(ctx context.Context, key string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, key string) error

func (f NotifierFunc) Notify(ctx context.Context, key string) error { return f(ctx, key) }

type entry struct {
	timer  clock.Timer
	fireAt time.Time
	gen    uint64
}

// TimerScheduler keeps reminders as in-process timers. Reminders do not survive a restart;
// the service re-arms them from storage at startup.
type TimerScheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64

	clock    clock.Clock
	lead     time.Duration
	notifier Notifier
	logger   *slog.Logger
	metrics  observability.ReminderMetrics
	baseCtx  context.Context
}

// Option configures a TimerScheduler.
type Option func(*TimerScheduler)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option { return func(s *TimerScheduler) { s.clock = c } }

// WithLead replaces DefaultLead.
func WithLead(d time.Duration) Option { return func(s *TimerScheduler) { s.lead = d } }

// WithMetrics records armed, skipped, cancelled and fired reminders.
func WithMetrics(m observability.ReminderMetrics) Option {
	return func(s *TimerScheduler) { s.metrics = m }
}

// NewTimerScheduler returns a scheduler that calls notifier when a reminder fires. ctx is
// the parent of every notification and should live as long as the process.
func NewTimerScheduler(ctx context.Context, notifier Notifier, logger *slog.Logger, opts ...Option) *TimerScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TimerScheduler{
		entries:  make(map[string]*entry),
		clock:    clock.RealClock{},
		lead:     DefaultLead,
		notifier: notifier,
		logger:   logger,
		metrics:  observability.NoopReminderMetrics{},
		baseCtx:  ctx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TimerScheduler) Set(ctx context.Context, key string, startsAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)

	fireAt := startsAt.Add(-s.lead)
	delay := fireAt.Sub(s.clock.Now())
	if delay <= 0 {
		s.metrics.RecordSkipped(BackendMemory)
		s.logger.InfoContext(ctx, "Reminder window already open, not arming",
			attr.EventKey(key),
			attr.Time("starts_at", startsAt),
		)
		return nil
	}

	s.gen++
	gen := s.gen
	s.entries[key] = &entry{
		fireAt: fireAt,
		gen:    gen,
		timer:  s.clock.AfterFunc(delay, func() { s.fire(key, gen) }),
	}
	s.metrics.RecordArmed(BackendMemory)
	s.logger.InfoContext(ctx, "Reminder armed",
		attr.EventKey(key),
		attr.Time("fire_at", fireAt),
		attr.Duration("delay", delay),
	)
	return nil
}

func (s *TimerScheduler) Cancel(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLocked(key) {
		s.logger.InfoContext(ctx, "Reminder cancelled", attr.EventKey(key))
	}
	return nil
}

func (s *TimerScheduler) cancelLocked(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, key)
	s.metrics.RecordCancelled(BackendMemory)
	return true
}

// fire runs on the timer's goroutine. A generation mismatch means the entry was replaced
// after the timer had already started.
func (s *TimerScheduler) fire(key string, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.entries, key)
	s.mu.Unlock()

	s.metrics.RecordFired(BackendMemory)
	if err := s.notifier.Notify(s.baseCtx, key); err != nil {
		s.logger.ErrorContext(s.baseCtx, "Reminder notification failed",
			attr.EventKey(key),
			attr.Error(err),
		)
	}
}

// FireAt returns the pending fire time for key.
func (s *TimerScheduler) FireAt(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.fireAt, true
}

// Len returns the number of armed reminders.
func (s *TimerScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops every pending timer.
func (s *TimerScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
}
