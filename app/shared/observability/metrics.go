package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics records service operation outcomes.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// ReminderMetrics tracks reminder timers.
type ReminderMetrics interface {
	RecordArmed(backend string)
	RecordSkipped(backend string)
	RecordCancelled(backend string)
	RecordFired(backend string)
}

// WizardMetrics tracks creation wizard sessions.
type WizardMetrics interface {
	RecordStarted()
	RecordCompleted(created, occupied int)
	RecordAborted(reason string)
}

type operationMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewOperationMetrics registers the operation instruments on reg.
func NewOperationMetrics(reg prometheus.Registerer) OperationMetrics {
	labels := []string{"service", "operation"}
	m := &operationMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "operation_failure_total",
			Help:      "Service operations that returned an error or panicked.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ServiceName,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, labels),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.duration)
	return m
}

func (m *operationMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m *operationMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(service, operation).Inc()
}

func (m *operationMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(service, operation).Inc()
}

func (m *operationMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

type reminderMetrics struct {
	armed     *prometheus.GaugeVec
	skipped   *prometheus.CounterVec
	cancelled *prometheus.CounterVec
	fired     *prometheus.CounterVec
}

// NewReminderMetrics registers the reminder instruments on reg.
func NewReminderMetrics(reg prometheus.Registerer) ReminderMetrics {
	m := &reminderMetrics{
		armed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "reminders_armed",
			Help:      "Reminders currently waiting to fire.",
		}, []string{"backend"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "reminders_skipped_total",
			Help:      "Reminder requests inside the lead window that were not armed.",
		}, []string{"backend"}),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "reminders_cancelled_total",
			Help:      "Armed reminders cancelled before firing.",
		}, []string{"backend"}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName,
			Name:      "reminders_fired_total",
			Help:      "Reminders delivered.",
		}, []string{"backend"}),
	}
	reg.MustRegister(m.armed, m.skipped, m.cancelled, m.fired)
	return m
}

func (m *reminderMetrics) RecordArmed(backend string) { m.armed.WithLabelValues(backend).Inc() }

func (m *reminderMetrics) RecordSkipped(backend string) { m.skipped.WithLabelValues(backend).Inc() }

func (m *reminderMetrics) RecordCancelled(backend string) {
	m.armed.WithLabelValues(backend).Dec()
	m.cancelled.WithLabelValues(backend).Inc()
}

func (m *reminderMetrics) RecordFired(backend string) {
	m.armed.WithLabelValues(backend).Dec()
	m.fired.WithLabelValues(backend).Inc()
}

type wizardMetrics struct {
	started   prometheus.Counter
	completed prometheus.Counter
	created   prometheus.Counter
	occupied  prometheus.Counter
	aborted   *prometheus.CounterVec
}

// NewWizardMetrics registers the wizard instruments on reg.
func NewWizardMetrics(reg prometheus.Registerer) WizardMetrics {
	m := &wizardMetrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ServiceName, Name: "wizard_sessions_started_total", Help: "Creation wizard sessions started.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ServiceName, Name: "wizard_sessions_completed_total", Help: "Creation wizard sessions that reached publish.",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ServiceName, Name: "wizard_events_created_total", Help: "Events published by the wizard.",
		}),
		occupied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ServiceName, Name: "wizard_slots_occupied_total", Help: "Publish slots skipped because the channel was in use.",
		}),
		aborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ServiceName, Name: "wizard_sessions_aborted_total", Help: "Creation wizard sessions aborted.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.started, m.completed, m.created, m.occupied, m.aborted)
	return m
}

func (m *wizardMetrics) RecordStarted() { m.started.Inc() }

func (m *wizardMetrics) RecordCompleted(created, occupied int) {
	m.completed.Inc()
	m.created.Add(float64(created))
	m.occupied.Add(float64(occupied))
}

func (m *wizardMetrics) RecordAborted(reason string) { m.aborted.WithLabelValues(reason).Inc() }

// NoopOperationMetrics discards operation measurements.
type NoopOperationMetrics struct{}

func (NoopOperationMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoopOperationMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoopOperationMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoopOperationMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}

// NoopReminderMetrics discards reminder measurements.
type NoopReminderMetrics struct{}

func (NoopReminderMetrics) RecordArmed(string)     {}
func (NoopReminderMetrics) RecordSkipped(string)   {}
func (NoopReminderMetrics) RecordCancelled(string) {}
func (NoopReminderMetrics) RecordFired(string)     {}

// NoopWizardMetrics discards wizard measurements.
type NoopWizardMetrics struct{}

func (NoopWizardMetrics) RecordStarted()          {}
func (NoopWizardMetrics) RecordCompleted(int, int) {}
func (NoopWizardMetrics) RecordAborted(string)     {}
