// Package observability builds the logger, tracer and Prometheus registry shared by all modules.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is used as the tracer name and the metrics namespace.
const ServiceName = "roster_bot"

// Config controls logger and metrics construction.
type Config struct {
	Environment string
	LogLevel    string
	Output      io.Writer
}

// Observability bundles the telemetry handles passed into module constructors.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  Metrics
}

// Metrics groups the instrument sets used by the modules.
type Metrics struct {
	Operations OperationMetrics
	Reminders  ReminderMetrics
	Wizard     WizardMetrics
}

// New wires a JSON slog logger, the global otel tracer and a fresh Prometheus registry.
func New(cfg Config) Observability {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger := NewLogger(out, cfg.LogLevel).With(
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   logger,
		Tracer:   otel.Tracer(ServiceName),
		Registry: registry,
		Metrics: Metrics{
			Operations: NewOperationMetrics(registry),
			Reminders:  NewReminderMetrics(registry),
			Wizard:     NewWizardMetrics(registry),
		},
	}
}

// NewNoop returns an Observability that discards logs and records nothing.
func NewNoop() Observability {
	return Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:   otel.Tracer(ServiceName),
		Registry: prometheus.NewRegistry(),
		Metrics: Metrics{
			Operations: NoopOperationMetrics{},
			Reminders:  NoopReminderMetrics{},
			Wizard:     NoopWizardMetrics{},
		},
	}
}

// NewLogger builds a JSON logger at the named level (debug, info, warn, error).
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
