package reminderqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/riverqueue/river"
)

// ReminderWorker hands due reminder jobs to a reminder.Notifier.
type ReminderWorker struct {
	river.WorkerDefaults[ReminderJob]
	notifier reminder.Notifier
	logger   *slog.Logger
	metrics  observability.ReminderMetrics
}

// NewReminderWorker creates the worker registered for ReminderJob.
func NewReminderWorker(notifier reminder.Notifier, logger *slog.Logger, metrics observability.ReminderMetrics) *ReminderWorker {
	if metrics == nil {
		metrics = observability.NoopReminderMetrics{}
	}
	return &ReminderWorker{notifier: notifier, logger: logger, metrics: metrics}
}

// Work delivers the reminder. An error makes River retry the job.
func (w *ReminderWorker) Work(ctx context.Context, job *river.Job[ReminderJob]) error {
	w.logger.InfoContext(ctx, "Reminder job due",
		attr.EventKey(job.Args.Key),
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
	)
	if err := w.notifier.Notify(ctx, job.Args.Key); err != nil {
		return fmt.Errorf("reminder %s: %w", job.Args.Key, err)
	}
	w.metrics.RecordFired(BackendRiver)
	return nil
}
