// Package reminderqueue is the durable reminder backend: each reminder is a River job
// scheduled in Postgres, so armed reminders survive restarts.
package reminderqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
)

// BackendRiver labels metrics of the River scheduler.
const BackendRiver = "river"

// QueueName is the River queue reminder jobs run on.
const QueueName = "reminders"

var _ reminder.Scheduler = (*Service)(nil)

// Service schedules reminders as River jobs.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      *bun.DB
	logger  *slog.Logger
	metrics observability.ReminderMetrics
	ops     observability.OperationMetrics
	clock   clock.Clock
	lead    time.Duration
}

// Config configures the River backend.
type Config struct {
	DSN        string
	Lead       time.Duration
	MaxWorkers int
}

// NewService connects a pgx pool, migrates the River schema and builds the client.
// Jobs are worked only after Start.
func NewService(ctx context.Context, cfg Config, db *bun.DB, notifier reminder.Notifier, obs observability.Observability) (*Service, error) {
	logger := obs.Logger.With(attr.String("component", "river_reminders"))

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewReminderWorker(notifier, logger, obs.Metrics.Reminders))

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	lead := cfg.Lead
	if lead <= 0 {
		lead = reminder.DefaultLead
	}

	return &Service{
		client:  client,
		pool:    pool,
		db:      db,
		logger:  logger,
		metrics: obs.Metrics.Reminders,
		ops:     obs.Metrics.Operations,
		clock:   clock.RealClock{},
		lead:    lead,
	}, nil
}

// Migrate applies the River schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to migrate River schema: %w", err)
	}
	return nil
}

// Start begins working due jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Reminder queue started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Reminder queue stopped")
	return nil
}

func (s *Service) Set(ctx context.Context, key string, startsAt time.Time) error {
	start := time.Now()
	s.ops.RecordOperationAttempt(ctx, "set_reminder", BackendRiver)
	defer func() { s.ops.RecordOperationDuration(ctx, "set_reminder", BackendRiver, time.Since(start)) }()

	if _, err := s.cancelJobs(ctx, key); err != nil {
		s.ops.RecordOperationFailure(ctx, "set_reminder", BackendRiver)
		return err
	}

	fireAt := startsAt.Add(-s.lead)
	if !fireAt.After(s.clock.Now()) {
		s.metrics.RecordSkipped(BackendRiver)
		s.ops.RecordOperationSuccess(ctx, "set_reminder", BackendRiver)
		s.logger.InfoContext(ctx, "Reminder window already open, not scheduling",
			attr.EventKey(key),
			attr.Time("starts_at", startsAt),
		)
		return nil
	}

	res, err := s.client.Insert(ctx, ReminderJob{Key: key, FireAt: fireAt.Unix()}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: fireAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.ops.RecordOperationFailure(ctx, "set_reminder", BackendRiver)
		return fmt.Errorf("failed to schedule reminder %s: %w", key, err)
	}

	s.metrics.RecordArmed(BackendRiver)
	s.ops.RecordOperationSuccess(ctx, "set_reminder", BackendRiver)
	s.logger.InfoContext(ctx, "Reminder job scheduled",
		attr.EventKey(key),
		attr.Time("fire_at", fireAt),
		attr.Int64("job_id", res.Job.ID),
	)
	return nil
}

func (s *Service) Cancel(ctx context.Context, key string) error {
	n, err := s.cancelJobs(ctx, key)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Reminder jobs cancelled", attr.EventKey(key), attr.Int("count", n))
	}
	return nil
}

type riverJobRow struct {
	ID          int64      `bun:"id"`
	State       string     `bun:"state"`
	Key         string     `bun:"key"`
	ScheduledAt *time.Time `bun:"scheduled_at"`
}

func (s *Service) pendingJobs(ctx context.Context, key string) ([]riverJobRow, error) {
	var jobs []riverJobRow
	q := s.db.NewSelect().
		Table("river_job").
		Column("id", "state", "scheduled_at").
		ColumnExpr("args->>'key' AS key").
		Where("kind = ?", ReminderJob{}.Kind()).
		Where("state IN (?, ?, ?)", "available", "scheduled", "retryable")
	if key != "" {
		q = q.Where("args->>'key' = ?", key)
	}
	if err := q.Order("scheduled_at ASC").Scan(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to query reminder jobs: %w", err)
	}
	return jobs, nil
}

func (s *Service) cancelJobs(ctx context.Context, key string) (int, error) {
	jobs, err := s.pendingJobs(ctx, key)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel reminder job",
				attr.EventKey(key),
				attr.Int64("job_id", job.ID),
				attr.Error(err),
			)
			continue
		}
		cancelled++
		s.metrics.RecordCancelled(BackendRiver)
	}
	if cancelled != len(jobs) {
		return cancelled, fmt.Errorf("cancelled %d of %d reminder jobs for %s", cancelled, len(jobs), key)
	}
	return cancelled, nil
}

// ScheduledJobs lists every pending reminder job, for diagnostics.
func (s *Service) ScheduledJobs(ctx context.Context) ([]JobInfo, error) {
	jobs, err := s.pendingJobs(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		info := JobInfo{ID: j.ID, Key: j.Key, State: j.State}
		if j.ScheduledAt != nil {
			info.ScheduledAt = j.ScheduledAt.Format(time.RFC3339)
		}
		out = append(out, info)
	}
	return out, nil
}

// HealthCheck verifies River's table is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.db.NewSelect().Table("river_job").ColumnExpr("COUNT(*)").Scan(ctx, &count); err != nil {
		return fmt.Errorf("reminder queue health check failed: %w", err)
	}
	return nil
}
