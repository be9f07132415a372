// Package testutils starts Postgres and NATS containers and wires the roster-bot
// infrastructure against them.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/eventbus"
	eventmigrations "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/Black-And-White-Club/roster-bot/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// TestEnvironment holds the containers and clients shared by one test package.
type TestEnvironment struct {
	Ctx           context.Context
	Cancel        context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DSN           string
	NatsURL       string
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Obs           observability.Observability
}

// NewTestEnvironment starts both containers, migrates the event schema and connects the
// event bus. Call Cleanup when done.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{Ctx: ctx, Cancel: cancel, Obs: observability.NewNoop()}

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer, env.DSN = pg, dsn

	nc, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to setup nats container: %w", err)
	}
	env.NatsContainer, env.NatsURL = nc, natsURL

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	env.DB = bun.NewDB(sqldb, pgdialect.New())
	if err := runMigrations(ctx, env.DB); err != nil {
		env.Cleanup()
		return nil, err
	}

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
		URL:            natsURL,
		RequestTimeout: 5 * time.Second,
		QueueGroup:     "roster-bot-test",
	}, discard)
	if err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	env.EventBus = bus

	return env, nil
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, eventmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ResetDB empties the event table between tests.
func (env *TestEnvironment) ResetDB(t *testing.T) {
	t.Helper()
	if _, err := env.DB.ExecContext(env.Ctx, "TRUNCATE TABLE roster_events"); err != nil {
		t.Fatalf("failed to truncate roster_events: %v", err)
	}
}

// Cleanup closes every client and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	if env.EventBus != nil {
		_ = env.EventBus.Close()
	}
	if env.DB != nil {
		_ = env.DB.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(ctx)
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(ctx)
	}
	env.Cancel()
}
