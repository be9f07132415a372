package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	eventmigrations "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories/migrations"
	reminderqueue "github.com/Black-And-White-Club/roster-bot/app/modules/reminder/queue"
	"github.com/Black-And-White-Club/roster-bot/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// schema is the roster-bot database as the migration commands see it.
type schema struct {
	dsn      string
	db       *bun.DB
	migrator *migrate.Migrator
}

func openSchema(ctx context.Context, configPath string) (*schema, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is not configured")
	}
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN))), pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return &schema{
		dsn:      cfg.Postgres.DSN,
		db:       db,
		migrator: migrate.NewMigrator(db, eventmigrations.Migrations),
	}, nil
}

func (s *schema) Close() error { return s.db.Close() }

func (s *schema) Init(ctx context.Context) error {
	if err := s.migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to create migration tables: %w", err)
	}
	return nil
}

// Up applies pending event migrations, then the River schema when river is set.
func (s *schema) Up(ctx context.Context, out io.Writer, river bool) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	group, err := s.migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate event tables: %w", err)
	}
	if group.IsZero() {
		fmt.Fprintln(out, "event tables are up to date")
	} else {
		fmt.Fprintf(out, "event tables migrated to %s\n", group)
	}

	if !river {
		return nil
	}
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open pgx pool: %w", err)
	}
	defer pool.Close()
	if err := reminderqueue.Migrate(ctx, pool); err != nil {
		return err
	}
	fmt.Fprintln(out, "reminder queue tables are up to date")
	return nil
}

func (s *schema) Rollback(ctx context.Context, out io.Writer) error {
	group, err := s.migrator.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back event tables: %w", err)
	}
	if group.IsZero() {
		fmt.Fprintln(out, "nothing to roll back")
		return nil
	}
	fmt.Fprintf(out, "rolled back %s\n", group)
	return nil
}

func (s *schema) Status(ctx context.Context, out io.Writer) error {
	ms, err := s.migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	fmt.Fprintf(out, "applied:   %s\n", ms.Applied())
	fmt.Fprintf(out, "unapplied: %s\n", ms.Unapplied())
	if last := ms.LastGroup(); !last.IsZero() {
		fmt.Fprintf(out, "last group: %s\n", last)
	}
	return nil
}

func (s *schema) CreateSQL(ctx context.Context, out io.Writer, name string) error {
	files, err := s.migrator.CreateSQLMigrations(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create migration files: %w", err)
	}
	for _, mf := range files {
		fmt.Fprintf(out, "created %s (%s)\n", mf.Name, mf.Path)
	}
	return nil
}

// migrationName joins the words of a migration name in bun's file name style.
func migrationName(words []string) (string, error) {
	var parts []string
	for _, w := range words {
		parts = append(parts, strings.Fields(strings.ToLower(w))...)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("a migration name is required")
	}
	return strings.Join(parts, "_"), nil
}
