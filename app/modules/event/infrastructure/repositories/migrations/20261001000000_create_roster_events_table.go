package migrations

import (
	"context"
	"fmt"

	eventdb "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating roster_events table...")
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*eventdb.Event)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create roster_events table: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_roster_events_starts_at ON roster_events(starts_at);
				CREATE INDEX IF NOT EXISTS idx_roster_events_guild_id ON roster_events(guild_id);
			`); err != nil {
				return fmt.Errorf("failed to create roster_events indexes: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping roster_events table...")
		if _, err := db.NewDropTable().Model((*eventdb.Event)(nil)).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop roster_events table: %w", err)
		}
		return nil
	})
}
