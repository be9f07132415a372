package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamConfigs lists the JetStream streams the service publishes into. Gateway calls on
// platform.> use core request/reply and are deliberately not captured.
func StreamConfigs() []jetstream.StreamConfig {
	return []jetstream.StreamConfig{
		{
			Name:      "roster",
			Subjects:  []string{"roster.>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Storage:   jetstream.FileStorage,
		},
		{
			Name:      "gateway",
			Subjects:  []string{"gateway.>"},
			Retention: jetstream.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   jetstream.FileStorage,
		},
	}
}

// InitializeStreams creates or updates every stream in StreamConfigs.
func InitializeStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	for _, cfg := range StreamConfigs() {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			logger.ErrorContext(ctx, "Failed to ensure JetStream stream",
				attr.String("stream", cfg.Name),
				attr.Error(err),
			)
			return fmt.Errorf("failed to ensure stream %s: %w", cfg.Name, err)
		}
		logger.InfoContext(ctx, "JetStream stream ready",
			attr.String("stream", cfg.Name),
			attr.Any("subjects", cfg.Subjects),
		)
	}
	return nil
}
