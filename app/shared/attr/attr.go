// Package attr provides slog attribute constructors shared by every module so
// log keys stay consistent across handlers, services and repositories.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type ctxKey string

// CorrelationIDKey is the context key the handler wrapper stores the message correlation id under.
const CorrelationIDKey ctxKey = "correlation_id"

func String(key, value string) slog.Attr              { return slog.String(key, value) }
func Int(key string, value int) slog.Attr             { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr         { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr           { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr             { return slog.Any(key, value) }
func Time(key string, value time.Time) slog.Attr      { return slog.Time(key, value) }
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Error renders err under the "error" key. A nil error is logged as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func EventKey(value string) slog.Attr  { return slog.String("event_key", value) }
func UserID(value string) slog.Attr    { return slog.String("user_id", value) }
func GuildID(value string) slog.Attr   { return slog.String("guild_id", value) }
func SessionID(value string) slog.Attr { return slog.String("session_id", value) }
func Topic(value string) slog.Attr     { return slog.String("topic", value) }

// WithCorrelationID returns a context carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationIDFromContext returns the correlation id stored in ctx, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// ExtractCorrelationID returns the correlation id of ctx as a log attribute.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String(middleware.CorrelationIDMetadataKey, CorrelationIDFromContext(ctx))
}
