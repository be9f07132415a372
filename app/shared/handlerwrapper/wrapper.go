// Package handlerwrapper adapts typed domain handlers to Watermill message handlers.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

// CtxKeyReplyTo holds the reply subject of a request-style message.
const CtxKeyReplyTo ctxKey = "reply_to"

// ReplyToMetadataKey is the message metadata key carrying a reply subject.
const ReplyToMetadataKey = "reply_to"

// ErrNilPublisher is returned when a handler produces results but no publisher was configured.
var ErrNilPublisher = errors.New("handlerwrapper: nil publisher")

// Result is one outbound message produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// HandlerFunc is a typed handler over a decoded JSON payload.
type HandlerFunc[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTransformingTyped decodes the message payload into T, runs handler inside a span and
// publishes every returned Result. Malformed payloads are logged and acknowledged so they
// are not redelivered forever; handler errors are returned so Watermill nacks the message.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler HandlerFunc[T],
) message.NoPublishHandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = attr.WithCorrelationID(ctx, middleware.MessageCorrelationID(msg))
		if rt := msg.Metadata.Get(ReplyToMetadataKey); rt != "" {
			ctx = context.WithValue(ctx, CtxKeyReplyTo, rt)
		}

		var span trace.Span
		if tracer != nil {
			ctx, span = tracer.Start(ctx, handlerName, trace.WithAttributes(
				attribute.String("messaging.message_id", msg.UUID),
			))
		} else {
			span = trace.SpanFromContext(ctx)
		}
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable message",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.SetStatus(codes.Error, "undecodable payload")
			return nil
		}

		out, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		for _, r := range out {
			if err := Publish(ctx, publisher, r); err != nil {
				span.RecordError(err)
				return fmt.Errorf("%s: %w", handlerName, err)
			}
		}
		return nil
	}
}

// NewMessage encodes r as a JSON Watermill message carrying the correlation id from ctx.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload for %s: %w", r.Topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	correlationID := attr.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	for k, v := range r.Metadata {
		msg.Metadata.Set(k, v)
	}
	msg.SetContext(ctx)
	return msg, nil
}

// Publish encodes and publishes a single result.
func Publish(ctx context.Context, publisher message.Publisher, r Result) error {
	if publisher == nil {
		return ErrNilPublisher
	}
	msg, err := NewMessage(ctx, r)
	if err != nil {
		return err
	}
	if err := publisher.Publish(r.Topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.Topic, err)
	}
	return nil
}
