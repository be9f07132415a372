// Package eventbus connects the service to NATS: Watermill publishers and subscribers over
// JetStream for domain events, and core NATS request/reply for gateway calls.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
)

// ErrNoResponders is returned by Request when nothing listens on the subject.
var ErrNoResponders = errors.New("eventbus: no responders")

// EventBus is the transport handed to module routers and the platform client.
type EventBus interface {
	message.Publisher
	message.Subscriber

	// Request sends payload on subject over core NATS and waits for a single reply.
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
}

// Config holds connection settings.
type Config struct {
	URL string
	// NkeySeed authenticates with a user nkey when set.
	NkeySeed       string
	RequestTimeout time.Duration
	// QueueGroup load-balances subscribers across replicas.
	QueueGroup string
}

type eventBus struct {
	publisher      message.Publisher
	subscriber     message.Subscriber
	conn           *nc.Conn
	js             jetstream.JetStream
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewEventBus connects to NATS, ensures the JetStream streams exist and builds the
// Watermill publisher and subscriber.
func NewEventBus(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := connectOptions(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := nc.Connect(cfg.URL, opts...)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := InitializeStreams(ctx, js, logger); err != nil {
		conn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:               cfg.URL,
			NatsOptions:       opts,
			Marshaler:         marshaler,
			SubjectCalculator: nats.DefaultSubjectCalculator,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:               cfg.URL,
			NatsOptions:       opts,
			Unmarshaler:       marshaler,
			QueueGroupPrefix:  cfg.QueueGroup,
			SubscribersCount:  1,
			AckWaitTimeout:    30 * time.Second,
			SubjectCalculator: nats.DefaultSubjectCalculator,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
				SubscribeOptions: []nc.SubOpt{
					nc.DeliverNew(),
					nc.AckExplicit(),
				},
			},
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	logger.InfoContext(ctx, "Event bus connected", attr.String("nats_url", conn.ConnectedUrlRedacted()))

	return &eventBus{
		publisher:      publisher,
		subscriber:     subscriber,
		conn:           conn,
		js:             js,
		logger:         logger,
		requestTimeout: timeout,
	}, nil
}

func connectOptions(cfg Config) ([]nc.Option, error) {
	opts := []nc.Option{
		nc.Name("roster-bot"),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}
	if cfg.NkeySeed == "" {
		return opts, nil
	}
	kp, err := nkeys.FromSeed([]byte(cfg.NkeySeed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return append(opts, nc.Nkey(pub, kp.Sign)), nil
}

func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	eb.logger.Debug("Publishing messages", attr.Topic(topic), attr.Int("count", len(messages)))
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	eb.logger.InfoContext(ctx, "Subscription started", attr.Topic(topic))
	return ch, nil
}

func (eb *eventBus) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eb.requestTimeout)
		defer cancel()
	}
	reply, err := eb.conn.RequestWithContext(ctx, subject, payload)
	if errors.Is(err, nc.ErrNoResponders) {
		return nil, fmt.Errorf("%w on %s", ErrNoResponders, subject)
	}
	if err != nil {
		return nil, fmt.Errorf("request on %s failed: %w", subject, err)
	}
	return reply.Data, nil
}

// Close closes the Watermill resources and the NATS connection.
func (eb *eventBus) Close() error {
	var errs []error
	if err := eb.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if err := eb.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing subscriber: %w", err))
	}
	if err := eb.conn.Drain(); err != nil && !errors.Is(err, nc.ErrConnectionClosed) {
		errs = append(errs, fmt.Errorf("draining NATS connection: %w", err))
	}
	return errors.Join(errs...)
}
