package eventwizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/Black-And-White-Club/roster-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/roster-bot/app/shared/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Hub runs wizard sessions and carries their prompts and answers over the event bus.
type Hub struct {
	bus       message.Publisher
	publisher Publisher
	machine   *Machine
	cfg       Config
	clock     clock.Clock
	logger    *slog.Logger
	metrics   observability.WizardMetrics

	mu       sync.Mutex
	sessions map[string]*inbox

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// inbox holds at most one unread answer. A newer answer replaces an unread one, so a
// user who clicks twice before the session reads is acted on with their last click.
type inbox struct {
	ref Ref
	mu  sync.Mutex
	ch  chan Input
}

func (b *inbox) put(in Input) (replaced bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.ch:
		replaced = true
	default:
	}
	b.ch <- in
	return replaced
}

// NewHub creates a Hub. Sessions outlive the handler that started them and end on
// Close.
func NewHub(bus message.Publisher, publisher Publisher, machine *Machine, cfg Config, c clock.Clock, logger *slog.Logger, metrics observability.WizardMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.RealClock{}
	}
	if metrics == nil {
		metrics = observability.NoopWizardMetrics{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		bus:       bus,
		publisher: publisher,
		machine:   machine,
		cfg:       cfg,
		clock:     c,
		logger:    logger,
		metrics:   metrics,
		sessions:  make(map[string]*inbox),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start opens a session for the requester and returns its id.
func (h *Hub) Start(ctx context.Context, req *rosterevents.WizardStartRequestedPayloadV1) string {
	ref := Ref{
		SessionID: uuid.NewString(),
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		UserID:    req.UserID,
	}
	h.mu.Lock()
	h.sessions[ref.SessionID] = &inbox{ref: ref, ch: make(chan Input, 1)}
	h.mu.Unlock()

	h.metrics.RecordStarted()
	h.logger.InfoContext(ctx, "Wizard session started",
		attr.SessionID(ref.SessionID),
		attr.UserID(ref.UserID),
		attr.GuildID(ref.GuildID),
	)

	runCtx := attr.WithCorrelationID(h.ctx, attr.CorrelationIDFromContext(ctx))
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.run(runCtx, ref)
	}()
	return ref.SessionID
}

func (h *Hub) run(ctx context.Context, ref Ref) {
	defer h.remove(ref.SessionID)

	session := NewSession(ref, h.machine, h, h.publisher, h.cfg, h.clock, h.logger)
	summary, err := session.Run(ctx)
	if err != nil {
		reason := AbortReason(err)
		h.metrics.RecordAborted(reason)
		h.logger.InfoContext(ctx, "Wizard session aborted",
			attr.SessionID(ref.SessionID),
			attr.String("reason", reason),
			attr.Error(err),
		)
		if errors.Is(err, eventdomain.ErrUnknownInteraction) {
			h.publish(ctx, rosterevents.InteractionUnknownV1, &rosterevents.InteractionUnknownPayloadV1{
				SessionID: ref.SessionID,
				UserID:    ref.UserID,
				Message:   "That interaction was not recognized. The wizard has been closed.",
			})
		}
		h.publish(ctx, rosterevents.WizardAbortedV1, &rosterevents.WizardAbortedPayloadV1{
			SessionID: ref.SessionID,
			UserID:    ref.UserID,
			Reason:    reason,
		})
		return
	}

	h.metrics.RecordCompleted(len(summary.Created), len(summary.Occupied))
	h.publish(ctx, rosterevents.WizardCompletedV1, &rosterevents.WizardCompletedPayloadV1{
		SessionID: ref.SessionID,
		UserID:    ref.UserID,
		Summary:   summary,
	})
}

// Ask publishes the prompt and waits for the next input of the session.
func (h *Hub) Ask(ctx context.Context, ref Ref, prompt rosterevents.PromptV1, timeout time.Duration) (Input, error) {
	box := h.lookup(ref.SessionID)
	if box == nil {
		return nil, eventdomain.ErrUnknownInteraction
	}

	expired := make(chan struct{})
	timer := h.clock.AfterFunc(timeout, func() { close(expired) })
	defer timer.Stop()

	err := handlerwrapper.Publish(ctx, h.bus, handlerwrapper.Result{
		Topic: rosterevents.WizardPromptV1,
		Payload: &rosterevents.WizardPromptPayloadV1{
			SessionID: ref.SessionID,
			GuildID:   ref.GuildID,
			ChannelID: ref.ChannelID,
			UserID:    ref.UserID,
			Prompt:    prompt,
		},
	})
	if err != nil {
		return nil, err
	}

	select {
	case in := <-box.ch:
		return in, nil
	case <-expired:
		return nil, eventdomain.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver routes an answer to its session. Answers for sessions that are gone, or from
// another user, get an unknown-interaction reply.
func (h *Hub) Deliver(ctx context.Context, p *rosterevents.WizardInputSubmittedPayloadV1) error {
	box := h.lookup(p.SessionID)
	if box == nil || box.ref.UserID != p.UserID {
		h.logger.WarnContext(ctx, "Input for unknown wizard session",
			attr.SessionID(p.SessionID),
			attr.UserID(p.UserID),
		)
		return handlerwrapper.Publish(ctx, h.bus, handlerwrapper.Result{
			Topic: rosterevents.InteractionUnknownV1,
			Payload: &rosterevents.InteractionUnknownPayloadV1{
				SessionID: p.SessionID,
				UserID:    p.UserID,
				Message:   "This wizard is no longer active.",
			},
		})
	}

	in, err := DecodeInput(p.Input)
	if err != nil {
		in = undecodable{err: err}
	}
	if box.put(in) {
		h.logger.InfoContext(ctx, "Wizard input replaced an unread answer",
			attr.SessionID(p.SessionID),
			attr.String("input_type", p.Input.Type),
		)
	}
	return nil
}

// undecodable carries a malformed input to the session, which aborts on it.
type undecodable struct{ err error }

func (undecodable) isInput() {}

func (h *Hub) lookup(id string) *inbox {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id]
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Active returns the number of running sessions.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) publish(ctx context.Context, topic string, payload any) {
	if err := handlerwrapper.Publish(ctx, h.bus, handlerwrapper.Result{Topic: topic, Payload: payload}); err != nil {
		h.logger.ErrorContext(ctx, "Failed to publish wizard outcome",
			attr.Topic(topic),
			attr.Error(err),
		)
	}
}

// Close aborts every running session and waits for them to finish.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}
