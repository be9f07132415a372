package eventwizard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
)

// Ref identifies a wizard session and where its prompts go.
type Ref struct {
	SessionID string
	GuildID   string
	ChannelID string
	UserID    string
}

// Prompter shows a prompt and waits for the answer. It returns eventdomain.ErrTimeout
// when nothing arrives within timeout.
type Prompter interface {
	Ask(ctx context.Context, ref Ref, prompt rosterevents.PromptV1, timeout time.Duration) (Input, error)
}

// Publisher publishes the finished draft.
type Publisher interface {
	PublishDraft(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error)
}

// Config bounds how long each step waits.
type Config struct {
	StepTimeout    time.Duration
	PrefillTimeout time.Duration
}

const (
	defaultStepTimeout    = 120 * time.Second
	defaultPrefillTimeout = 300 * time.Second
)

func (c Config) timeoutFor(step Step) time.Duration {
	if step == StepPrefill {
		if c.PrefillTimeout > 0 {
			return c.PrefillTimeout
		}
		return defaultPrefillTimeout
	}
	if c.StepTimeout > 0 {
		return c.StepTimeout
	}
	return defaultStepTimeout
}

// Session is one run of the wizard.
type Session struct {
	ref       Ref
	machine   *Machine
	prompter  Prompter
	publisher Publisher
	cfg       Config
	clock     clock.Clock
	logger    *slog.Logger
}

// NewSession creates a session for ref.
func NewSession(ref Ref, machine *Machine, prompter Prompter, publisher Publisher, cfg Config, c clock.Clock, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return &Session{
		ref:       ref,
		machine:   machine,
		prompter:  prompter,
		publisher: publisher,
		cfg:       cfg,
		clock:     c,
		logger:    logger.With(attr.SessionID(ref.SessionID), attr.UserID(ref.UserID)),
	}
}

// Run prompts until the draft is ready and publishes it. A timeout, cancellation or
// unknown interaction aborts the session and nothing is stored. Validation errors show
// the same step again with the error attached.
func (s *Session) Run(ctx context.Context) (eventdomain.PublishSummary, error) {
	st := s.machine.Start(s.ref.GuildID, s.ref.UserID)
	var problem string

	for st.Step != StepPublish {
		timeout := s.cfg.timeoutFor(st.Step)
		prompt := Render(st)
		prompt.Error = problem
		prompt.ExpiresAt = s.clock.Now().Add(timeout)

		in, err := s.prompter.Ask(ctx, s.ref, prompt, timeout)
		if err != nil {
			s.logger.InfoContext(ctx, "Wizard step ended without an answer",
				attr.String("step", string(st.Step)),
				attr.Error(err),
			)
			return eventdomain.PublishSummary{}, err
		}

		next, err := s.machine.Advance(st, in)
		if err != nil {
			var ve *eventdomain.ValidationError
			if errors.As(err, &ve) {
				problem = ve.Message
				continue
			}
			return eventdomain.PublishSummary{}, err
		}
		s.logger.DebugContext(ctx, "Wizard advanced",
			attr.String("from", string(st.Step)),
			attr.String("to", string(next.Step)),
		)
		st = next
		problem = ""
	}

	return s.publisher.PublishDraft(ctx, st.Draft, st.Placements)
}

// AbortReason names why a session ended early, for replies and metrics.
func AbortReason(err error) string {
	switch {
	case errors.Is(err, eventdomain.ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, eventdomain.ErrUnknownInteraction):
		return "unknown_interaction"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "shutdown"
	case eventdomain.IsValidation(err):
		return "invalid"
	}
	return "error"
}
