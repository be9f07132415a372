// Package eventplatform implements the chat platform port over NATS request/reply. The
// gateway process owns the platform session and answers the platform.* subjects.
package eventplatform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"golang.org/x/time/rate"
)

// ErrGateway wraps errors reported by the gateway in a reply.
var ErrGateway = errors.New("gateway error")

// Requester sends a request and waits for one reply.
type Requester interface {
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
}

// Client implements eventservice.Platform.
type Client struct {
	requester Requester
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Config bounds the call rate towards the gateway. Zero values disable the limit.
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// NewClient creates a platform client.
func NewClient(requester Requester, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{requester: requester, limiter: limiter, logger: logger}
}

var _ eventservice.Platform = (*Client)(nil)

// call marshals req, sends it on subject and decodes the reply envelope into out.
func call[T any](ctx context.Context, c *Client, subject string, req any) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%s: %w", subject, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s request: %w", subject, err)
	}
	raw, err := c.requester.Request(ctx, subject, body)
	if err != nil {
		c.logger.WarnContext(ctx, "Platform request failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("subject", subject),
			attr.Error(err),
		)
		return zero, err
	}

	var rep reply[T]
	if err := json.Unmarshal(raw, &rep); err != nil {
		return zero, fmt.Errorf("failed to decode %s reply: %w", subject, err)
	}
	if rep.Error != "" {
		return zero, fmt.Errorf("%w on %s: %s", ErrGateway, subject, rep.Error)
	}
	return rep.Data, nil
}

func (c *Client) PostRoster(ctx context.Context, channelID string, rec *eventdomain.EventRecord) (string, error) {
	out, err := call[postRosterResponse](ctx, c, rosterevents.PlatformPostRoster, postRosterRequest{
		ChannelID: channelID,
		Roster:    rosterevents.NewRosterView(rec),
	})
	if err != nil {
		return "", err
	}
	if out.MessageID == "" {
		return "", fmt.Errorf("%w: roster posted without a message id", ErrGateway)
	}
	return out.MessageID, nil
}

func (c *Client) EditRoster(ctx context.Context, rec *eventdomain.EventRecord) error {
	_, err := call[empty](ctx, c, rosterevents.PlatformEditRoster, postRosterRequest{
		ChannelID: rec.ChannelID,
		Roster:    rosterevents.NewRosterView(rec),
	})
	return err
}

func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	_, err := call[empty](ctx, c, rosterevents.PlatformSendDM, textRequest{UserID: userID, Text: text})
	return err
}

func (c *Client) SendChannelMessage(ctx context.Context, channelID, text string) error {
	_, err := call[empty](ctx, c, rosterevents.PlatformSendChannel, textRequest{ChannelID: channelID, Text: text})
	return err
}

func (c *Client) CreateCalendarEvent(ctx context.Context, guildID string, ev eventservice.CalendarEvent) (string, error) {
	out, err := call[calendarCreateResponse](ctx, c, rosterevents.PlatformCalendarCreate, calendarRequest{GuildID: guildID, Event: &ev})
	if err != nil {
		return "", err
	}
	return out.CalendarID, nil
}

func (c *Client) UpdateCalendarEvent(ctx context.Context, guildID, calendarID string, ev eventservice.CalendarEvent) error {
	_, err := call[empty](ctx, c, rosterevents.PlatformCalendarUpdate, calendarRequest{
		GuildID:    guildID,
		CalendarID: calendarID,
		Event:      &ev,
	})
	return err
}

func (c *Client) CancelCalendarEvent(ctx context.Context, guildID, calendarID string) error {
	_, err := call[empty](ctx, c, rosterevents.PlatformCalendarCancel, calendarRequest{GuildID: guildID, CalendarID: calendarID})
	return err
}

func (c *Client) CalendarEventStatus(ctx context.Context, guildID, calendarID string) (eventservice.CalendarStatus, error) {
	out, err := call[calendarStatusResponse](ctx, c, rosterevents.PlatformCalendarStatus, calendarRequest{GuildID: guildID, CalendarID: calendarID})
	if err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) ListChannelMessages(ctx context.Context, channelID string) ([]eventservice.ChannelMessage, error) {
	out, err := call[listMessagesResponse](ctx, c, rosterevents.PlatformListMessages, channelRequest{ChannelID: channelID})
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := call[empty](ctx, c, rosterevents.PlatformDeleteMessages, channelRequest{ChannelID: channelID, MessageIDs: messageIDs})
	return err
}

func (c *Client) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	out, err := call[memberRolesResponse](ctx, c, rosterevents.PlatformMemberRoles, memberRolesRequest{GuildID: guildID, UserID: userID})
	if err != nil {
		return nil, err
	}
	return out.RoleIDs, nil
}
