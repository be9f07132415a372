package eventservice

import (
	"context"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
)

// Platform is the chat platform as seen by the service. The gateway owns rendering, so
// roster messages are posted and edited from the record itself.
type Platform interface {
	PostRoster(ctx context.Context, channelID string, rec *eventdomain.EventRecord) (messageID string, err error)
	EditRoster(ctx context.Context, rec *eventdomain.EventRecord) error
	SendDirectMessage(ctx context.Context, userID, text string) error
	SendChannelMessage(ctx context.Context, channelID, text string) error

	CreateCalendarEvent(ctx context.Context, guildID string, ev CalendarEvent) (string, error)
	UpdateCalendarEvent(ctx context.Context, guildID, calendarID string, ev CalendarEvent) error
	CancelCalendarEvent(ctx context.Context, guildID, calendarID string) error
	CalendarEventStatus(ctx context.Context, guildID, calendarID string) (CalendarStatus, error)

	ListChannelMessages(ctx context.Context, channelID string) ([]ChannelMessage, error)
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string) error

	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
}

// CalendarEvent is the external calendar entry mirroring an event.
type CalendarEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Image       string    `json:"image,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// CalendarStatus is the state of an external calendar entry.
type CalendarStatus string

const (
	CalendarScheduled CalendarStatus = "scheduled"
	CalendarActive    CalendarStatus = "active"
	CalendarCompleted CalendarStatus = "completed"
	CalendarCanceled  CalendarStatus = "canceled"
)

// ChannelMessage is a message listed from a channel.
type ChannelMessage struct {
	ID     string `json:"id"`
	Pinned bool   `json:"pinned"`
}

// calendarEntry builds the calendar entry of rec.
func calendarEntry(rec *eventdomain.EventRecord) CalendarEvent {
	ev := CalendarEvent{
		Title:       rec.Title,
		Description: rec.Description,
		Location:    "<#" + rec.ChannelID + ">",
		Image:       eventdomain.KindProfile(rec.Kind).Thumbnail,
	}
	if rec.StartsAt != nil {
		ev.StartsAt = *rec.StartsAt
		ev.EndsAt = rec.EndsAt()
	}
	return ev
}
