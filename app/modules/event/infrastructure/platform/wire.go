package eventplatform

import (
	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
)

// reply is the envelope every platform subject answers with. A non-empty Error means
// the gateway refused or failed the call.
type reply[T any] struct {
	Error string `json:"error,omitempty"`
	Data  T      `json:"data"`
}

type empty struct{}

type postRosterRequest struct {
	ChannelID string                    `json:"channel_id"`
	Roster    rosterevents.RosterViewV1 `json:"roster"`
}

type postRosterResponse struct {
	MessageID string `json:"message_id"`
}

type textRequest struct {
	UserID    string `json:"user_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Text      string `json:"text"`
}

type calendarRequest struct {
	GuildID    string                      `json:"guild_id"`
	CalendarID string                      `json:"calendar_id,omitempty"`
	Event      *eventservice.CalendarEvent `json:"event,omitempty"`
}

type calendarCreateResponse struct {
	CalendarID string `json:"calendar_id"`
}

type calendarStatusResponse struct {
	Status eventservice.CalendarStatus `json:"status"`
}

type channelRequest struct {
	ChannelID  string   `json:"channel_id"`
	MessageIDs []string `json:"message_ids,omitempty"`
}

type listMessagesResponse struct {
	Messages []eventservice.ChannelMessage `json:"messages"`
}

type memberRolesRequest struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
}

type memberRolesResponse struct {
	RoleIDs []string `json:"role_ids"`
}
