package rosterevents

import (
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
)

// RoleBucketV1 is one role of a rendered roster.
type RoleBucketV1 struct {
	Role     eventdomain.Role     `json:"role"`
	Label    string               `json:"label"`
	Emoji    string               `json:"emoji"`
	Capacity string               `json:"capacity"`
	Players  []eventdomain.Player `json:"players"`
}

// RosterViewV1 is everything the gateway needs to render a roster message.
type RosterViewV1 struct {
	EventKey           string         `json:"event_key,omitempty"`
	GuildID            string         `json:"guild_id"`
	ChannelID          string         `json:"channel_id"`
	MessageID          string         `json:"message_id,omitempty"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	LeaderID           string         `json:"leader_id"`
	Kind               string         `json:"kind"`
	KindLabel          string         `json:"kind_label"`
	Thumbnail          string         `json:"thumbnail"`
	Scope              string         `json:"scope"`
	NotificationRoleID string         `json:"notification_role_id,omitempty"`
	StartsAt           *time.Time     `json:"starts_at,omitempty"`
	EndsAt             *time.Time     `json:"ends_at,omitempty"`
	Buckets            []RoleBucketV1 `json:"buckets"`
}

// NewRosterView flattens rec into the rendering contract.
func NewRosterView(rec *eventdomain.EventRecord) RosterViewV1 {
	profile := eventdomain.KindProfile(rec.Kind)
	v := RosterViewV1{
		EventKey:           rec.Key().String(),
		GuildID:            rec.GuildID,
		ChannelID:          rec.ChannelID,
		MessageID:          rec.MessageID,
		Title:              rec.Title,
		Description:        rec.Description,
		LeaderID:           rec.LeaderID,
		Kind:               string(rec.Kind),
		KindLabel:          profile.Label,
		Thumbnail:          profile.Thumbnail,
		Scope:              string(rec.Scope),
		NotificationRoleID: rec.NotificationRoleID,
		StartsAt:           rec.StartsAt,
	}
	if rec.StartsAt != nil {
		end := rec.EndsAt()
		v.EndsAt = &end
	}
	for _, b := range rec.Roster.Buckets() {
		v.Buckets = append(v.Buckets, RoleBucketV1{
			Role:     b.Role,
			Label:    b.Role.Label(),
			Emoji:    b.Role.Emoji(),
			Capacity: b.Capacity.String(),
			Players:  b.Players,
		})
	}
	return v
}
