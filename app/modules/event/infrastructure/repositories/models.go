package eventdb

import (
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/uptrace/bun"
)

// Event is the stored form of a published EventRecord. The roster is kept as JSONB.
type Event struct {
	bun.BaseModel      `bun:"table:roster_events,alias:e"`
	ChannelID          string              `bun:"channel_id,pk,notnull,type:varchar(32)"`
	MessageID          string              `bun:"message_id,pk,notnull,type:varchar(32)"`
	GuildID            string              `bun:"guild_id,notnull,type:varchar(32)"`
	Title              string              `bun:"title,notnull"`
	Description        string              `bun:"description,notnull,default:''"`
	DurationSeconds    int64               `bun:"duration_seconds,notnull"`
	LeaderID           string              `bun:"leader_id,notnull,type:varchar(32)"`
	Kind               string              `bun:"kind,notnull,type:varchar(16)"`
	Scope              string              `bun:"scope,notnull,type:varchar(16)"`
	NotificationRoleID string              `bun:"notification_role_id,nullzero,type:varchar(32)"`
	StartsAt           *time.Time          `bun:"starts_at,nullzero"`
	CalendarEventID    string              `bun:"calendar_event_id,nullzero,type:varchar(32)"`
	Roster             *eventdomain.Roster `bun:"roster,type:jsonb,notnull"`
	CreatedAt          time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// FromRecord converts a published record into its row.
func FromRecord(rec *eventdomain.EventRecord) *Event {
	return &Event{
		ChannelID:          rec.ChannelID,
		MessageID:          rec.MessageID,
		GuildID:            rec.GuildID,
		Title:              rec.Title,
		Description:        rec.Description,
		DurationSeconds:    int64(rec.Duration / time.Second),
		LeaderID:           rec.LeaderID,
		Kind:               string(rec.Kind),
		Scope:              string(rec.Scope),
		NotificationRoleID: rec.NotificationRoleID,
		StartsAt:           rec.StartsAt,
		CalendarEventID:    rec.CalendarEventID,
		Roster:             rec.Roster,
	}
}

// ToRecord converts a row back into a published record.
func (e *Event) ToRecord() *eventdomain.EventRecord {
	roster := e.Roster
	if roster == nil {
		roster = eventdomain.NewRoster(eventdomain.EventKind(e.Kind))
	}
	return &eventdomain.EventRecord{
		GuildID:            e.GuildID,
		ChannelID:          e.ChannelID,
		MessageID:          e.MessageID,
		Title:              e.Title,
		Description:        e.Description,
		Duration:           time.Duration(e.DurationSeconds) * time.Second,
		LeaderID:           e.LeaderID,
		Kind:               eventdomain.EventKind(e.Kind),
		Scope:              eventdomain.Scope(e.Scope),
		NotificationRoleID: e.NotificationRoleID,
		StartsAt:           e.StartsAt,
		CalendarEventID:    e.CalendarEventID,
		State:              eventdomain.StatePublished,
		Roster:             roster,
	}
}
