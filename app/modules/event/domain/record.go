package eventdomain

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle position of an EventRecord.
type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
	StateDeleted   State = "deleted"
)

// ClosedMarker prefixes the title of Private events.
const ClosedMarker = "🔒"

// Key identifies a published event by the channel and message holding its roster.
type Key string

// NewKey builds the key of the roster message messageID in channelID.
func NewKey(channelID, messageID string) Key {
	return Key(channelID + ":" + messageID)
}

// ParseKey validates and splits s.
func ParseKey(s string) (Key, error) {
	ch, msg, ok := strings.Cut(s, ":")
	if !ok || ch == "" || msg == "" || strings.Contains(msg, ":") {
		return "", fmt.Errorf("%w: malformed key %q", ErrNotAnEvent, s)
	}
	return Key(s), nil
}

// ChannelID returns the channel part of the key.
func (k Key) ChannelID() string {
	ch, _, _ := strings.Cut(string(k), ":")
	return ch
}

// MessageID returns the message part of the key.
func (k Key) MessageID() string {
	_, msg, _ := strings.Cut(string(k), ":")
	return msg
}

func (k Key) String() string { return string(k) }

// EventRecord is a scheduled event with its roster.
type EventRecord struct {
	GuildID            string
	ChannelID          string
	MessageID          string
	Title              string
	Description        string
	Duration           time.Duration
	LeaderID           string
	Kind               EventKind
	Scope              Scope
	NotificationRoleID string
	StartsAt           *time.Time
	CalendarEventID    string
	State              State
	Roster             *Roster
}

// NewDraft starts an event of kind owned by leaderID.
func NewDraft(guildID, leaderID string, kind EventKind) *EventRecord {
	return &EventRecord{
		GuildID:  guildID,
		LeaderID: leaderID,
		Kind:     kind,
		Scope:    ScopePublic,
		State:    StateDraft,
		Roster:   NewRoster(kind),
	}
}

// Key returns the identity of a published event. Drafts have none.
func (e *EventRecord) Key() Key {
	if e.ChannelID == "" || e.MessageID == "" {
		return ""
	}
	return NewKey(e.ChannelID, e.MessageID)
}

// IsLeader reports whether userID owns the event.
func (e *EventRecord) IsLeader(userID string) bool {
	return userID != "" && e.LeaderID == userID
}

// EndsAt returns the scheduled end, or the zero time when no start is set.
func (e *EventRecord) EndsAt() time.Time {
	if e.StartsAt == nil {
		return time.Time{}
	}
	return e.StartsAt.Add(e.Duration)
}

// MarkClosed prefixes the title with ClosedMarker once.
func (e *EventRecord) MarkClosed() {
	if !strings.HasPrefix(e.Title, ClosedMarker) {
		e.Title = strings.TrimSpace(ClosedMarker + " " + e.Title)
	}
}

// ValidateForPublish checks that a draft carries everything publish needs.
func (e *EventRecord) ValidateForPublish() error {
	switch {
	case e.State != StateDraft:
		return fmt.Errorf("%w: publish from %s", ErrInvalidTransition, e.State)
	case !e.Kind.Valid():
		return NewValidationError("kind", "event kind is not set")
	case strings.TrimSpace(e.Title) == "":
		return NewValidationError("title", "title is required")
	case e.Duration <= 0:
		return NewValidationError("duration", "duration is required")
	case !e.Scope.Valid():
		return NewValidationError("scope", "scope is not set")
	case e.StartsAt == nil:
		return NewValidationError("datetime", "start time is not set")
	case e.Roster == nil:
		return NewValidationError("roster", "roster is missing")
	}
	return nil
}

// Publish assigns the draft its message identity.
func (e *EventRecord) Publish(channelID, messageID string) error {
	if err := e.ValidateForPublish(); err != nil {
		return err
	}
	if channelID == "" || messageID == "" {
		return NewValidationError("message", "published events need a channel and message")
	}
	e.ChannelID = channelID
	e.MessageID = messageID
	e.State = StatePublished
	return nil
}

// Edit is a leader change to a published event. Nil fields are left alone.
type Edit struct {
	Title       *string
	Description *string
	Duration    *time.Duration
	StartsAt    *time.Time
}

// IsEmpty reports whether the edit changes nothing.
func (ed Edit) IsEmpty() bool {
	return ed.Title == nil && ed.Description == nil && ed.Duration == nil && ed.StartsAt == nil
}

// ApplyEdit changes metadata of a published event and reports whether the start or
// end moved, which requires the calendar entry and reminder to be reissued.
func (e *EventRecord) ApplyEdit(ed Edit) (scheduleChanged bool, err error) {
	if e.State != StatePublished {
		return false, fmt.Errorf("%w: edit in %s", ErrInvalidTransition, e.State)
	}
	if ed.IsEmpty() {
		return false, NewValidationError("edit", "nothing to change")
	}
	if ed.Title != nil && strings.TrimSpace(*ed.Title) == "" {
		return false, NewValidationError("title", "title cannot be empty")
	}
	if ed.Duration != nil && *ed.Duration <= 0 {
		return false, NewValidationError("duration", "duration must be longer than zero")
	}

	if ed.Title != nil {
		e.Title = strings.TrimSpace(*ed.Title)
		if e.Scope == ScopePrivate {
			e.MarkClosed()
		}
	}
	if ed.Description != nil {
		e.Description = *ed.Description
	}
	if ed.Duration != nil && *ed.Duration != e.Duration {
		e.Duration = *ed.Duration
		scheduleChanged = true
	}
	if ed.StartsAt != nil && (e.StartsAt == nil || !ed.StartsAt.Equal(*e.StartsAt)) {
		t := *ed.StartsAt
		e.StartsAt = &t
		scheduleChanged = true
	}
	return scheduleChanged, nil
}

// MarkDeleted moves a published event to its terminal state.
func (e *EventRecord) MarkDeleted() error {
	if e.State != StatePublished {
		return fmt.Errorf("%w: delete in %s", ErrInvalidTransition, e.State)
	}
	e.State = StateDeleted
	return nil
}

// Clone returns a deep copy, used to publish one draft into several slots.
func (e *EventRecord) Clone() *EventRecord {
	c := *e
	if e.StartsAt != nil {
		t := *e.StartsAt
		c.StartsAt = &t
	}
	if e.Roster != nil {
		c.Roster = e.Roster.Clone()
	}
	return &c
}

// Placement is one (channel, start) pair chosen in the wizard.
type Placement struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	StartsAt    time.Time `json:"starts_at"`
}

// PublishSummary reports what a multi-slot publish did.
type PublishSummary struct {
	Created  []Key       `json:"created"`
	Occupied []Placement `json:"occupied"`
	Failed   []Placement `json:"failed"`
}
