package rosterevents

import (
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
)

// WizardStartRequestedPayloadV1 opens a creation wizard for UserID.
type WizardStartRequestedPayloadV1 struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
}

// Wizard input types carried by WizardInputV1.Type.
const (
	InputKindChosen           = "kind_chosen"
	InputBasicInfo            = "basic_info"
	InputCompositionConfirmed = "composition_confirmed"
	InputCapacities           = "capacities"
	InputNotificationRole     = "notification_role"
	InputScope                = "scope"
	InputPrefill              = "prefill"
	InputPage                 = "page"
	InputPrefillDone          = "prefill_done"
	InputChannels             = "channels"
	InputSlot                 = "slot"
	InputCancel               = "cancel"
)

// ChannelRefV1 names a channel picked by the leader.
type ChannelRefV1 struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WizardInputV1 is one user interaction inside a wizard session.
type WizardInputV1 struct {
	Type     string               `json:"type"`
	Value    string               `json:"value,omitempty"`
	Fields   map[string]string    `json:"fields,omitempty"`
	Role     eventdomain.Role     `json:"role,omitempty"`
	Players  []eventdomain.Player `json:"players,omitempty"`
	Channels []ChannelRefV1       `json:"channels,omitempty"`
}

// WizardInputSubmittedPayloadV1 routes an input to a live session.
type WizardInputSubmittedPayloadV1 struct {
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	Input     WizardInputV1 `json:"input"`
}

// OptionV1 is a selectable choice.
type OptionV1 struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldV1 is a text field of a form prompt.
type FieldV1 struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Value    string `json:"value,omitempty"`
	Required bool   `json:"required"`
}

// RoleSlotV1 shows one roster role with its capacity and current players.
type RoleSlotV1 struct {
	Role     eventdomain.Role     `json:"role"`
	Label    string               `json:"label"`
	Emoji    string               `json:"emoji"`
	Capacity string               `json:"capacity"`
	Players  []eventdomain.Player `json:"players,omitempty"`
}

// PromptV1 describes what the gateway should ask next.
type PromptV1 struct {
	Step        string       `json:"step"`
	Text        string       `json:"text"`
	Options     []OptionV1   `json:"options,omitempty"`
	Fields      []FieldV1    `json:"fields,omitempty"`
	Roles       []RoleSlotV1 `json:"roles,omitempty"`
	MultiSelect bool         `json:"multi_select,omitempty"`
	Page        int          `json:"page,omitempty"`
	PageCount   int          `json:"page_count,omitempty"`
	Error       string       `json:"error,omitempty"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// WizardPromptPayloadV1 asks the gateway to render a prompt for a session.
type WizardPromptPayloadV1 struct {
	SessionID string   `json:"session_id"`
	GuildID   string   `json:"guild_id"`
	ChannelID string   `json:"channel_id"`
	UserID    string   `json:"user_id"`
	Prompt    PromptV1 `json:"prompt"`
}

// WizardCompletedPayloadV1 reports the outcome of a finished wizard.
type WizardCompletedPayloadV1 struct {
	SessionID string                     `json:"session_id"`
	UserID    string                     `json:"user_id"`
	Summary   eventdomain.PublishSummary `json:"summary"`
}

// WizardAbortedPayloadV1 reports a wizard that ended without publishing.
type WizardAbortedPayloadV1 struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
}

// InteractionUnknownPayloadV1 answers inputs that match no live session or step.
type InteractionUnknownPayloadV1 struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

// SignupEligibilityRequestedPayloadV1 is sent when a user presses a role button.
type SignupEligibilityRequestedPayloadV1 struct {
	EventKey string           `json:"event_key"`
	Role     eventdomain.Role `json:"role"`
	UserID   string           `json:"user_id"`
}

// SignupEligibilityPayloadV1 tells the gateway which signup path to offer.
type SignupEligibilityPayloadV1 struct {
	EventKey string           `json:"event_key"`
	Role     eventdomain.Role `json:"role"`
	UserID   string           `json:"user_id"`
	Eligible bool             `json:"eligible"`
	RoleFull bool             `json:"role_full"`
	// NeedsClass is false for Absent and for ineligible users.
	NeedsClass  bool                `json:"needs_class"`
	Classes     []eventdomain.Class `json:"classes,omitempty"`
	FlexOptions []eventdomain.Role  `json:"flex_options,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// SignupRequestedPayloadV1 commits a signup.
type SignupRequestedPayloadV1 struct {
	EventKey string             `json:"event_key"`
	Role     eventdomain.Role   `json:"role"`
	UserID   string             `json:"user_id"`
	UserName string             `json:"user_name"`
	Class    eventdomain.Class  `json:"class,omitempty"`
	Flex     []eventdomain.Role `json:"flex,omitempty"`
}

// SignupOutcome is the message variant shown after a signup.
type SignupOutcome string

const (
	SignupIneligible SignupOutcome = "ineligible"
	SignupAccepted   SignupOutcome = "accepted"
	SignupReserved   SignupOutcome = "reserved"
)

// SignupCommittedPayloadV1 reports where a player landed.
type SignupCommittedPayloadV1 struct {
	EventKey  string             `json:"event_key"`
	UserID    string             `json:"user_id"`
	Requested eventdomain.Role   `json:"requested"`
	Landed    eventdomain.Role   `json:"landed"`
	Outcome   SignupOutcome      `json:"outcome"`
	Flex      []eventdomain.Role `json:"flex,omitempty"`
	Message   string             `json:"message"`
}

// AbsenceRequestedPayloadV1 marks a user absent.
type AbsenceRequestedPayloadV1 struct {
	EventKey string `json:"event_key"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// AbsenceCommittedPayloadV1 confirms an absence.
type AbsenceCommittedPayloadV1 struct {
	EventKey string `json:"event_key"`
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
}

// EventEditRequestedPayloadV1 changes metadata of a published event. Nil fields are kept.
// Duration and StartsAt are free text.
type EventEditRequestedPayloadV1 struct {
	EventKey    string  `json:"event_key"`
	RequesterID string  `json:"requester_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Duration    *string `json:"duration,omitempty"`
	StartsAt    *string `json:"starts_at,omitempty"`
}

// EventEditedPayloadV1 confirms an edit.
type EventEditedPayloadV1 struct {
	EventKey        string     `json:"event_key"`
	RequesterID     string     `json:"requester_id"`
	ScheduleChanged bool       `json:"schedule_changed"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	Message         string     `json:"message"`
}

// EventDeleteRequestedPayloadV1 starts or confirms a deletion.
type EventDeleteRequestedPayloadV1 struct {
	EventKey    string `json:"event_key"`
	RequesterID string `json:"requester_id"`
	Confirmed   bool   `json:"confirmed"`
}

// DeleteStatus is the outcome of a delete request.
type DeleteStatus string

const (
	DeleteConfirmationRequired DeleteStatus = "confirmation_required"
	DeleteCompleted            DeleteStatus = "deleted"
)

// EventDeleteResultPayloadV1 reports a delete outcome.
type EventDeleteResultPayloadV1 struct {
	EventKey    string       `json:"event_key"`
	RequesterID string       `json:"requester_id"`
	Status      DeleteStatus `json:"status"`
	Message     string       `json:"message"`
}

// EventRequestRejectedPayloadV1 answers edit, delete or signup requests that cannot apply.
type EventRequestRejectedPayloadV1 struct {
	EventKey string `json:"event_key"`
	UserID   string `json:"user_id"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

// ReminderDuePayloadV1 fires the reminder of one event.
type ReminderDuePayloadV1 struct {
	EventKey string `json:"event_key"`
}
