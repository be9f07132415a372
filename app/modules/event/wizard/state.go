// Package eventwizard runs the multi-step creation dialog that turns a leader's answers
// into published events.
//
// Machine.Advance is a pure transition function over State. Session drives it against a
// Prompter, and Hub implements Prompter over the event bus.
package eventwizard

import (
	"errors"
	"fmt"
	"slices"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
)

// ErrCancelled ends a session the leader closed.
var ErrCancelled = errors.New("wizard cancelled")

// Step is a position in the wizard.
type Step string

const (
	StepSelectKind       Step = "select_kind"
	StepBasicInfo        Step = "basic_info"
	StepComposition      Step = "composition"
	StepNotificationRole Step = "notification_role"
	StepScope            Step = "scope"
	StepPrefill          Step = "prefill"
	StepDateSelection    Step = "date_selection"
	StepTimeSelection    Step = "time_selection"
	StepPublish          Step = "publish"
)

// Channel is a channel picked in the date step, with the weekday its name carries.
type Channel struct {
	ID      string
	Name    string
	Weekday time.Weekday
}

// State is everything collected so far.
type State struct {
	Step     Step
	GuildID  string
	LeaderID string
	// Draft is nil until a kind is chosen.
	Draft *eventdomain.EventRecord
	// Page is the current roster prefill page.
	Page       int
	Channels   []Channel
	Placements []eventdomain.Placement
}

func (s State) clone() State {
	c := s
	if s.Draft != nil {
		c.Draft = s.Draft.Clone()
	}
	c.Channels = slices.Clone(s.Channels)
	c.Placements = slices.Clone(s.Placements)
	return c
}

// Input is one answer from the leader.
type Input interface{ isInput() }

type (
	KindChosen struct{ Kind string }
	BasicInfo  struct{ Title, Duration, Description string }
	// CapacitiesSubmitted overrides capacities by role. Values are 0-11 or "unlimited".
	CapacitiesSubmitted  struct{ Capacities map[eventdomain.Role]string }
	CompositionConfirmed struct{}
	// NotificationRoleChosen binds a platform role. An empty RoleID means none.
	NotificationRoleChosen struct{ RoleID string }
	ScopeChosen            struct{ Scope string }
	// PrefillSubmitted replaces the players of Role with Players.
	PrefillSubmitted struct {
		Role    eventdomain.Role
		Players []eventdomain.Player
	}
	PageTurned     struct{ Delta int }
	PrefillDone    struct{}
	ChannelsChosen struct{ Channels []rosterevents.ChannelRefV1 }
	SlotChosen     struct{ Slot string }
	Cancelled      struct{}
)

func (KindChosen) isInput()             {}
func (BasicInfo) isInput()              {}
func (CapacitiesSubmitted) isInput()    {}
func (CompositionConfirmed) isInput()   {}
func (NotificationRoleChosen) isInput() {}
func (ScopeChosen) isInput()            {}
func (PrefillSubmitted) isInput()       {}
func (PageTurned) isInput()             {}
func (PrefillDone) isInput()            {}
func (ChannelsChosen) isInput()         {}
func (SlotChosen) isInput()             {}
func (Cancelled) isInput()              {}

// DecodeInput maps a gateway interaction to an Input.
func DecodeInput(v rosterevents.WizardInputV1) (Input, error) {
	switch v.Type {
	case rosterevents.InputKindChosen:
		return KindChosen{Kind: v.Value}, nil
	case rosterevents.InputBasicInfo:
		return BasicInfo{
			Title:       v.Fields["title"],
			Duration:    v.Fields["duration"],
			Description: v.Fields["description"],
		}, nil
	case rosterevents.InputCapacities:
		caps := make(map[eventdomain.Role]string, len(v.Fields))
		for name, value := range v.Fields {
			role, err := eventdomain.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", eventdomain.ErrUnknownInteraction, err)
			}
			caps[role] = value
		}
		return CapacitiesSubmitted{Capacities: caps}, nil
	case rosterevents.InputCompositionConfirmed:
		return CompositionConfirmed{}, nil
	case rosterevents.InputNotificationRole:
		return NotificationRoleChosen{RoleID: v.Value}, nil
	case rosterevents.InputScope:
		return ScopeChosen{Scope: v.Value}, nil
	case rosterevents.InputPrefill:
		return PrefillSubmitted{Role: v.Role, Players: v.Players}, nil
	case rosterevents.InputPage:
		switch v.Value {
		case "next":
			return PageTurned{Delta: 1}, nil
		case "prev":
			return PageTurned{Delta: -1}, nil
		}
		return nil, fmt.Errorf("%w: page %q", eventdomain.ErrUnknownInteraction, v.Value)
	case rosterevents.InputPrefillDone:
		return PrefillDone{}, nil
	case rosterevents.InputChannels:
		return ChannelsChosen{Channels: v.Channels}, nil
	case rosterevents.InputSlot:
		return SlotChosen{Slot: v.Value}, nil
	case rosterevents.InputCancel:
		return Cancelled{}, nil
	}
	return nil, fmt.Errorf("%w: input type %q", eventdomain.ErrUnknownInteraction, v.Type)
}
