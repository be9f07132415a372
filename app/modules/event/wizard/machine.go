package eventwizard

import (
	"fmt"
	"slices"
	"strings"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
)

// rolesPerPage is how many roles one prefill page shows.
const rolesPerPage = 4

// Machine holds the transition rules of the wizard.
type Machine struct {
	clock      clock.Clock
	slotOffset time.Duration
}

// NewMachine returns a Machine. slotOffset is added to the chosen time slot before the
// next occurrence is computed.
func NewMachine(c clock.Clock, slotOffset time.Duration) *Machine {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Machine{clock: c, slotOffset: slotOffset}
}

// Start returns the first state of a wizard opened by leaderID.
func (m *Machine) Start(guildID, leaderID string) State {
	return State{Step: StepSelectKind, GuildID: guildID, LeaderID: leaderID}
}

// Advance applies in to st. A *eventdomain.ValidationError leaves the step unchanged and
// the same prompt is shown again. The input of st is never modified.
func (m *Machine) Advance(st State, in Input) (State, error) {
	next, err := m.transition(st, in)
	if err != nil {
		return st, err
	}
	return next, nil
}

func (m *Machine) transition(st State, in Input) (State, error) {
	if _, ok := in.(Cancelled); ok {
		return State{}, ErrCancelled
	}
	next := st.clone()

	switch st.Step {
	case StepSelectKind:
		if in, ok := in.(KindChosen); ok {
			return m.selectKind(next, in)
		}
	case StepBasicInfo:
		if in, ok := in.(BasicInfo); ok {
			return m.basicInfo(next, in)
		}
	case StepComposition:
		switch in := in.(type) {
		case CapacitiesSubmitted:
			return m.capacities(next, in)
		case CompositionConfirmed:
			if next.Draft.Kind == eventdomain.KindGeneric {
				next.Step = StepScope
			} else {
				next.Step = StepNotificationRole
			}
			return next, nil
		}
	case StepNotificationRole:
		if in, ok := in.(NotificationRoleChosen); ok {
			next.Draft.NotificationRoleID = strings.TrimSpace(in.RoleID)
			next.Step = StepScope
			return next, nil
		}
	case StepScope:
		if in, ok := in.(ScopeChosen); ok {
			return m.scope(next, in)
		}
	case StepPrefill:
		switch in := in.(type) {
		case PrefillSubmitted:
			return m.prefill(next, in)
		case PageTurned:
			next.Page = min(max(next.Page+in.Delta, 0), len(PrefillPages(next.Draft.Kind))-1)
			return next, nil
		case PrefillDone:
			next.Step = StepDateSelection
			return next, nil
		}
	case StepDateSelection:
		if in, ok := in.(ChannelsChosen); ok {
			return m.channels(next, in)
		}
	case StepTimeSelection:
		if in, ok := in.(SlotChosen); ok {
			return m.slot(next, in)
		}
	}
	return State{}, fmt.Errorf("%w: %T at step %s", eventdomain.ErrUnknownInteraction, in, st.Step)
}

func (m *Machine) selectKind(next State, in KindChosen) (State, error) {
	kind, err := eventdomain.ParseEventKind(in.Kind)
	if err != nil {
		return State{}, err
	}
	next.Draft = eventdomain.NewDraft(next.GuildID, next.LeaderID, kind)
	next.Step = StepBasicInfo
	return next, nil
}

func (m *Machine) basicInfo(next State, in BasicInfo) (State, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return State{}, eventdomain.NewValidationError("title", "title is required")
	}
	d, err := eventdomain.ParseDuration(in.Duration)
	if err != nil {
		return State{}, err
	}
	next.Draft.Title = title
	next.Draft.Duration = d
	next.Draft.Description = strings.TrimSpace(in.Description)
	next.Step = StepComposition
	return next, nil
}

// capacities applies every override or none of them, then shows the composition again.
func (m *Machine) capacities(next State, in CapacitiesSubmitted) (State, error) {
	kind := next.Draft.Kind
	parsed := make(map[eventdomain.Role]eventdomain.Capacity, len(in.Capacities))
	for role, value := range in.Capacities {
		if role.IsBackup() || !eventdomain.HasRole(kind, role) {
			return State{}, eventdomain.NewValidationError("capacity", "%s events have no %s role", kind, role)
		}
		c, err := eventdomain.ParseCapacity(value)
		if err != nil {
			return State{}, err
		}
		parsed[role] = c
	}
	for role, c := range parsed {
		next.Draft.Roster.SetCapacity(role, c)
	}
	return next, nil
}

func (m *Machine) scope(next State, in ScopeChosen) (State, error) {
	sc, err := eventdomain.ParseScope(in.Scope)
	if err != nil {
		return State{}, err
	}
	next.Draft.Scope = sc
	if sc == eventdomain.ScopePrivate {
		next.Draft.MarkClosed()
	}
	if sc.UsesPrefill() {
		next.Step = StepPrefill
		next.Page = 0
	} else {
		next.Step = StepDateSelection
	}
	return next, nil
}

// prefill replaces the players of one role on the current page. Capacity is not checked.
func (m *Machine) prefill(next State, in PrefillSubmitted) (State, error) {
	pages := PrefillPages(next.Draft.Kind)
	if !slices.Contains(pages[next.Page], in.Role) {
		return State{}, eventdomain.NewValidationError("role", "%s is not on this page", in.Role)
	}

	roster := next.Draft.Roster
	keep := make(map[string]bool, len(in.Players))
	for _, p := range in.Players {
		keep[p.ID] = true
	}
	for _, p := range roster.Role(in.Role).Players {
		if !keep[p.ID] {
			roster.RemovePlayer(p.ID)
		}
	}

	if in.Role == eventdomain.RoleReserve {
		for _, p := range in.Players {
			roster.AddReserve(p)
		}
	} else {
		roster.Prefill(in.Role, in.Players)
	}
	return next, nil
}

func (m *Machine) channels(next State, in ChannelsChosen) (State, error) {
	if len(in.Channels) == 0 {
		return State{}, eventdomain.NewValidationError("channel", "pick at least one channel")
	}
	next.Channels = next.Channels[:0]
	for _, ch := range in.Channels {
		day, err := eventdomain.MatchWeekday(ch.Name)
		if err != nil {
			return State{}, err
		}
		next.Channels = append(next.Channels, Channel{ID: ch.ID, Name: ch.Name, Weekday: day})
	}
	next.Step = StepTimeSelection
	return next, nil
}

func (m *Machine) slot(next State, in SlotChosen) (State, error) {
	slot, err := eventdomain.ParseSlot(in.Slot)
	if err != nil {
		return State{}, err
	}
	now := m.clock.NowUTC()
	next.Placements = make([]eventdomain.Placement, 0, len(next.Channels))
	for _, ch := range next.Channels {
		next.Placements = append(next.Placements, eventdomain.Placement{
			ChannelID:   ch.ID,
			ChannelName: ch.Name,
			StartsAt:    eventdomain.NextOccurrence(now, ch.Weekday, slot, m.slotOffset),
		})
	}
	start := next.Placements[0].StartsAt
	next.Draft.StartsAt = &start
	next.Step = StepPublish
	return next, nil
}

// PrefillPages splits the signed roles of kind into pages, followed by a Reserve page.
func PrefillPages(kind eventdomain.EventKind) [][]eventdomain.Role {
	signed := eventdomain.SignedRolesFor(kind)
	var pages [][]eventdomain.Role
	for i := 0; i < len(signed); i += rolesPerPage {
		pages = append(pages, signed[i:min(i+rolesPerPage, len(signed))])
	}
	return append(pages, []eventdomain.Role{eventdomain.RoleReserve})
}
