package eventwizard

import (
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
)

// Render describes the prompt for the current step of st.
func Render(st State) rosterevents.PromptV1 {
	p := rosterevents.PromptV1{Step: string(st.Step)}

	switch st.Step {
	case StepSelectKind:
		p.Text = "What kind of event are you organizing?"
		for _, k := range eventdomain.EventKinds() {
			p.Options = append(p.Options, rosterevents.OptionV1{Value: string(k), Label: eventdomain.KindProfile(k).Label})
		}

	case StepBasicInfo:
		p.Text = "Describe the event."
		p.Fields = []rosterevents.FieldV1{
			{Name: "title", Label: "Title", Required: true},
			{Name: "duration", Label: "Duration (e.g. 2h, 90m)", Required: true},
			{Name: "description", Label: "Description"},
		}

	case StepComposition:
		p.Text = "Default composition. Confirm it or change the capacities."
		p.Roles = roleSlots(st.Draft.Roster, eventdomain.SignedRolesFor(st.Draft.Kind), false)
		p.Options = []rosterevents.OptionV1{
			{Value: rosterevents.InputCompositionConfirmed, Label: "Confirm"},
			{Value: rosterevents.InputCapacities, Label: "Modify"},
		}
		for _, slot := range p.Roles {
			p.Fields = append(p.Fields, rosterevents.FieldV1{Name: string(slot.Role), Label: slot.Label, Value: slot.Capacity})
		}

	case StepNotificationRole:
		p.Text = "Pick the role to notify. Only its members can take a spot in the roster."
		p.Options = []rosterevents.OptionV1{{Value: "", Label: "No role"}}

	case StepScope:
		p.Text = "Who can sign up?"
		p.Options = []rosterevents.OptionV1{
			{Value: string(eventdomain.ScopePublic), Label: "Public"},
			{Value: string(eventdomain.ScopeSemiPublic), Label: "Semi-public"},
			{Value: string(eventdomain.ScopePrivate), Label: "Private"},
		}

	case StepPrefill:
		pages := PrefillPages(st.Draft.Kind)
		p.Text = "Pick the players already in the roster."
		p.Roles = roleSlots(st.Draft.Roster, pages[st.Page], true)
		p.MultiSelect = true
		p.Page = st.Page + 1
		p.PageCount = len(pages)

	case StepDateSelection:
		p.Text = "Pick the channels of the days to schedule."
		p.MultiSelect = true

	case StepTimeSelection:
		p.Text = "Pick the start time."
		for _, s := range eventdomain.TimeSlots() {
			p.Options = append(p.Options, rosterevents.OptionV1{Value: s.String(), Label: s.String()})
		}
	}
	return p
}

func roleSlots(r *eventdomain.Roster, roles []eventdomain.Role, withPlayers bool) []rosterevents.RoleSlotV1 {
	out := make([]rosterevents.RoleSlotV1, 0, len(roles))
	for _, role := range roles {
		b := r.Role(role)
		slot := rosterevents.RoleSlotV1{
			Role:     role,
			Label:    role.Label(),
			Emoji:    role.Emoji(),
			Capacity: b.Capacity.String(),
		}
		if withPlayers {
			slot.Players = b.Players
		}
		out = append(out, slot)
	}
	return out
}
