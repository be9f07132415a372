// Package rosterevents defines the topics and payloads exchanged with the chat gateway.
//
// Topics under roster.> are published by the gateway and consumed here. Topics under
// gateway.> are published here for the gateway to render.
package rosterevents

// Inbound, gateway to backend.
const (
	WizardStartRequestedV1       = "roster.wizard.start.requested.v1"
	WizardInputSubmittedV1       = "roster.wizard.input.submitted.v1"
	SignupEligibilityRequestedV1 = "roster.signup.eligibility.requested.v1"
	SignupRequestedV1            = "roster.signup.requested.v1"
	AbsenceRequestedV1           = "roster.absence.requested.v1"
	EventEditRequestedV1         = "roster.event.edit.requested.v1"
	EventDeleteRequestedV1       = "roster.event.delete.requested.v1"

	// ReminderDueV1 is published by both reminder backends when a reminder fires.
	ReminderDueV1 = "roster.reminder.due.v1"
)

// Outbound, backend to gateway.
const (
	WizardPromptV1         = "gateway.wizard.prompt.v1"
	WizardCompletedV1      = "gateway.wizard.completed.v1"
	WizardAbortedV1        = "gateway.wizard.aborted.v1"
	InteractionUnknownV1   = "gateway.interaction.unknown.v1"
	SignupEligibilityV1    = "gateway.signup.eligibility.v1"
	SignupCommittedV1      = "gateway.signup.committed.v1"
	AbsenceCommittedV1     = "gateway.absence.committed.v1"
	EventEditedV1          = "gateway.event.edited.v1"
	EventDeleteResultV1    = "gateway.event.delete.result.v1"
	EventRequestRejectedV1 = "gateway.event.request.rejected.v1"
)

// Platform request/reply subjects answered by the gateway.
const (
	PlatformPostRoster     = "platform.roster.post"
	PlatformEditRoster     = "platform.roster.edit"
	PlatformSendDM         = "platform.dm.send"
	PlatformSendChannel    = "platform.channel.send"
	PlatformCalendarCreate = "platform.calendar.create"
	PlatformCalendarUpdate = "platform.calendar.update"
	PlatformCalendarCancel = "platform.calendar.cancel"
	PlatformCalendarStatus = "platform.calendar.status"
	PlatformListMessages   = "platform.channel.messages.list"
	PlatformDeleteMessages = "platform.channel.messages.delete"
	PlatformMemberRoles    = "platform.member.roles"
)
