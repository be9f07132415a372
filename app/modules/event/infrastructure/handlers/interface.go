package eventhandlers

import (
	"context"

	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/handlerwrapper"
)

// Handlers maps inbound gateway messages to the event service and the creation wizard.
type Handlers interface {
	HandleWizardStartRequested(ctx context.Context, payload *rosterevents.WizardStartRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleWizardInputSubmitted(ctx context.Context, payload *rosterevents.WizardInputSubmittedPayloadV1) ([]handlerwrapper.Result, error)
	HandleSignupEligibilityRequested(ctx context.Context, payload *rosterevents.SignupEligibilityRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleSignupRequested(ctx context.Context, payload *rosterevents.SignupRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleAbsenceRequested(ctx context.Context, payload *rosterevents.AbsenceRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleEventEditRequested(ctx context.Context, payload *rosterevents.EventEditRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleEventDeleteRequested(ctx context.Context, payload *rosterevents.EventDeleteRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleReminderDue(ctx context.Context, payload *rosterevents.ReminderDuePayloadV1) ([]handlerwrapper.Result, error)
}

// Wizard is the part of the wizard hub the handlers drive.
type Wizard interface {
	Start(ctx context.Context, req *rosterevents.WizardStartRequestedPayloadV1) string
	Deliver(ctx context.Context, p *rosterevents.WizardInputSubmittedPayloadV1) error
}
