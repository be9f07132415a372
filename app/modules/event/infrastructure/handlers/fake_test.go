package eventhandlers

import (
	"context"

	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
)

// ------------------------
// Fake Event Service
// ------------------------

type FakeEventService struct {
	trace []string

	PublishDraftFunc     func(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error)
	GetEventFunc         func(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error)
	EditEventFunc        func(ctx context.Context, key eventdomain.Key, requesterID string, req eventservice.EditRequest) (eventservice.EditResult, error)
	DeleteEventFunc      func(ctx context.Context, key eventdomain.Key, requesterID string, confirmed bool) (eventservice.DeleteResult, error)
	CheckEligibilityFunc func(ctx context.Context, q eventservice.SignupQuery) (eventservice.Eligibility, error)
	SignupFunc           func(ctx context.Context, req eventservice.SignupRequest) (eventservice.SignupResult, error)
	MarkAbsentFunc       func(ctx context.Context, key eventdomain.Key, userID, userName string) error
	SendReminderFunc     func(ctx context.Context, key eventdomain.Key) error
	RearmRemindersFunc   func(ctx context.Context) (int, error)
}

func NewFakeEventService() *FakeEventService {
	return &FakeEventService{trace: []string{}}
}

func (f *FakeEventService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeEventService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeEventService) PublishDraft(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error) {
	f.record("PublishDraft")
	if f.PublishDraftFunc != nil {
		return f.PublishDraftFunc(ctx, draft, placements)
	}
	return eventdomain.PublishSummary{}, nil
}

func (f *FakeEventService) GetEvent(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	f.record("GetEvent")
	if f.GetEventFunc != nil {
		return f.GetEventFunc(ctx, key)
	}
	return nil, nil
}

func (f *FakeEventService) EditEvent(ctx context.Context, key eventdomain.Key, requesterID string, req eventservice.EditRequest) (eventservice.EditResult, error) {
	f.record("EditEvent")
	if f.EditEventFunc != nil {
		return f.EditEventFunc(ctx, key, requesterID, req)
	}
	return eventservice.EditResult{}, nil
}

func (f *FakeEventService) DeleteEvent(ctx context.Context, key eventdomain.Key, requesterID string, confirmed bool) (eventservice.DeleteResult, error) {
	f.record("DeleteEvent")
	if f.DeleteEventFunc != nil {
		return f.DeleteEventFunc(ctx, key, requesterID, confirmed)
	}
	return eventservice.DeleteResult{Status: eventservice.DeleteCompleted}, nil
}

func (f *FakeEventService) CheckEligibility(ctx context.Context, q eventservice.SignupQuery) (eventservice.Eligibility, error) {
	f.record("CheckEligibility")
	if f.CheckEligibilityFunc != nil {
		return f.CheckEligibilityFunc(ctx, q)
	}
	return eventservice.Eligibility{Eligible: true}, nil
}

func (f *FakeEventService) Signup(ctx context.Context, req eventservice.SignupRequest) (eventservice.SignupResult, error) {
	f.record("Signup")
	if f.SignupFunc != nil {
		return f.SignupFunc(ctx, req)
	}
	return eventservice.SignupResult{Requested: req.Role, Landed: req.Role, Outcome: eventservice.OutcomeAccepted}, nil
}

func (f *FakeEventService) MarkAbsent(ctx context.Context, key eventdomain.Key, userID, userName string) error {
	f.record("MarkAbsent")
	if f.MarkAbsentFunc != nil {
		return f.MarkAbsentFunc(ctx, key, userID, userName)
	}
	return nil
}

func (f *FakeEventService) SendReminder(ctx context.Context, key eventdomain.Key) error {
	f.record("SendReminder")
	if f.SendReminderFunc != nil {
		return f.SendReminderFunc(ctx, key)
	}
	return nil
}

func (f *FakeEventService) RearmReminders(ctx context.Context) (int, error) {
	f.record("RearmReminders")
	if f.RearmRemindersFunc != nil {
		return f.RearmRemindersFunc(ctx)
	}
	return 0, nil
}

var _ eventservice.Service = (*FakeEventService)(nil)

// ------------------------
// Fake Wizard
// ------------------------

type FakeWizard struct {
	Started   []*rosterevents.WizardStartRequestedPayloadV1
	Delivered []*rosterevents.WizardInputSubmittedPayloadV1

	DeliverFunc func(ctx context.Context, p *rosterevents.WizardInputSubmittedPayloadV1) error
}

func (f *FakeWizard) Start(_ context.Context, req *rosterevents.WizardStartRequestedPayloadV1) string {
	f.Started = append(f.Started, req)
	return "session-1"
}

func (f *FakeWizard) Deliver(ctx context.Context, p *rosterevents.WizardInputSubmittedPayloadV1) error {
	f.Delivered = append(f.Delivered, p)
	if f.DeliverFunc != nil {
		return f.DeliverFunc(ctx, p)
	}
	return nil
}

var _ Wizard = (*FakeWizard)(nil)
