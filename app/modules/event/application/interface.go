package eventservice

import (
	"context"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
)

// Service defines the event lifecycle and signup operations.
type Service interface {
	// PublishDraft publishes draft once per placement whose channel is free and reports
	// the placements that were occupied or failed.
	PublishDraft(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error)

	GetEvent(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error)
	EditEvent(ctx context.Context, key eventdomain.Key, requesterID string, req EditRequest) (EditResult, error)
	DeleteEvent(ctx context.Context, key eventdomain.Key, requesterID string, confirmed bool) (DeleteResult, error)

	CheckEligibility(ctx context.Context, q SignupQuery) (Eligibility, error)
	Signup(ctx context.Context, req SignupRequest) (SignupResult, error)
	MarkAbsent(ctx context.Context, key eventdomain.Key, userID, userName string) error

	// SendReminder announces the upcoming start of an event. Deleted events are ignored.
	SendReminder(ctx context.Context, key eventdomain.Key) error
	// RearmReminders sets the reminder of every upcoming event and returns how many were set.
	RearmReminders(ctx context.Context) (int, error)
}
