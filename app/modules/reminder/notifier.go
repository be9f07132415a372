package reminder

import (
	"context"

	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
)

// BusNotifier announces fired reminders on the event bus, where the event module sends
// the channel message.
type BusNotifier struct {
	publisher message.Publisher
}

// NewBusNotifier returns a Notifier publishing rosterevents.ReminderDueV1.
func NewBusNotifier(publisher message.Publisher) *BusNotifier {
	return &BusNotifier{publisher: publisher}
}

func (n *BusNotifier) Notify(ctx context.Context, key string) error {
	return handlerwrapper.Publish(ctx, n.publisher, handlerwrapper.Result{
		Topic:   rosterevents.ReminderDueV1,
		Payload: &rosterevents.ReminderDuePayloadV1{EventKey: key},
	})
}
