package eventservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/results"
)

// SendReminder posts the start reminder in the event channel, mentioning every signed
// player.
func (s *EventService) SendReminder(ctx context.Context, key eventdomain.Key) error {
	_, err := unwrap(withTelemetry(s, ctx, "SendReminder", key.String(), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		rec, err := s.loadEvent(ctx, nil, key)
		if err != nil {
			if errors.Is(err, eventdomain.ErrNotAnEvent) {
				s.logger.InfoContext(ctx, "Reminder for a deleted event dropped", attr.EventKey(key.String()))
				return results.SuccessResult[struct{}, error](struct{}{}), nil
			}
			return classify[struct{}](err)
		}
		if err := s.platform.SendChannelMessage(ctx, rec.ChannelID, reminderText(rec)); err != nil {
			return results.OperationResult[struct{}, error]{}, fmt.Errorf("failed to send reminder: %w", err)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

func reminderText(rec *eventdomain.EventRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ %s starts", rec.Title)
	if rec.StartsAt != nil {
		fmt.Fprintf(&b, " <t:%d:R>", rec.StartsAt.Unix())
	}
	b.WriteString(".")
	signups := rec.Roster.Signups()
	if len(signups) > 0 {
		mentions := make([]string, 0, len(signups))
		for _, p := range signups {
			mentions = append(mentions, "<@"+p.ID+">")
		}
		b.WriteString(" ")
		b.WriteString(strings.Join(mentions, " "))
	}
	return b.String()
}

// RearmReminders re-sets the reminder of every event that has not started yet. The
// in-process scheduler loses its timers on restart.
func (s *EventService) RearmReminders(ctx context.Context) (int, error) {
	return unwrap(withTelemetry(s, ctx, "RearmReminders", "all", func(ctx context.Context) (results.OperationResult[int, error], error) {
		recs, err := s.repo.ListUpcoming(ctx, nil, s.clock.Now())
		if err != nil {
			return results.OperationResult[int, error]{}, err
		}
		armed := 0
		for _, rec := range recs {
			if rec.StartsAt == nil {
				continue
			}
			if err := s.reminders.Set(ctx, rec.Key().String(), *rec.StartsAt); err != nil {
				s.logger.WarnContext(ctx, "Failed to re-arm reminder",
					attr.EventKey(rec.Key().String()),
					attr.Error(err),
				)
				continue
			}
			armed++
		}
		return results.SuccessResult[int, error](armed), nil
	}))
}
