package eventservice

import (
	"context"
	"fmt"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// PublishDraft publishes a copy of draft in every placement whose channel holds no
// unpinned messages. Busy channels are reported as occupied and skipped. A placement
// that fails after its roster was posted is rolled back and reported as failed; the
// remaining placements still publish. An error is returned only when nothing was
// created and at least one placement failed.
func (s *EventService) PublishDraft(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error) {
	return unwrap(withTelemetry(s, ctx, "PublishDraft", draft.LeaderID, func(ctx context.Context) (results.OperationResult[eventdomain.PublishSummary, error], error) {
		if len(placements) == 0 {
			return classify[eventdomain.PublishSummary](eventdomain.NewValidationError("channels", "pick at least one channel"))
		}
		for _, pl := range placements {
			if err := placed(draft, pl).ValidateForPublish(); err != nil {
				return classify[eventdomain.PublishSummary](err)
			}
		}

		summary := eventdomain.PublishSummary{
			Created:  []eventdomain.Key{},
			Occupied: []eventdomain.Placement{},
			Failed:   []eventdomain.Placement{},
		}
		var firstErr error
		for _, pl := range placements {
			key, occupied, err := s.publishOne(ctx, draft, pl)
			switch {
			case err != nil:
				s.logger.ErrorContext(ctx, "Failed to publish placement",
					attr.String("channel_id", pl.ChannelID),
					attr.Time("starts_at", pl.StartsAt),
					attr.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
				summary.Failed = append(summary.Failed, pl)
			case occupied:
				summary.Occupied = append(summary.Occupied, pl)
			default:
				summary.Created = append(summary.Created, key)
			}
		}
		if firstErr != nil && len(summary.Created) == 0 {
			return classify[eventdomain.PublishSummary](firstErr)
		}
		return results.SuccessResult[eventdomain.PublishSummary, error](summary), nil
	}))
}

func placed(draft *eventdomain.EventRecord, pl eventdomain.Placement) *eventdomain.EventRecord {
	rec := draft.Clone()
	startsAt := pl.StartsAt
	rec.StartsAt = &startsAt
	return rec
}

func (s *EventService) publishOne(ctx context.Context, draft *eventdomain.EventRecord, pl eventdomain.Placement) (eventdomain.Key, bool, error) {
	rec := placed(draft, pl)
	if err := rec.ValidateForPublish(); err != nil {
		return "", false, err
	}

	free, err := s.channelIsFree(ctx, pl.ChannelID)
	if err != nil {
		return "", false, err
	}
	if !free {
		s.logger.InfoContext(ctx, "Channel already holds an event, skipping",
			attr.String("channel_id", pl.ChannelID),
			attr.String("channel_name", pl.ChannelName),
			attr.Time("starts_at", pl.StartsAt),
		)
		return "", true, nil
	}

	messageID, err := s.platform.PostRoster(ctx, pl.ChannelID, rec)
	if err != nil {
		return "", false, fmt.Errorf("failed to post roster in %s: %w", pl.ChannelID, err)
	}
	if err := rec.Publish(pl.ChannelID, messageID); err != nil {
		s.unpost(ctx, rec.GuildID, pl.ChannelID, messageID, "")
		return "", false, err
	}

	calendarID, err := s.platform.CreateCalendarEvent(ctx, rec.GuildID, calendarEntry(rec))
	if err != nil {
		s.unpost(ctx, rec.GuildID, pl.ChannelID, messageID, "")
		return "", false, fmt.Errorf("failed to create calendar entry for %s: %w", rec.Key(), err)
	}
	rec.CalendarEventID = calendarID

	_, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
		return results.OperationResult[struct{}, error]{}, s.repo.Save(ctx, db, rec)
	})
	if err != nil {
		s.unpost(ctx, rec.GuildID, pl.ChannelID, messageID, calendarID)
		return "", false, err
	}

	if err := s.reminders.Set(ctx, rec.Key().String(), *rec.StartsAt); err != nil {
		s.logger.WarnContext(ctx, "Failed to set reminder",
			attr.EventKey(rec.Key().String()),
			attr.Error(err),
		)
	}

	s.logger.InfoContext(ctx, "Event published",
		attr.EventKey(rec.Key().String()),
		attr.String("kind", string(rec.Kind)),
		attr.String("scope", string(rec.Scope)),
		attr.Time("starts_at", *rec.StartsAt),
	)
	return rec.Key(), false, nil
}

// unpost removes what a half-finished publish left on the platform. Failures are
// logged only; the placement is already reported as failed.
func (s *EventService) unpost(ctx context.Context, guildID, channelID, messageID, calendarID string) {
	if calendarID != "" {
		if err := s.platform.CancelCalendarEvent(ctx, guildID, calendarID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel calendar entry of failed publish",
				attr.String("calendar_id", calendarID),
				attr.Error(err),
			)
		}
	}
	if err := s.platform.DeleteMessages(ctx, channelID, []string{messageID}); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete roster of failed publish",
			attr.String("channel_id", channelID),
			attr.String("message_id", messageID),
			attr.Error(err),
		)
	}
}

// channelIsFree reports whether a channel has no unpinned messages.
func (s *EventService) channelIsFree(ctx context.Context, channelID string) (bool, error) {
	msgs, err := s.platform.ListChannelMessages(ctx, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to list messages of %s: %w", channelID, err)
	}
	for _, m := range msgs {
		if !m.Pinned {
			return false, nil
		}
	}
	return true, nil
}
