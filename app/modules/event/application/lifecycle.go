package eventservice

import (
	"context"
	"fmt"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/Black-And-White-Club/roster-bot/app/shared/attr"
	"github.com/Black-And-White-Club/roster-bot/app/shared/results"
	"github.com/uptrace/bun"
)

// EditRequest changes metadata of a published event. Nil fields are kept. Duration and
// StartsAt are free text as typed by the leader.
type EditRequest struct {
	Title       *string
	Description *string
	Duration    *string
	StartsAt    *string
}

// EditResult reports what an edit changed.
type EditResult struct {
	ScheduleChanged bool
	StartsAt        *time.Time
}

// DeleteStatus is the outcome of a delete request.
type DeleteStatus string

const (
	DeleteConfirmationRequired DeleteStatus = "confirmation_required"
	DeleteCompleted            DeleteStatus = "deleted"
)

// DeleteResult reports a delete outcome.
type DeleteResult struct {
	Status DeleteStatus
}

// EditEvent applies a leader edit. Moving the start or end reissues the calendar entry
// and a new start re-arms the reminder.
func (s *EventService) EditEvent(ctx context.Context, key eventdomain.Key, requesterID string, req EditRequest) (EditResult, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	return unwrap(withTelemetry(s, ctx, "EditEvent", key.String(), func(ctx context.Context) (results.OperationResult[EditResult, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[EditResult, error], error) {
			return s.editLogic(ctx, db, key, requesterID, req)
		})
	}))
}

func (s *EventService) editLogic(ctx context.Context, db bun.IDB, key eventdomain.Key, requesterID string, req EditRequest) (results.OperationResult[EditResult, error], error) {
	rec, err := s.lockEvent(ctx, db, key)
	if err != nil {
		return classify[EditResult](err)
	}
	if !rec.IsLeader(requesterID) {
		return classify[EditResult](eventdomain.ErrNotLeader)
	}

	edit, err := s.parseEdit(req)
	if err != nil {
		return classify[EditResult](err)
	}

	var previousStart time.Time
	if rec.StartsAt != nil {
		previousStart = *rec.StartsAt
	}
	scheduleChanged, err := rec.ApplyEdit(edit)
	if err != nil {
		return classify[EditResult](err)
	}

	if edit.Title != nil {
		if err := s.repo.UpdateTitle(ctx, db, key, rec.Title); err != nil {
			return results.OperationResult[EditResult, error]{}, err
		}
	}
	if edit.Description != nil {
		if err := s.repo.UpdateDescription(ctx, db, key, rec.Description); err != nil {
			return results.OperationResult[EditResult, error]{}, err
		}
	}
	if edit.Duration != nil {
		if err := s.repo.UpdateDuration(ctx, db, key, rec.Duration); err != nil {
			return results.OperationResult[EditResult, error]{}, err
		}
	}
	startMoved := rec.StartsAt != nil && !rec.StartsAt.Equal(previousStart)
	if startMoved {
		if err := s.repo.UpdateDateTime(ctx, db, key, *rec.StartsAt); err != nil {
			return results.OperationResult[EditResult, error]{}, err
		}
	}

	if scheduleChanged && rec.CalendarEventID != "" {
		if err := s.platform.UpdateCalendarEvent(ctx, rec.GuildID, rec.CalendarEventID, calendarEntry(rec)); err != nil {
			return results.OperationResult[EditResult, error]{}, fmt.Errorf("failed to update calendar entry: %w", err)
		}
	}
	if startMoved {
		if err := s.reminders.Set(ctx, key.String(), *rec.StartsAt); err != nil {
			return results.OperationResult[EditResult, error]{}, fmt.Errorf("failed to reschedule reminder: %w", err)
		}
	}

	s.refreshRoster(ctx, rec)
	return results.SuccessResult[EditResult, error](EditResult{
		ScheduleChanged: scheduleChanged,
		StartsAt:        rec.StartsAt,
	}), nil
}

func (s *EventService) parseEdit(req EditRequest) (eventdomain.Edit, error) {
	edit := eventdomain.Edit{Title: req.Title, Description: req.Description}
	if req.Duration != nil {
		d, err := eventdomain.ParseDuration(*req.Duration)
		if err != nil {
			return eventdomain.Edit{}, err
		}
		edit.Duration = &d
	}
	if req.StartsAt != nil {
		t, err := s.parser.ParseStart(*req.StartsAt, s.clock.Now())
		if err != nil {
			return eventdomain.Edit{}, err
		}
		edit.StartsAt = &t
	}
	return edit, nil
}

// DeleteEvent removes an event. While its calendar entry is still scheduled the first
// request only asks for confirmation. The row is deleted and committed first; the
// reminder, calendar entry and channel are released afterwards, so a storage failure
// leaves the event fully intact.
func (s *EventService) DeleteEvent(ctx context.Context, key eventdomain.Key, requesterID string, confirmed bool) (DeleteResult, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	return unwrap(withTelemetry(s, ctx, "DeleteEvent", key.String(), func(ctx context.Context) (results.OperationResult[DeleteResult, error], error) {
		var removed deletion
		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[DeleteResult, error], error) {
			return s.deleteLogic(ctx, db, key, requesterID, confirmed, &removed)
		})
		if err != nil || removed.rec == nil {
			return result, err
		}
		s.release(ctx, removed)
		s.logger.InfoContext(ctx, "Event deleted",
			attr.EventKey(key.String()),
			attr.UserID(requesterID),
			attr.Bool("calendar_cancelled", removed.scheduled),
		)
		return result, nil
	}))
}

// deletion is what deleteLogic removed from storage and still holds outside of it.
type deletion struct {
	rec       *eventdomain.EventRecord
	scheduled bool
}

func (s *EventService) deleteLogic(ctx context.Context, db bun.IDB, key eventdomain.Key, requesterID string, confirmed bool, removed *deletion) (results.OperationResult[DeleteResult, error], error) {
	rec, err := s.lockEvent(ctx, db, key)
	if err != nil {
		return classify[DeleteResult](err)
	}
	if !rec.IsLeader(requesterID) {
		return classify[DeleteResult](eventdomain.ErrNotLeader)
	}

	scheduled := false
	if rec.CalendarEventID != "" {
		status, err := s.platform.CalendarEventStatus(ctx, rec.GuildID, rec.CalendarEventID)
		if err != nil {
			return results.OperationResult[DeleteResult, error]{}, fmt.Errorf("failed to read calendar status: %w", err)
		}
		scheduled = status == CalendarScheduled
	}
	if scheduled && !confirmed {
		return results.SuccessResult[DeleteResult, error](DeleteResult{Status: DeleteConfirmationRequired}), nil
	}

	if err := rec.MarkDeleted(); err != nil {
		return classify[DeleteResult](err)
	}
	if err := s.repo.Delete(ctx, db, key); err != nil {
		return results.OperationResult[DeleteResult, error]{}, err
	}

	*removed = deletion{rec: rec, scheduled: scheduled}
	return results.SuccessResult[DeleteResult, error](DeleteResult{Status: DeleteCompleted}), nil
}

// release drops what a deleted event still holds outside storage. The event is gone
// by now, so failures are logged and the remaining steps still run.
func (s *EventService) release(ctx context.Context, d deletion) {
	key := d.rec.Key().String()
	if err := s.reminders.Cancel(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to cancel reminder of deleted event",
			attr.EventKey(key),
			attr.Error(err),
		)
	}
	if d.scheduled {
		if err := s.platform.CancelCalendarEvent(ctx, d.rec.GuildID, d.rec.CalendarEventID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to cancel calendar entry of deleted event",
				attr.EventKey(key),
				attr.String("calendar_id", d.rec.CalendarEventID),
				attr.Error(err),
			)
		}
	}
	if err := s.clearChannel(ctx, d.rec.ChannelID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear channel of deleted event",
			attr.EventKey(key),
			attr.Error(err),
		)
	}
}

// clearChannel deletes every unpinned message of the event channel.
func (s *EventService) clearChannel(ctx context.Context, channelID string) error {
	msgs, err := s.platform.ListChannelMessages(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to list messages of %s: %w", channelID, err)
	}
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if !m.Pinned {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.platform.DeleteMessages(ctx, channelID, ids); err != nil {
		return fmt.Errorf("failed to delete messages of %s: %w", channelID, err)
	}
	return nil
}
