package eventdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when no event is stored under a key.
var ErrNotFound = errors.New("event not found")

// Impl implements Repository with bun.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new event repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Load retrieves the event stored under key.
func (r *Impl) Load(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	row, err := r.selectRow(ctx, r.resolveDB(db), key, false)
	if err != nil {
		return nil, err
	}
	return row.ToRecord(), nil
}

// LoadForUpdate retrieves the event stored under key and holds its row lock until the
// surrounding transaction ends.
func (r *Impl) LoadForUpdate(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	row, err := r.selectRow(ctx, r.resolveDB(db), key, true)
	if err != nil {
		return nil, err
	}
	return row.ToRecord(), nil
}

func (r *Impl) selectRow(ctx context.Context, db bun.IDB, key eventdomain.Key, forUpdate bool) (*Event, error) {
	row := new(Event)
	q := db.NewSelect().
		Model(row).
		Where("e.channel_id = ? AND e.message_id = ?", key.ChannelID(), key.MessageID())
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", key, err)
	}
	return row, nil
}

// Save inserts or replaces the whole record.
func (r *Impl) Save(ctx context.Context, db bun.IDB, rec *eventdomain.EventRecord) error {
	if rec.Key() == "" {
		return fmt.Errorf("cannot save an event without a message identity")
	}
	row := FromRecord(rec)
	row.UpdatedAt = time.Now().UTC()
	_, err := r.resolveDB(db).NewInsert().
		Model(row).
		On("CONFLICT (channel_id, message_id) DO UPDATE").
		Set("guild_id = EXCLUDED.guild_id").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("duration_seconds = EXCLUDED.duration_seconds").
		Set("leader_id = EXCLUDED.leader_id").
		Set("kind = EXCLUDED.kind").
		Set("scope = EXCLUDED.scope").
		Set("notification_role_id = EXCLUDED.notification_role_id").
		Set("starts_at = EXCLUDED.starts_at").
		Set("calendar_event_id = EXCLUDED.calendar_event_id").
		Set("roster = EXCLUDED.roster").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", rec.Key(), err)
	}
	return nil
}

// Delete removes the event stored under key.
func (r *Impl) Delete(ctx context.Context, db bun.IDB, key eventdomain.Key) error {
	_, err := r.resolveDB(db).NewDelete().
		Model((*Event)(nil)).
		Where("channel_id = ? AND message_id = ?", key.ChannelID(), key.MessageID()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", key, err)
	}
	return nil
}

// UpsertPlayer places p in role under a row lock.
func (r *Impl) UpsertPlayer(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, p eventdomain.Player) error {
	return r.mutateRoster(ctx, db, key, func(roster *eventdomain.Roster) error {
		switch role {
		case eventdomain.RoleReserve:
			roster.AddReserve(p)
		case eventdomain.RoleAbsent:
			roster.AddAbsent(p)
		default:
			if !eventdomain.HasRole(roster.Kind(), role) {
				return fmt.Errorf("role %q does not belong to %s events", role, roster.Kind())
			}
			roster.RemovePlayer(p.ID)
			roster.Prefill(role, []eventdomain.Player{p})
		}
		return nil
	})
}

// UpdateRoleCapacity overwrites the capacity of role under a row lock.
func (r *Impl) UpdateRoleCapacity(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, c eventdomain.Capacity) error {
	return r.mutateRoster(ctx, db, key, func(roster *eventdomain.Roster) error {
		if !eventdomain.HasRole(roster.Kind(), role) || role.IsBackup() {
			return fmt.Errorf("role %q has no configurable capacity on %s events", role, roster.Kind())
		}
		roster.SetCapacity(role, c)
		return nil
	})
}

// mutateRoster runs fn on the stored roster and writes it back. Without a transaction the
// lock only lasts for the select, so callers that need atomicity pass a bun.Tx.
func (r *Impl) mutateRoster(ctx context.Context, db bun.IDB, key eventdomain.Key, fn func(*eventdomain.Roster) error) error {
	db = r.resolveDB(db)
	row, err := r.selectRow(ctx, db, key, true)
	if err != nil {
		return err
	}
	if row.Roster == nil {
		row.Roster = eventdomain.NewRoster(eventdomain.EventKind(row.Kind))
	}
	if err := fn(row.Roster); err != nil {
		return err
	}
	return r.updateColumn(ctx, db, key, "roster", row.Roster)
}

func (r *Impl) UpdateDateTime(ctx context.Context, db bun.IDB, key eventdomain.Key, startsAt time.Time) error {
	return r.updateColumn(ctx, r.resolveDB(db), key, "starts_at", startsAt.UTC())
}

func (r *Impl) UpdateTitle(ctx context.Context, db bun.IDB, key eventdomain.Key, title string) error {
	return r.updateColumn(ctx, r.resolveDB(db), key, "title", title)
}

func (r *Impl) UpdateDuration(ctx context.Context, db bun.IDB, key eventdomain.Key, d time.Duration) error {
	return r.updateColumn(ctx, r.resolveDB(db), key, "duration_seconds", int64(d/time.Second))
}

func (r *Impl) UpdateDescription(ctx context.Context, db bun.IDB, key eventdomain.Key, description string) error {
	return r.updateColumn(ctx, r.resolveDB(db), key, "description", description)
}

func (r *Impl) updateColumn(ctx context.Context, db bun.IDB, key eventdomain.Key, column string, value any) error {
	q := db.NewUpdate().Model((*Event)(nil))
	if roster, ok := value.(*eventdomain.Roster); ok {
		raw, err := json.Marshal(roster)
		if err != nil {
			return fmt.Errorf("failed to encode roster of event %s: %w", key, err)
		}
		q = q.Set("? = ?::jsonb", bun.Ident(column), string(raw))
	} else {
		q = q.Set("? = ?", bun.Ident(column), value)
	}
	result, err := q.
		Set("updated_at = ?", time.Now().UTC()).
		Where("channel_id = ? AND message_id = ?", key.ChannelID(), key.MessageID()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s of event %s: %w", column, key, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUpcoming returns events starting after t, earliest first.
func (r *Impl) ListUpcoming(ctx context.Context, db bun.IDB, after time.Time) ([]*eventdomain.EventRecord, error) {
	var rows []Event
	err := r.resolveDB(db).NewSelect().
		Model(&rows).
		Where("e.starts_at > ?", after.UTC()).
		Order("e.starts_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	out := make([]*eventdomain.EventRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToRecord())
	}
	return out, nil
}
