package eventdb

import (
	"context"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/uptrace/bun"
)

// Repository defines the contract for event persistence. A nil db uses the
// repository's own connection.
type Repository interface {
	// Load returns the record stored under key or ErrNotFound.
	Load(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error)

	// LoadForUpdate is Load with a row lock held until db's transaction ends. Decisions
	// made on the returned record stay valid for writes in the same transaction.
	LoadForUpdate(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error)

	// Save inserts or replaces the whole record.
	Save(ctx context.Context, db bun.IDB, rec *eventdomain.EventRecord) error

	// Delete removes the record. Missing records are not an error.
	Delete(ctx context.Context, db bun.IDB, key eventdomain.Key) error

	// UpsertPlayer places p in role, removing any earlier occurrence. Capacity is not checked.
	UpsertPlayer(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, p eventdomain.Player) error

	// UpdateRoleCapacity overwrites the capacity of a signed role.
	UpdateRoleCapacity(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, c eventdomain.Capacity) error

	UpdateDateTime(ctx context.Context, db bun.IDB, key eventdomain.Key, startsAt time.Time) error
	UpdateTitle(ctx context.Context, db bun.IDB, key eventdomain.Key, title string) error
	UpdateDuration(ctx context.Context, db bun.IDB, key eventdomain.Key, d time.Duration) error
	UpdateDescription(ctx context.Context, db bun.IDB, key eventdomain.Key, description string) error

	// ListUpcoming returns records starting after t, earliest first.
	ListUpcoming(ctx context.Context, db bun.IDB, after time.Time) ([]*eventdomain.EventRecord, error)
}
