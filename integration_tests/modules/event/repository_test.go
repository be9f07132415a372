//go:build integration

package eventintegrationtests

import (
	"context"
	"sync"
	"testing"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func publishedEvent(t *testing.T, kind eventdomain.EventKind, startsAt time.Time) *eventdomain.EventRecord {
	t.Helper()
	rec := eventdomain.NewDraft("guild-1", "leader-1", kind)
	rec.Title = gofakeit.Sentence(3)
	rec.Description = gofakeit.Sentence(8)
	rec.Duration = 2 * time.Hour
	start := startsAt.UTC().Truncate(time.Second)
	rec.StartsAt = &start
	rec.ChannelID = gofakeit.Numerify("chan-######")
	rec.MessageID = gofakeit.Numerify("msg-######")
	rec.State = eventdomain.StatePublished
	return rec
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	testEnv.ResetDB(t)
	ctx := context.Background()
	repo := eventdb.NewRepository(testEnv.DB)

	rec := publishedEvent(t, eventdomain.KindTrial, time.Now().Add(48*time.Hour))
	rec.Roster.Signup(eventdomain.RoleTank, eventdomain.Player{ID: "u1", Name: "Aela", Class: eventdomain.ClassWarden})
	rec.Roster.SetCapacity(eventdomain.RoleDD, eventdomain.Limit(4))
	require.NoError(t, repo.Save(ctx, nil, rec))

	got, err := repo.Load(ctx, nil, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Duration, got.Duration)
	assert.True(t, rec.StartsAt.Equal(*got.StartsAt))
	assert.Equal(t, eventdomain.KindTrial, got.Roster.Kind())

	tanks := got.Roster.Role(eventdomain.RoleTank)
	require.Len(t, tanks.Players, 1)
	assert.Equal(t, "Aela", tanks.Players[0].Name)
	assert.Equal(t, eventdomain.ClassWarden, tanks.Players[0].Class)

	ddCap, limited := got.Roster.Role(eventdomain.RoleDD).Capacity.Max()
	assert.True(t, limited)
	assert.Equal(t, 4, ddCap)
}

func TestRepository_LoadMissing(t *testing.T) {
	testEnv.ResetDB(t)
	repo := eventdb.NewRepository(testEnv.DB)

	_, err := repo.Load(context.Background(), nil, eventdomain.NewKey("nope", "nope"))
	assert.ErrorIs(t, err, eventdb.ErrNotFound)
}

func TestRepository_FieldUpdates(t *testing.T) {
	testEnv.ResetDB(t)
	ctx := context.Background()
	repo := eventdb.NewRepository(testEnv.DB)

	rec := publishedEvent(t, eventdomain.KindGeneric, time.Now().Add(24*time.Hour))
	require.NoError(t, repo.Save(ctx, nil, rec))
	key := rec.Key()

	newStart := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateTitle(ctx, nil, key, "Renamed"))
	require.NoError(t, repo.UpdateDescription(ctx, nil, key, "New text"))
	require.NoError(t, repo.UpdateDuration(ctx, nil, key, 90*time.Minute))
	require.NoError(t, repo.UpdateDateTime(ctx, nil, key, newStart))

	got, err := repo.Load(ctx, nil, key)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "New text", got.Description)
	assert.Equal(t, 90*time.Minute, got.Duration)
	assert.True(t, newStart.Equal(*got.StartsAt))

	err = repo.UpdateTitle(ctx, nil, eventdomain.NewKey("x", "y"), "ghost")
	assert.ErrorIs(t, err, eventdb.ErrNotFound)
}

func TestRepository_UpsertPlayerAndCapacity(t *testing.T) {
	testEnv.ResetDB(t)
	ctx := context.Background()
	repo := eventdb.NewRepository(testEnv.DB)

	rec := publishedEvent(t, eventdomain.KindTrial, time.Now().Add(24*time.Hour))
	require.NoError(t, repo.Save(ctx, nil, rec))
	key := rec.Key()

	p := eventdomain.Player{ID: "u9", Name: "Borin"}
	require.NoError(t, repo.UpsertPlayer(ctx, nil, key, eventdomain.RoleHealer, p))
	require.NoError(t, repo.UpsertPlayer(ctx, nil, key, eventdomain.RoleReserve, p))
	require.NoError(t, repo.UpdateRoleCapacity(ctx, nil, key, eventdomain.RoleHealer, eventdomain.Limit(1)))

	got, err := repo.Load(ctx, nil, key)
	require.NoError(t, err)
	assert.Empty(t, got.Roster.Role(eventdomain.RoleHealer).Players)
	require.Len(t, got.Roster.Role(eventdomain.RoleReserve).Players, 1)
	healerCap, _ := got.Roster.Role(eventdomain.RoleHealer).Capacity.Max()
	assert.Equal(t, 1, healerCap)

	err = repo.UpsertPlayer(ctx, nil, key, eventdomain.RoleBomber, p)
	assert.Error(t, err, "bomber does not belong to trials")
	err = repo.UpdateRoleCapacity(ctx, nil, key, eventdomain.RoleReserve, eventdomain.Limit(3))
	assert.Error(t, err)
}

func TestRepository_ConcurrentUpsertsInTransactions(t *testing.T) {
	testEnv.ResetDB(t)
	ctx := context.Background()
	repo := eventdb.NewRepository(testEnv.DB)

	rec := publishedEvent(t, eventdomain.KindGeneric, time.Now().Add(24*time.Hour))
	require.NoError(t, repo.Save(ctx, nil, rec))
	key := rec.Key()

	const players = 20
	var wg sync.WaitGroup
	errs := make(chan error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := eventdomain.Player{ID: gofakeit.UUID(), Name: gofakeit.FirstName()}
			errs <- testEnv.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				return repo.UpsertPlayer(ctx, tx, key, eventdomain.RoleSigned, p)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Load(ctx, nil, key)
	require.NoError(t, err)
	assert.Len(t, got.Roster.Role(eventdomain.RoleSigned).Players, players)
}

func TestRepository_ListUpcomingAndDelete(t *testing.T) {
	testEnv.ResetDB(t)
	ctx := context.Background()
	repo := eventdb.NewRepository(testEnv.DB)
	now := time.Now()

	past := publishedEvent(t, eventdomain.KindGeneric, now.Add(-time.Hour))
	later := publishedEvent(t, eventdomain.KindGeneric, now.Add(48*time.Hour))
	sooner := publishedEvent(t, eventdomain.KindTrial, now.Add(3*time.Hour))
	for _, rec := range []*eventdomain.EventRecord{past, later, sooner} {
		require.NoError(t, repo.Save(ctx, nil, rec))
	}

	upcoming, err := repo.ListUpcoming(ctx, nil, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, sooner.Key(), upcoming[0].Key())
	assert.Equal(t, later.Key(), upcoming[1].Key())

	require.NoError(t, repo.Delete(ctx, nil, sooner.Key()))
	require.NoError(t, repo.Delete(ctx, nil, sooner.Key()))
	_, err = repo.Load(ctx, nil, sooner.Key())
	assert.ErrorIs(t, err, eventdb.ErrNotFound)
}
