//go:build integration

package eventintegrationtests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	reminderqueue "github.com/Black-And-White-Club/roster-bot/app/modules/reminder/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *keyRecorder) Notify(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *keyRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func newQueue(t *testing.T, notifier reminder.Notifier, lead time.Duration) *reminderqueue.Service {
	t.Helper()
	svc, err := reminderqueue.NewService(testEnv.Ctx, reminderqueue.Config{
		DSN:        testEnv.DSN,
		Lead:       lead,
		MaxWorkers: 2,
	}, testEnv.DB, notifier, testEnv.Obs)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})
	return svc
}

func clearJobs(t *testing.T) {
	t.Helper()
	_, err := testEnv.DB.ExecContext(testEnv.Ctx, "DELETE FROM river_job")
	require.NoError(t, err)
}

func TestReminderQueue_SetReplacesAndCancelDrops(t *testing.T) {
	svc := newQueue(t, &keyRecorder{}, time.Hour)
	clearJobs(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "c1:m1", time.Now().Add(3*time.Hour)))
	require.NoError(t, svc.Set(ctx, "c1:m1", time.Now().Add(5*time.Hour)))
	require.NoError(t, svc.Set(ctx, "c2:m2", time.Now().Add(4*time.Hour)))

	jobs, err := svc.ScheduledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c2:m2", jobs[0].Key)
	assert.Equal(t, "c1:m1", jobs[1].Key)

	require.NoError(t, svc.Cancel(ctx, "c1:m1"))
	require.NoError(t, svc.Cancel(ctx, "unknown:key"))
	jobs, err = svc.ScheduledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "c2:m2", jobs[0].Key)

	require.NoError(t, svc.HealthCheck(ctx))
}

func TestReminderQueue_SkipsOpenWindow(t *testing.T) {
	svc := newQueue(t, &keyRecorder{}, time.Hour)
	clearJobs(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "c:m", time.Now().Add(30*time.Minute)))
	jobs, err := svc.ScheduledJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestReminderQueue_FiresDueJob(t *testing.T) {
	rec := &keyRecorder{}
	svc := newQueue(t, rec, time.Hour)
	clearJobs(t)
	ctx := context.Background()
	require.NoError(t, svc.Start(testEnv.Ctx))

	require.NoError(t, svc.Set(ctx, "c:fire", time.Now().Add(time.Hour+2*time.Second)))

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 30*time.Second, 250*time.Millisecond)
	assert.Equal(t, []string{"c:fire"}, rec.snapshot())
}
