package eventplatform

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	eventservice "github.com/Black-And-White-Club/roster-bot/app/modules/event/application"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeRequester answers subjects from canned replies and records request bodies.
type FakeRequester struct {
	Replies  map[string]string
	Err      error
	Requests map[string][]byte
	Subjects []string
}

func NewFakeRequester() *FakeRequester {
	return &FakeRequester{Replies: map[string]string{}, Requests: map[string][]byte{}}
}

func (f *FakeRequester) Request(_ context.Context, subject string, payload []byte) ([]byte, error) {
	f.Subjects = append(f.Subjects, subject)
	f.Requests[subject] = payload
	if f.Err != nil {
		return nil, f.Err
	}
	r, ok := f.Replies[subject]
	if !ok {
		r = `{}`
	}
	return []byte(r), nil
}

func publishedRecord() *eventdomain.EventRecord {
	rec := eventdomain.NewDraft("guild-1", "leader-1", eventdomain.KindTrial)
	rec.Title = "Sunspire"
	rec.Duration = 2 * time.Hour
	start := time.Date(2026, 10, 20, 20, 0, 0, 0, time.UTC)
	rec.StartsAt = &start
	rec.Roster.Signup(eventdomain.RoleTank, eventdomain.Player{ID: "u1", Name: "Aela"})
	if err := rec.Publish("chan-1", "msg-1"); err != nil {
		panic(err)
	}
	return rec
}

func TestClient_PostRosterSendsView(t *testing.T) {
	req := NewFakeRequester()
	req.Replies[rosterevents.PlatformPostRoster] = `{"data":{"message_id":"m-9"}}`
	c := NewClient(req, Config{}, nil)

	rec := publishedRecord()
	id, err := c.PostRoster(context.Background(), "chan-2", rec)
	require.NoError(t, err)
	assert.Equal(t, "m-9", id)

	var sent postRosterRequest
	require.NoError(t, json.Unmarshal(req.Requests[rosterevents.PlatformPostRoster], &sent))
	assert.Equal(t, "chan-2", sent.ChannelID)
	assert.Equal(t, "Sunspire", sent.Roster.Title)
	assert.Equal(t, "Trial", sent.Roster.KindLabel)
	require.NotNil(t, sent.Roster.EndsAt)
	assert.Equal(t, time.Date(2026, 10, 20, 22, 0, 0, 0, time.UTC), sent.Roster.EndsAt.UTC())
	require.Len(t, sent.Roster.Buckets, 5)
	assert.Equal(t, "2", sent.Roster.Buckets[0].Capacity)
	assert.Equal(t, "∞", sent.Roster.Buckets[3].Capacity)
	assert.Equal(t, "Aela", sent.Roster.Buckets[0].Players[0].Name)
}

func TestClient_PostRosterWithoutMessageID(t *testing.T) {
	c := NewClient(NewFakeRequester(), Config{}, nil)
	_, err := c.PostRoster(context.Background(), "chan-1", publishedRecord())
	assert.ErrorIs(t, err, ErrGateway)
}

func TestClient_Replies(t *testing.T) {
	req := NewFakeRequester()
	req.Replies[rosterevents.PlatformCalendarCreate] = `{"data":{"calendar_id":"cal-7"}}`
	req.Replies[rosterevents.PlatformCalendarStatus] = `{"data":{"status":"active"}}`
	req.Replies[rosterevents.PlatformListMessages] = `{"data":{"messages":[{"id":"a","pinned":true},{"id":"b"}]}}`
	req.Replies[rosterevents.PlatformMemberRoles] = `{"data":{"role_ids":["r1","r2"]}}`
	c := NewClient(req, Config{}, nil)
	ctx := context.Background()

	calID, err := c.CreateCalendarEvent(ctx, "g", eventservice.CalendarEvent{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "cal-7", calID)

	status, err := c.CalendarEventStatus(ctx, "g", "cal-7")
	require.NoError(t, err)
	assert.Equal(t, eventservice.CalendarActive, status)

	msgs, err := c.ListChannelMessages(ctx, "chan-1")
	require.NoError(t, err)
	assert.Equal(t, []eventservice.ChannelMessage{{ID: "a", Pinned: true}, {ID: "b"}}, msgs)

	roles, err := c.MemberRoles(ctx, "g", "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, roles)
}

func TestClient_Errors(t *testing.T) {
	t.Run("gateway error in reply", func(t *testing.T) {
		req := NewFakeRequester()
		req.Replies[rosterevents.PlatformSendDM] = `{"error":"user has DMs closed"}`
		err := NewClient(req, Config{}, nil).SendDirectMessage(context.Background(), "u", "hi")
		assert.ErrorIs(t, err, ErrGateway)
		assert.Contains(t, err.Error(), "DMs closed")
	})
	t.Run("transport error", func(t *testing.T) {
		req := NewFakeRequester()
		req.Err = errors.New("no responders")
		err := NewClient(req, Config{}, nil).SendChannelMessage(context.Background(), "c", "hi")
		assert.EqualError(t, err, "no responders")
	})
	t.Run("malformed reply", func(t *testing.T) {
		req := NewFakeRequester()
		req.Replies[rosterevents.PlatformCalendarCancel] = `not json`
		err := NewClient(req, Config{}, nil).CancelCalendarEvent(context.Background(), "g", "c")
		assert.Error(t, err)
	})
}

func TestClient_DeleteNothingSkipsRequest(t *testing.T) {
	req := NewFakeRequester()
	require.NoError(t, NewClient(req, Config{}, nil).DeleteMessages(context.Background(), "c", nil))
	assert.Empty(t, req.Subjects)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	req := NewFakeRequester()
	c := NewClient(req, Config{RequestsPerSecond: 0.001, Burst: 1}, nil)

	require.NoError(t, c.SendChannelMessage(context.Background(), "c", "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.SendChannelMessage(ctx, "c", "second")
	assert.Error(t, err)
	assert.Len(t, req.Subjects, 1)
}
