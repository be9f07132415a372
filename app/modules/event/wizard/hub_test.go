package eventwizard

import (
	"context"
	"sync"
	"testing"
	"time"

	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/Black-And-White-Club/roster-bot/app/shared/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWizardMetrics struct {
	mu        sync.Mutex
	started   int
	completed []int
	aborted   []string
}

func (m *recordingWizardMetrics) RecordStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingWizardMetrics) RecordCompleted(created, occupied int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, created, occupied)
}

func (m *recordingWizardMetrics) RecordAborted(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborted = append(m.aborted, reason)
}

func (m *recordingWizardMetrics) Aborted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.aborted...)
}

type hubEnv struct {
	hub     *Hub
	bus     *recordingBus
	pub     *FakePublisher
	clock   *clock.FakeClock
	metrics *recordingWizardMetrics
}

func newHubEnv(t *testing.T) *hubEnv {
	t.Helper()
	env := &hubEnv{
		bus:     newRecordingBus(),
		pub:     &FakePublisher{},
		clock:   clock.NewFakeClock(epoch),
		metrics: &recordingWizardMetrics{},
	}
	env.hub = NewHub(env.bus, env.pub, NewMachine(env.clock, -time.Hour), Config{}, env.clock, nil, env.metrics)
	t.Cleanup(env.hub.Close)
	return env
}

func (e *hubEnv) start() string {
	return e.hub.Start(context.Background(), &rosterevents.WizardStartRequestedPayloadV1{
		GuildID:   "g1",
		ChannelID: "c1",
		UserID:    "leader",
	})
}

func (e *hubEnv) next(t *testing.T) published {
	t.Helper()
	select {
	case p := <-e.bus.out:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("nothing was published")
		return published{}
	}
}

func (e *hubEnv) answer(t *testing.T, sessionID string, in rosterevents.WizardInputV1) {
	t.Helper()
	require.NoError(t, e.hub.Deliver(context.Background(), &rosterevents.WizardInputSubmittedPayloadV1{
		SessionID: sessionID,
		UserID:    "leader",
		Input:     in,
	}))
}

func TestHub_CompletesOverTheBus(t *testing.T) {
	env := newHubEnv(t)
	answers := map[string]rosterevents.WizardInputV1{
		string(StepSelectKind):    {Type: rosterevents.InputKindChosen, Value: "generic"},
		string(StepBasicInfo):     {Type: rosterevents.InputBasicInfo, Fields: map[string]string{"title": "Meeting", "duration": "1"}},
		string(StepComposition):   {Type: rosterevents.InputCompositionConfirmed},
		string(StepScope):         {Type: rosterevents.InputScope, Value: "public"},
		string(StepDateSelection): {Type: rosterevents.InputChannels, Channels: []rosterevents.ChannelRefV1{{ID: "c-sun", Name: "domingo"}}},
		string(StepTimeSelection): {Type: rosterevents.InputSlot, Value: "20:00"},
	}

	id := env.start()
	var steps []string
	for {
		msg := env.next(t)
		switch msg.topic {
		case rosterevents.WizardPromptV1:
			p := decode[rosterevents.WizardPromptPayloadV1](msg)
			require.Equal(t, id, p.SessionID)
			assert.Equal(t, "c1", p.ChannelID)
			steps = append(steps, p.Prompt.Step)
			in, ok := answers[p.Prompt.Step]
			require.True(t, ok, "unexpected step %s", p.Prompt.Step)
			env.answer(t, id, in)
		case rosterevents.WizardCompletedV1:
			done := decode[rosterevents.WizardCompletedPayloadV1](msg)
			assert.Equal(t, id, done.SessionID)
			assert.Equal(t, "leader", done.UserID)
			assert.Len(t, done.Summary.Created, 1)
			assert.Equal(t, []string{"select_kind", "basic_info", "composition", "scope", "date_selection", "time_selection"}, steps)
			assert.Equal(t, 1, env.pub.Calls())
			assert.Eventually(t, func() bool { return env.hub.Active() == 0 }, time.Second, 10*time.Millisecond)
			return
		default:
			t.Fatalf("unexpected topic %s", msg.topic)
		}
	}
}

func TestHub_TimeoutAbortsSession(t *testing.T) {
	env := newHubEnv(t)
	id := env.start()

	first := env.next(t)
	require.Equal(t, rosterevents.WizardPromptV1, first.topic)
	prompt := decode[rosterevents.WizardPromptPayloadV1](first)
	assert.Equal(t, epoch.Add(defaultStepTimeout), prompt.Prompt.ExpiresAt.UTC())

	env.clock.Advance(defaultStepTimeout)

	msg := env.next(t)
	require.Equal(t, rosterevents.WizardAbortedV1, msg.topic)
	aborted := decode[rosterevents.WizardAbortedPayloadV1](msg)
	assert.Equal(t, id, aborted.SessionID)
	assert.Equal(t, "timeout", aborted.Reason)
	assert.Equal(t, 0, env.pub.Calls())
	assert.Equal(t, []string{"timeout"}, env.metrics.Aborted())
}

func TestHub_DeliverToUnknownSession(t *testing.T) {
	env := newHubEnv(t)
	env.answer(t, "gone", rosterevents.WizardInputV1{Type: rosterevents.InputKindChosen, Value: "trial"})

	msg := env.next(t)
	require.Equal(t, rosterevents.InteractionUnknownV1, msg.topic)
	p := decode[rosterevents.InteractionUnknownPayloadV1](msg)
	assert.Equal(t, "gone", p.SessionID)
	assert.Equal(t, "leader", p.UserID)
}

func TestHub_InputFromAnotherUserIsRejected(t *testing.T) {
	env := newHubEnv(t)
	id := env.start()
	require.Equal(t, rosterevents.WizardPromptV1, env.next(t).topic)

	require.NoError(t, env.hub.Deliver(context.Background(), &rosterevents.WizardInputSubmittedPayloadV1{
		SessionID: id,
		UserID:    "intruder",
		Input:     rosterevents.WizardInputV1{Type: rosterevents.InputKindChosen, Value: "trial"},
	}))

	msg := env.next(t)
	require.Equal(t, rosterevents.InteractionUnknownV1, msg.topic)
	assert.Equal(t, "intruder", decode[rosterevents.InteractionUnknownPayloadV1](msg).UserID)
	assert.Equal(t, 1, env.hub.Active())
}

func TestHub_UndecodableInputAbortsSession(t *testing.T) {
	env := newHubEnv(t)
	id := env.start()
	require.Equal(t, rosterevents.WizardPromptV1, env.next(t).topic)

	env.answer(t, id, rosterevents.WizardInputV1{Type: "dance"})

	assert.Equal(t, rosterevents.InteractionUnknownV1, env.next(t).topic)
	msg := env.next(t)
	require.Equal(t, rosterevents.WizardAbortedV1, msg.topic)
	assert.Equal(t, "unknown_interaction", decode[rosterevents.WizardAbortedPayloadV1](msg).Reason)
}

func TestHub_LatestUnreadInputWins(t *testing.T) {
	env := newHubEnv(t)
	box := &inbox{ref: Ref{SessionID: "s1", UserID: "leader"}, ch: make(chan Input, 1)}
	env.hub.mu.Lock()
	env.hub.sessions["s1"] = box
	env.hub.mu.Unlock()

	env.answer(t, "s1", rosterevents.WizardInputV1{Type: rosterevents.InputKindChosen, Value: "trial"})
	env.answer(t, "s1", rosterevents.WizardInputV1{Type: rosterevents.InputKindChosen, Value: "generic"})

	select {
	case in := <-box.ch:
		assert.Equal(t, KindChosen{Kind: "generic"}, in)
	default:
		t.Fatal("inbox is empty")
	}
	assert.Empty(t, box.ch, "the replaced answer is gone")
}

func TestInbox_Put(t *testing.T) {
	box := &inbox{ch: make(chan Input, 1)}
	assert.False(t, box.put(Cancelled{}))
	assert.True(t, box.put(KindChosen{Kind: "trial"}))
	assert.Equal(t, KindChosen{Kind: "trial"}, <-box.ch)
	assert.False(t, box.put(Cancelled{}))
}

func TestHub_CloseAbortsRunningSessions(t *testing.T) {
	env := newHubEnv(t)
	env.start()
	require.Equal(t, rosterevents.WizardPromptV1, env.next(t).topic)

	env.hub.Close()

	msg := env.next(t)
	require.Equal(t, rosterevents.WizardAbortedV1, msg.topic)
	assert.Equal(t, "shutdown", decode[rosterevents.WizardAbortedPayloadV1](msg).Reason)
	assert.Equal(t, 0, env.hub.Active())
}
