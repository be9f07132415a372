package eventwizard

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	rosterevents "github.com/Black-And-White-Club/roster-bot/app/modules/event/events"
	"github.com/ThreeDotsLabs/watermill/message"
)

// FakePrompter answers prompts from a script. An exhausted script times out.
type FakePrompter struct {
	mu       sync.Mutex
	script   []Input
	prompts  []rosterevents.PromptV1
	timeouts []time.Duration
}

func NewFakePrompter(script ...Input) *FakePrompter {
	return &FakePrompter{script: script}
}

func (f *FakePrompter) Ask(_ context.Context, _ Ref, prompt rosterevents.PromptV1, timeout time.Duration) (Input, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.timeouts = append(f.timeouts, timeout)
	if len(f.script) == 0 {
		return nil, eventdomain.ErrTimeout
	}
	in := f.script[0]
	f.script = f.script[1:]
	return in, nil
}

func (f *FakePrompter) Prompts() []rosterevents.PromptV1 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rosterevents.PromptV1(nil), f.prompts...)
}

// FakePublisher records published drafts.
type FakePublisher struct {
	mu               sync.Mutex
	PublishDraftFunc func(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error)
	drafts           []*eventdomain.EventRecord
	placements       [][]eventdomain.Placement
}

func (f *FakePublisher) PublishDraft(ctx context.Context, draft *eventdomain.EventRecord, placements []eventdomain.Placement) (eventdomain.PublishSummary, error) {
	f.mu.Lock()
	f.drafts = append(f.drafts, draft)
	f.placements = append(f.placements, placements)
	f.mu.Unlock()
	if f.PublishDraftFunc != nil {
		return f.PublishDraftFunc(ctx, draft, placements)
	}
	summary := eventdomain.PublishSummary{}
	for i, p := range placements {
		summary.Created = append(summary.Created, eventdomain.NewKey(p.ChannelID, "msg"+strconv.Itoa(i)))
	}
	return summary, nil
}

func (f *FakePublisher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

type published struct {
	topic   string
	payload []byte
}

// recordingBus is a message.Publisher that hands every message to the test.
type recordingBus struct {
	out chan published
}

func newRecordingBus() *recordingBus {
	return &recordingBus{out: make(chan published, 64)}
}

func (b *recordingBus) Publish(topic string, msgs ...*message.Message) error {
	for _, m := range msgs {
		b.out <- published{topic: topic, payload: m.Payload}
	}
	return nil
}

func (b *recordingBus) Close() error { return nil }

func decode[T any](p published) T {
	var v T
	if err := json.Unmarshal(p.payload, &v); err != nil {
		panic(err)
	}
	return v
}
