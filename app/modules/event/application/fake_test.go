package eventservice

import (
	"context"
	"strconv"
	"sync"
	"time"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	eventdb "github.com/Black-And-White-Club/roster-bot/app/modules/event/infrastructure/repositories"
	"github.com/Black-And-White-Club/roster-bot/app/modules/reminder"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Event Repo
// ------------------------

// FakeEventRepo keeps records in memory unless a Func override is set.
type FakeEventRepo struct {
	mu    sync.Mutex
	trace []string
	store map[eventdomain.Key]*eventdomain.EventRecord

	LoadFunc         func(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error)
	SaveFunc         func(ctx context.Context, db bun.IDB, rec *eventdomain.EventRecord) error
	DeleteFunc       func(ctx context.Context, db bun.IDB, key eventdomain.Key) error
	UpsertPlayerFunc func(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, p eventdomain.Player) error
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{store: map[eventdomain.Key]*eventdomain.EventRecord{}}
}

func (f *FakeEventRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeEventRepo) Put(rec *eventdomain.EventRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[rec.Key()] = rec.Clone()
}

func (f *FakeEventRepo) Get(key eventdomain.Key) (*eventdomain.EventRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.store[key]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

func (f *FakeEventRepo) Load(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	f.record("Load")
	if f.LoadFunc != nil {
		return f.LoadFunc(ctx, db, key)
	}
	if rec, ok := f.Get(key); ok {
		return rec, nil
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) LoadForUpdate(ctx context.Context, db bun.IDB, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	f.record("LoadForUpdate")
	if f.LoadFunc != nil {
		return f.LoadFunc(ctx, db, key)
	}
	if rec, ok := f.Get(key); ok {
		return rec, nil
	}
	return nil, eventdb.ErrNotFound
}

func (f *FakeEventRepo) Save(ctx context.Context, db bun.IDB, rec *eventdomain.EventRecord) error {
	f.record("Save")
	if f.SaveFunc != nil {
		return f.SaveFunc(ctx, db, rec)
	}
	f.Put(rec)
	return nil
}

func (f *FakeEventRepo) Delete(ctx context.Context, db bun.IDB, key eventdomain.Key) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, key)
	return nil
}

func (f *FakeEventRepo) UpsertPlayer(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, p eventdomain.Player) error {
	f.record("UpsertPlayer")
	if f.UpsertPlayerFunc != nil {
		return f.UpsertPlayerFunc(ctx, db, key, role, p)
	}
	return f.mutate(key, func(rec *eventdomain.EventRecord) {
		switch role {
		case eventdomain.RoleReserve:
			rec.Roster.AddReserve(p)
		case eventdomain.RoleAbsent:
			rec.Roster.AddAbsent(p)
		default:
			rec.Roster.Prefill(role, []eventdomain.Player{p})
		}
	})
}

func (f *FakeEventRepo) UpdateRoleCapacity(ctx context.Context, db bun.IDB, key eventdomain.Key, role eventdomain.Role, c eventdomain.Capacity) error {
	f.record("UpdateRoleCapacity")
	return f.mutate(key, func(rec *eventdomain.EventRecord) { rec.Roster.SetCapacity(role, c) })
}

func (f *FakeEventRepo) UpdateDateTime(ctx context.Context, db bun.IDB, key eventdomain.Key, startsAt time.Time) error {
	f.record("UpdateDateTime")
	return f.mutate(key, func(rec *eventdomain.EventRecord) { rec.StartsAt = &startsAt })
}

func (f *FakeEventRepo) UpdateTitle(ctx context.Context, db bun.IDB, key eventdomain.Key, title string) error {
	f.record("UpdateTitle")
	return f.mutate(key, func(rec *eventdomain.EventRecord) { rec.Title = title })
}

func (f *FakeEventRepo) UpdateDuration(ctx context.Context, db bun.IDB, key eventdomain.Key, d time.Duration) error {
	f.record("UpdateDuration")
	return f.mutate(key, func(rec *eventdomain.EventRecord) { rec.Duration = d })
}

func (f *FakeEventRepo) UpdateDescription(ctx context.Context, db bun.IDB, key eventdomain.Key, description string) error {
	f.record("UpdateDescription")
	return f.mutate(key, func(rec *eventdomain.EventRecord) { rec.Description = description })
}

func (f *FakeEventRepo) ListUpcoming(ctx context.Context, db bun.IDB, after time.Time) ([]*eventdomain.EventRecord, error) {
	f.record("ListUpcoming")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*eventdomain.EventRecord
	for _, rec := range f.store {
		if rec.StartsAt != nil && rec.StartsAt.After(after) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (f *FakeEventRepo) mutate(key eventdomain.Key, fn func(*eventdomain.EventRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.store[key]
	if !ok {
		return eventdb.ErrNotFound
	}
	fn(rec)
	return nil
}

func (f *FakeEventRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ eventdb.Repository = (*FakeEventRepo)(nil)

// ------------------------
// Fake Platform
// ------------------------

type FakePlatform struct {
	mu    sync.Mutex
	trace []string
	seq   int

	DMs             []string
	ChannelMessages map[string][]string

	PostRosterFunc          func(ctx context.Context, channelID string, rec *eventdomain.EventRecord) (string, error)
	CreateCalendarEventFunc func(ctx context.Context, guildID string, ev CalendarEvent) (string, error)
	CancelCalendarEventFunc func(ctx context.Context, guildID, calendarID string) error
	UpdateCalendarEventFunc func(ctx context.Context, guildID, calendarID string, ev CalendarEvent) error
	CalendarEventStatusFunc func(ctx context.Context, guildID, calendarID string) (CalendarStatus, error)
	ListChannelMessagesFunc func(ctx context.Context, channelID string) ([]ChannelMessage, error)
	DeleteMessagesFunc      func(ctx context.Context, channelID string, ids []string) error
	MemberRolesFunc         func(ctx context.Context, guildID, userID string) ([]string, error)
}

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{ChannelMessages: map[string][]string{}}
}

func (f *FakePlatform) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakePlatform) PostRoster(ctx context.Context, channelID string, rec *eventdomain.EventRecord) (string, error) {
	f.record("PostRoster")
	if f.PostRosterFunc != nil {
		return f.PostRosterFunc(ctx, channelID, rec)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := "msg" + strconv.Itoa(f.seq)
	f.ChannelMessages[channelID] = append(f.ChannelMessages[channelID], id)
	return id, nil
}

func (f *FakePlatform) EditRoster(ctx context.Context, rec *eventdomain.EventRecord) error {
	f.record("EditRoster")
	return nil
}

func (f *FakePlatform) SendDirectMessage(ctx context.Context, userID, text string) error {
	f.record("SendDirectMessage")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DMs = append(f.DMs, userID+": "+text)
	return nil
}

func (f *FakePlatform) SendChannelMessage(ctx context.Context, channelID, text string) error {
	f.record("SendChannelMessage")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChannelMessages[channelID] = append(f.ChannelMessages[channelID], text)
	return nil
}

func (f *FakePlatform) CreateCalendarEvent(ctx context.Context, guildID string, ev CalendarEvent) (string, error) {
	f.record("CreateCalendarEvent")
	if f.CreateCalendarEventFunc != nil {
		return f.CreateCalendarEventFunc(ctx, guildID, ev)
	}
	return "cal-1", nil
}

func (f *FakePlatform) UpdateCalendarEvent(ctx context.Context, guildID, calendarID string, ev CalendarEvent) error {
	f.record("UpdateCalendarEvent")
	if f.UpdateCalendarEventFunc != nil {
		return f.UpdateCalendarEventFunc(ctx, guildID, calendarID, ev)
	}
	return nil
}

func (f *FakePlatform) CancelCalendarEvent(ctx context.Context, guildID, calendarID string) error {
	f.record("CancelCalendarEvent")
	if f.CancelCalendarEventFunc != nil {
		return f.CancelCalendarEventFunc(ctx, guildID, calendarID)
	}
	return nil
}

func (f *FakePlatform) CalendarEventStatus(ctx context.Context, guildID, calendarID string) (CalendarStatus, error) {
	f.record("CalendarEventStatus")
	if f.CalendarEventStatusFunc != nil {
		return f.CalendarEventStatusFunc(ctx, guildID, calendarID)
	}
	return CalendarScheduled, nil
}

func (f *FakePlatform) ListChannelMessages(ctx context.Context, channelID string) ([]ChannelMessage, error) {
	f.record("ListChannelMessages")
	if f.ListChannelMessagesFunc != nil {
		return f.ListChannelMessagesFunc(ctx, channelID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ChannelMessage
	for _, id := range f.ChannelMessages[channelID] {
		out = append(out, ChannelMessage{ID: id})
	}
	return out, nil
}

func (f *FakePlatform) DeleteMessages(ctx context.Context, channelID string, ids []string) error {
	f.record("DeleteMessages")
	if f.DeleteMessagesFunc != nil {
		return f.DeleteMessagesFunc(ctx, channelID, ids)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []string
	for _, id := range f.ChannelMessages[channelID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		delete(f.ChannelMessages, channelID)
		return nil
	}
	f.ChannelMessages[channelID] = kept
	return nil
}

func (f *FakePlatform) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	f.record("MemberRoles")
	if f.MemberRolesFunc != nil {
		return f.MemberRolesFunc(ctx, guildID, userID)
	}
	return nil, nil
}

func (f *FakePlatform) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ Platform = (*FakePlatform)(nil)

// ------------------------
// Fake Reminders
// ------------------------

type FakeReminders struct {
	mu    sync.Mutex
	trace []string
	armed map[string]time.Time
}

func NewFakeReminders() *FakeReminders {
	return &FakeReminders{armed: map[string]time.Time{}}
}

func (f *FakeReminders) Set(_ context.Context, key string, startsAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "Set "+key)
	f.armed[key] = startsAt
	return nil
}

func (f *FakeReminders) Cancel(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "Cancel "+key)
	delete(f.armed, key)
	return nil
}

func (f *FakeReminders) Armed(key string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.armed[key]
	return t, ok
}

func (f *FakeReminders) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ reminder.Scheduler = (*FakeReminders)(nil)
