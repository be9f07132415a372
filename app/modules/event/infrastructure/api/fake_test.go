package eventapi

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/Black-And-White-Club/roster-bot/app/modules/auth/domain"
	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
)

type FakeReader struct {
	trace []string

	GetEventFunc func(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error)
}

func (f *FakeReader) GetEvent(ctx context.Context, key eventdomain.Key) (*eventdomain.EventRecord, error) {
	f.trace = append(f.trace, "GetEvent:"+key.String())
	if f.GetEventFunc != nil {
		return f.GetEventFunc(ctx, key)
	}
	return nil, eventdomain.ErrNotAnEvent
}

// FakeValidator accepts the tokens it knows and rejects everything else.
type FakeValidator map[string]*authdomain.Claims

func (f FakeValidator) ValidateToken(_ context.Context, token string) (*authdomain.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

var testStart = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

func publishedTrial(scope eventdomain.Scope) *eventdomain.EventRecord {
	rec := eventdomain.NewDraft("g1", "leader-1", eventdomain.KindTrial)
	rec.Title = "vAS hard mode"
	rec.Duration = 2 * time.Hour
	rec.Scope = scope
	start := testStart
	rec.StartsAt = &start
	rec.Roster.Signup(eventdomain.RoleTank, eventdomain.Player{
		ID:    "p1",
		Name:  "Aela",
		Class: eventdomain.ClassDragonknight,
		Flex:  []eventdomain.Role{eventdomain.RoleHealer},
	})
	rec.Roster.Signup(eventdomain.RoleTank, eventdomain.Player{ID: "p2", Name: "Borin", Class: eventdomain.ClassWarden})
	rec.Roster.Signup(eventdomain.RoleDD, eventdomain.Player{ID: "p3", Name: "Cyra", Class: eventdomain.ClassSorcerer})
	if err := rec.Publish("chan", "msg"); err != nil {
		panic(err)
	}
	return rec
}
