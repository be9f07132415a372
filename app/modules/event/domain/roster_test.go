package eventdomain

import (
	"encoding/json"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayer(f *gofakeit.Faker) Player {
	return Player{ID: f.UUID(), Name: f.Username(), Class: ClassTemplar}
}

// occurrences counts the buckets holding id.
func occurrences(r *Roster, id string) int {
	n := 0
	for _, b := range r.Buckets() {
		for _, p := range b.Players {
			if p.ID == id {
				n++
			}
		}
	}
	return n
}

func TestRolesFor_StableOrder(t *testing.T) {
	tests := []struct {
		kind EventKind
		want []Role
	}{
		{KindTrial, []Role{RoleTank, RoleHealer, RoleDD, RoleReserve, RoleAbsent}},
		{KindPvP, []Role{RoleTank, RoleHealer, RoleBrawler, RoleBomber, RoleGanker, RoleReserve, RoleAbsent}},
		{KindGeneric, []Role{RoleSigned, RoleReserve, RoleAbsent}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if diff := cmp.Diff(tt.want, RolesFor(tt.kind)); diff != "" {
					t.Fatalf("RolesFor(%s) mismatch (-want +got):\n%s", tt.kind, diff)
				}
			}
		})
	}
}

func TestDefaultCapacity(t *testing.T) {
	tests := []struct {
		kind      EventKind
		role      Role
		wantMax   int
		unlimited bool
	}{
		{KindTrial, RoleTank, 2, false},
		{KindTrial, RoleHealer, 2, false},
		{KindTrial, RoleDD, 8, false},
		{KindTrial, RoleReserve, 0, true},
		{KindTrial, RoleAbsent, 0, true},
		{KindPvP, RoleTank, 2, false},
		{KindPvP, RoleHealer, 3, false},
		{KindPvP, RoleBrawler, 0, true},
		{KindPvP, RoleBomber, 0, true},
		{KindPvP, RoleGanker, 0, true},
		{KindGeneric, RoleSigned, 0, true},
	}
	for _, tt := range tests {
		c := DefaultCapacity(tt.kind, tt.role)
		max, limited := c.Max()
		assert.Equal(t, tt.unlimited, !limited, "%s/%s", tt.kind, tt.role)
		if !tt.unlimited {
			assert.Equal(t, tt.wantMax, max, "%s/%s", tt.kind, tt.role)
		}
	}
	assert.True(t, IsBackup(RoleReserve))
	assert.True(t, IsBackup(RoleAbsent))
	assert.False(t, IsBackup(RoleTank))
}

func TestRoster_DedupAcrossOperations(t *testing.T) {
	f := gofakeit.New(7)
	r := NewRoster(KindTrial)
	p := newPlayer(f)

	ops := []func(){
		func() { r.Signup(RoleTank, p) },
		func() { r.AddReserve(p) },
		func() { r.Signup(RoleHealer, p) },
		func() { r.AddAbsent(p) },
		func() { r.Signup(RoleDD, p) },
		func() { r.Signup(RoleReserve, p) },
		func() { r.Prefill(RoleTank, []Player{p}) },
	}
	for i, op := range ops {
		op()
		require.Equal(t, 1, occurrences(r, p.ID), "after op %d", i)
	}

	r.RemovePlayer(p.ID)
	r.RemovePlayer(p.ID)
	assert.Equal(t, 0, occurrences(r, p.ID))
}

func TestRoster_CapacityEnforcement(t *testing.T) {
	f := gofakeit.New(11)
	r := NewRoster(KindTrial)

	for i := 0; i < 2; i++ {
		got := r.Signup(RoleHealer, newPlayer(f))
		require.Equal(t, RoleHealer, got)
	}
	assert.True(t, r.IsRoleFull(RoleHealer))

	extra := newPlayer(f)
	landed := r.Signup(RoleHealer, extra)
	assert.Equal(t, RoleReserve, landed)
	assert.Equal(t, 2, r.Role(RoleHealer).Len())

	role, stored, ok := r.Find(extra.ID)
	require.True(t, ok)
	assert.Equal(t, RoleReserve, role)
	assert.Equal(t, []Role{RoleHealer}, stored.Flex)
}

func TestRoster_FlexAppendedOnce(t *testing.T) {
	f := gofakeit.New(3)
	r := NewRoster(KindTrial)
	r.Signup(RoleTank, newPlayer(f))
	r.Signup(RoleTank, newPlayer(f))

	p := newPlayer(f)
	p.Flex = []Role{RoleDD}
	for i := 0; i < 3; i++ {
		require.Equal(t, RoleReserve, r.Signup(RoleTank, p))
		_, stored, _ := r.Find(p.ID)
		p = stored
	}
	assert.Equal(t, []Role{RoleDD, RoleTank}, p.Flex)
}

func TestRoster_SignupDoesNotMutateCallerPlayer(t *testing.T) {
	r := NewRoster(KindTrial)
	r.SetCapacity(RoleTank, Limit(0))
	p := Player{ID: "1", Name: "one"}
	r.Signup(RoleTank, p)
	assert.Empty(t, p.Flex)
}

func TestRoster_ReSignupFreesCapacity(t *testing.T) {
	f := gofakeit.New(5)
	r := NewRoster(KindTrial)
	a, b, c := newPlayer(f), newPlayer(f), newPlayer(f)
	r.Signup(RoleTank, a)
	r.Signup(RoleTank, b)

	// a switches to healer, which frees a tank seat for c.
	assert.Equal(t, RoleHealer, r.Signup(RoleHealer, a))
	assert.Equal(t, RoleTank, r.Signup(RoleTank, c))
	assert.Equal(t, 2, r.Role(RoleTank).Len())
}

func TestRoster_SetCapacityDoesNotEvict(t *testing.T) {
	f := gofakeit.New(9)
	r := NewRoster(KindTrial)
	for i := 0; i < 5; i++ {
		r.Signup(RoleDD, newPlayer(f))
	}
	r.SetCapacity(RoleDD, Limit(3))
	assert.Equal(t, 5, r.Role(RoleDD).Len())
	assert.True(t, r.IsRoleFull(RoleDD))
	assert.Equal(t, RoleReserve, r.Signup(RoleDD, newPlayer(f)))

	r.SetCapacity(RoleReserve, Limit(0))
	assert.True(t, r.Role(RoleReserve).Capacity.IsUnlimited(), "backup roles stay unlimited")
}

func TestRoster_UnknownRoleGoesToReserve(t *testing.T) {
	r := NewRoster(KindTrial)
	p := Player{ID: "x"}
	assert.Equal(t, RoleReserve, r.Signup(RoleBrawler, p))
	_, stored, _ := r.Find("x")
	assert.Empty(t, stored.Flex)
	assert.False(t, r.IsRoleFull(RoleBrawler))
}

func TestRoster_PrefillIgnoresCapacity(t *testing.T) {
	f := gofakeit.New(13)
	r := NewRoster(KindTrial)
	players := []Player{newPlayer(f), newPlayer(f), newPlayer(f)}
	r.Prefill(RoleTank, players)
	assert.Equal(t, 3, r.Role(RoleTank).Len())
	assert.Equal(t, 0, r.Role(RoleReserve).Len())
}

func TestRoster_SignupsSkipsBackups(t *testing.T) {
	r := NewRoster(KindPvP)
	r.Signup(RoleGanker, Player{ID: "g"})
	r.Signup(RoleTank, Player{ID: "t"})
	r.AddReserve(Player{ID: "r"})
	r.AddAbsent(Player{ID: "a"})

	var ids []string
	for _, p := range r.Signups() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"t", "g"}, ids)
}

func TestRoster_JSONRoundTripKeepsCapacitiesAndOrder(t *testing.T) {
	r := NewRoster(KindTrial)
	r.SetCapacity(RoleDD, Unlimited())
	r.SetCapacity(RoleTank, Limit(1))
	r.Signup(RoleTank, Player{ID: "1", Name: "one", Class: ClassWarden})
	r.Signup(RoleTank, Player{ID: "2", Name: "two"})

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var back Roster
	require.NoError(t, json.Unmarshal(raw, &back))

	if diff := cmp.Diff(r.Buckets(), back.Buckets(), cmp.AllowUnexported(Capacity{})); diff != "" {
		t.Errorf("roster mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, KindTrial, back.Kind())
}

func TestRoster_UnmarshalRejectsForeignRole(t *testing.T) {
	var r Roster
	err := json.Unmarshal([]byte(`{"kind":"trial","roles":[{"role":"ganker","capacity":null,"players":[]}]}`), &r)
	assert.Error(t, err)
}

// Trial with default capacities: the third tank lands in reserve with tank as flex.
func TestRoster_TrialThreeTanks(t *testing.T) {
	r := NewRoster(KindTrial)
	got := []Role{
		r.Signup(RoleTank, Player{ID: "a"}),
		r.Signup(RoleTank, Player{ID: "b"}),
		r.Signup(RoleTank, Player{ID: "c"}),
	}
	assert.Equal(t, []Role{RoleTank, RoleTank, RoleReserve}, got)
	_, c, _ := r.Find("c")
	assert.Equal(t, []Role{RoleTank}, c.Flex)
}
