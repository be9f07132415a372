package eventdomain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// PlayersInRole is the ordered occupancy of one role.
type PlayersInRole struct {
	Role     Role     `json:"role"`
	Capacity Capacity `json:"capacity"`
	Players  []Player `json:"players"`
}

// Len returns the number of players in the role.
func (p PlayersInRole) Len() int { return len(p.Players) }

// IsFull reports whether the role cannot take another player.
func (p PlayersInRole) IsFull() bool { return !p.Capacity.Allows(len(p.Players)) }

// Roster maps every role of an event kind to its players.
//
// A player id appears in at most one bucket: every operation that adds a player
// removes any earlier occurrence first.
type Roster struct {
	kind    EventKind
	order   []Role
	buckets map[Role]*PlayersInRole
}

// NewRoster returns an empty roster with the catalog capacities of kind.
func NewRoster(kind EventKind) *Roster {
	r := &Roster{
		kind:    kind,
		order:   RolesFor(kind),
		buckets: make(map[Role]*PlayersInRole),
	}
	for _, role := range r.order {
		r.buckets[role] = &PlayersInRole{Role: role, Capacity: DefaultCapacity(kind, role)}
	}
	return r
}

// Kind returns the event kind the roster was built for.
func (r *Roster) Kind() EventKind { return r.kind }

// Roles returns every role of the roster in display order.
func (r *Roster) Roles() []Role { return slices.Clone(r.order) }

// RemovePlayer removes id from whichever bucket holds it. Unknown ids are ignored.
func (r *Roster) RemovePlayer(id string) {
	for _, b := range r.buckets {
		b.Players = slices.DeleteFunc(b.Players, func(p Player) bool { return p.ID == id })
	}
}

// IsRoleFull reports whether role has reached its capacity. Backup and unknown roles are never full.
func (r *Roster) IsRoleFull(role Role) bool {
	b, ok := r.buckets[role]
	if !ok {
		return false
	}
	return b.IsFull()
}

// Signup places p in role and returns the role the player actually landed in.
// A full role sends the player to Reserve and records role in the player's flex list.
// Roles outside the catalog are treated as full.
func (r *Roster) Signup(role Role, p Player) Role {
	p = p.clone()
	r.RemovePlayer(p.ID)

	switch role {
	case RoleReserve:
		r.push(RoleReserve, p)
		return RoleReserve
	case RoleAbsent:
		r.push(RoleAbsent, p)
		return RoleAbsent
	}

	b, ok := r.buckets[role]
	if !ok || b.IsFull() {
		if ok {
			p.AddFlex(role)
		}
		r.push(RoleReserve, p)
		return RoleReserve
	}
	b.Players = append(b.Players, p)
	return role
}

// AddReserve moves p to Reserve without any capacity check.
func (r *Roster) AddReserve(p Player) {
	p = p.clone()
	r.RemovePlayer(p.ID)
	r.push(RoleReserve, p)
}

// AddAbsent moves p to Absent without any capacity check.
func (r *Roster) AddAbsent(p Player) {
	p = p.clone()
	r.RemovePlayer(p.ID)
	r.push(RoleAbsent, p)
}

// Prefill places players in role as given by the leader. Capacity is not enforced and
// nobody is moved to Reserve.
func (r *Roster) Prefill(role Role, players []Player) {
	b, ok := r.buckets[role]
	if !ok {
		return
	}
	for _, p := range players {
		p = p.clone()
		r.RemovePlayer(p.ID)
		b.Players = append(b.Players, p)
	}
}

// SetCapacity overwrites the capacity of a signed role. Players already above a lowered
// capacity stay where they are; backup roles always stay unlimited.
func (r *Roster) SetCapacity(role Role, c Capacity) {
	if role.IsBackup() {
		return
	}
	if b, ok := r.buckets[role]; ok {
		b.Capacity = c
	}
}

// Role returns a copy of the occupancy of role.
func (r *Roster) Role(role Role) PlayersInRole {
	b, ok := r.buckets[role]
	if !ok {
		return PlayersInRole{Role: role}
	}
	return copyBucket(b)
}

// Signups returns every player in a signed role, in role display order.
func (r *Roster) Signups() []Player {
	var out []Player
	for _, role := range r.order {
		if role.IsBackup() {
			continue
		}
		for _, p := range r.buckets[role].Players {
			out = append(out, p.clone())
		}
	}
	return out
}

// Find returns the role and record of player id.
func (r *Roster) Find(id string) (Role, Player, bool) {
	for _, role := range r.order {
		for _, p := range r.buckets[role].Players {
			if p.ID == id {
				return role, p.clone(), true
			}
		}
	}
	return "", Player{}, false
}

// Buckets returns copies of every bucket in display order.
func (r *Roster) Buckets() []PlayersInRole {
	out := make([]PlayersInRole, 0, len(r.order))
	for _, role := range r.order {
		out = append(out, copyBucket(r.buckets[role]))
	}
	return out
}

// Clone returns a deep copy.
func (r *Roster) Clone() *Roster {
	c := &Roster{kind: r.kind, order: slices.Clone(r.order), buckets: make(map[Role]*PlayersInRole, len(r.buckets))}
	for role, b := range r.buckets {
		cb := copyBucket(b)
		c.buckets[role] = &cb
	}
	return c
}

func (r *Roster) push(role Role, p Player) {
	b := r.buckets[role]
	b.Players = append(b.Players, p)
}

func copyBucket(b *PlayersInRole) PlayersInRole {
	out := PlayersInRole{Role: b.Role, Capacity: b.Capacity, Players: make([]Player, 0, len(b.Players))}
	for _, p := range b.Players {
		out.Players = append(out.Players, p.clone())
	}
	return out
}

type rosterJSON struct {
	Kind  EventKind       `json:"kind"`
	Roles []PlayersInRole `json:"roles"`
}

// MarshalJSON encodes the roster as its kind plus buckets in display order.
func (r *Roster) MarshalJSON() ([]byte, error) {
	return json.Marshal(rosterJSON{Kind: r.kind, Roles: r.Buckets()})
}

// UnmarshalJSON rebuilds a roster. Buckets missing from the payload get catalog defaults;
// buckets for roles outside the catalog are rejected.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var raw rosterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Kind.Valid() {
		return fmt.Errorf("roster: unknown kind %q", raw.Kind)
	}
	fresh := NewRoster(raw.Kind)
	for _, b := range raw.Roles {
		dst, ok := fresh.buckets[b.Role]
		if !ok {
			return fmt.Errorf("roster: role %q does not belong to kind %q", b.Role, raw.Kind)
		}
		if !b.Role.IsBackup() {
			dst.Capacity = b.Capacity
		}
		dst.Players = append(dst.Players, b.Players...)
	}
	*r = *fresh
	return nil
}
