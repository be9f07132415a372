package eventdomain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is a roster bucket. Signed roles are kind-specific; Reserve and Absent exist on every roster.
type Role string

const (
	RoleTank    Role = "tank"
	RoleHealer  Role = "healer"
	RoleDD      Role = "dd"
	RoleBrawler Role = "brawler"
	RoleBomber  Role = "bomber"
	RoleGanker  Role = "ganker"
	RoleSigned  Role = "signed"
	RoleReserve Role = "reserve"
	RoleAbsent  Role = "absent"
)

// MaxConfigurableCapacity is the largest finite capacity the composition step accepts.
const MaxConfigurableCapacity = 11

var roleLabels = map[Role]struct{ label, emoji string }{
	RoleTank:    {"Tank", "🛡️"},
	RoleHealer:  {"Healer", "💚"},
	RoleDD:      {"DD", "⚔️"},
	RoleBrawler: {"Brawler", "👊"},
	RoleBomber:  {"Bomber", "💣"},
	RoleGanker:  {"Ganker", "🗡️"},
	RoleSigned:  {"Signed", "✅"},
	RoleReserve: {"Reserve", "🪑"},
	RoleAbsent:  {"Absent", "❌"},
}

// IsBackup reports whether r is Reserve or Absent.
func (r Role) IsBackup() bool {
	return r == RoleReserve || r == RoleAbsent
}

// Label is the human name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l.label
	}
	return string(r)
}

// Emoji is the marker shown next to the role.
func (r Role) Emoji() string {
	return roleLabels[r].emoji
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleLabels[r]; !ok {
		return "", NewValidationError("role", "unknown role %q", s)
	}
	return r, nil
}

// Capacity is the maximum number of players in a role. The zero value is unlimited.
type Capacity struct {
	max     int
	limited bool
}

// Unlimited returns a capacity with no maximum.
func Unlimited() Capacity { return Capacity{} }

// Limit returns a capacity of n players. Negative values are clamped to zero.
func Limit(n int) Capacity {
	if n < 0 {
		n = 0
	}
	return Capacity{max: n, limited: true}
}

// Max returns the maximum and whether one is set.
func (c Capacity) Max() (int, bool) { return c.max, c.limited }

// IsUnlimited reports whether c has no maximum.
func (c Capacity) IsUnlimited() bool { return !c.limited }

// Allows reports whether a role currently holding n players may take one more.
func (c Capacity) Allows(n int) bool {
	return !c.limited || n < c.max
}

func (c Capacity) String() string {
	if !c.limited {
		return "∞"
	}
	return strconv.Itoa(c.max)
}

// ParseCapacity accepts 0..MaxConfigurableCapacity or "unlimited"/"∞"/"-".
func ParseCapacity(s string) (Capacity, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "unlimited", "∞", "-", "none":
		return Unlimited(), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > MaxConfigurableCapacity {
		return Capacity{}, NewValidationError("capacity", "capacity must be 0-%d or unlimited, got %q", MaxConfigurableCapacity, s)
	}
	return Limit(n), nil
}

// MarshalJSON encodes an unlimited capacity as null.
func (c Capacity) MarshalJSON() ([]byte, error) {
	if !c.limited {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.max)), nil
}

// UnmarshalJSON decodes null as unlimited.
func (c *Capacity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Unlimited()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid capacity %s: %w", data, err)
	}
	*c = Limit(n)
	return nil
}

type roleSpec struct {
	role     Role
	capacity Capacity
}

var catalog = map[EventKind][]roleSpec{
	KindTrial: {
		{RoleTank, Limit(2)},
		{RoleHealer, Limit(2)},
		{RoleDD, Limit(8)},
	},
	KindPvP: {
		{RoleTank, Limit(2)},
		{RoleHealer, Limit(3)},
		{RoleBrawler, Unlimited()},
		{RoleBomber, Unlimited()},
		{RoleGanker, Unlimited()},
	},
	KindGeneric: {
		{RoleSigned, Unlimited()},
	},
}

var backupRoles = []Role{RoleReserve, RoleAbsent}

// SignedRolesFor returns the participating roles of kind in display order.
func SignedRolesFor(kind EventKind) []Role {
	specs := catalog[kind]
	out := make([]Role, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.role)
	}
	return out
}

// RolesFor returns every role of kind: signed roles in display order, then Reserve and Absent.
func RolesFor(kind EventKind) []Role {
	return append(SignedRolesFor(kind), backupRoles...)
}

// HasRole reports whether role belongs to kind's catalog.
func HasRole(kind EventKind, role Role) bool {
	if role.IsBackup() {
		return kind.Valid()
	}
	for _, s := range catalog[kind] {
		if s.role == role {
			return true
		}
	}
	return false
}

// DefaultCapacity returns the catalog capacity of role for kind. Backup and unknown roles are unlimited.
func DefaultCapacity(kind EventKind, role Role) Capacity {
	for _, s := range catalog[kind] {
		if s.role == role {
			return s.capacity
		}
	}
	return Unlimited()
}

// IsBackup reports whether role is Reserve or Absent.
func IsBackup(role Role) bool { return role.IsBackup() }
