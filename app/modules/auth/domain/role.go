package authdomain

import "fmt"

// Role represents a user's role for authorization purposes.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleLeader Role = "leader"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleLeader: 2,
	RoleAdmin:  3,
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Allows reports whether r grants at least the access of required.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}

// ParseRole converts s to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
