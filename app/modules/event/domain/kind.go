package eventdomain

import "strings"

// EventKind selects the role catalog and default capacities of an event.
type EventKind string

const (
	KindTrial   EventKind = "trial"
	KindPvP     EventKind = "pvp"
	KindGeneric EventKind = "generic"
)

// EventKinds lists the kinds in the order they are offered to the leader.
func EventKinds() []EventKind {
	return []EventKind{KindTrial, KindPvP, KindGeneric}
}

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case KindTrial, KindPvP, KindGeneric:
		return true
	}
	return false
}

// ParseEventKind parses a kind name case-insensitively.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", NewValidationError("kind", "unknown event kind %q", s)
	}
	return k, nil
}

// Scope controls who may sign up and whether the roster is prefilled.
type Scope string

const (
	ScopePublic     Scope = "public"
	ScopeSemiPublic Scope = "semi_public"
	ScopePrivate    Scope = "private"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopePublic, ScopeSemiPublic, ScopePrivate:
		return true
	}
	return false
}

// UsesPrefill reports whether the leader pre-populates the roster during creation.
func (s Scope) UsesPrefill() bool {
	return s == ScopeSemiPublic || s == ScopePrivate
}

// ParseScope parses a scope name case-insensitively.
func ParseScope(s string) (Scope, error) {
	sc := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !sc.Valid() {
		return "", NewValidationError("scope", "unknown scope %q", s)
	}
	return sc, nil
}

// Profile is the per-kind presentation data handed to the gateway.
type Profile struct {
	Label     string `json:"label"`
	Thumbnail string `json:"thumbnail"`
}

var profiles = map[EventKind]Profile{
	KindTrial:   {Label: "Trial", Thumbnail: "trial.png"},
	KindPvP:     {Label: "PvP", Thumbnail: "pvp.png"},
	KindGeneric: {Label: "Event", Thumbnail: "generic.png"},
}

// KindProfile returns the presentation data for k.
func KindProfile(k EventKind) Profile {
	return profiles[k]
}
