package eventdomain

import (
	"slices"
	"strings"
)

// Class is a player's character class.
type Class string

const (
	ClassDragonknight Class = "dragonknight"
	ClassSorcerer     Class = "sorcerer"
	ClassNightblade   Class = "nightblade"
	ClassTemplar      Class = "templar"
	ClassWarden       Class = "warden"
	ClassNecromancer  Class = "necromancer"
	ClassArcanist     Class = "arcanist"
)

// Classes lists the selectable classes.
func Classes() []Class {
	return []Class{
		ClassDragonknight, ClassSorcerer, ClassNightblade, ClassTemplar,
		ClassWarden, ClassNecromancer, ClassArcanist,
	}
}

// ParseClass parses a class name case-insensitively.
func ParseClass(s string) (Class, error) {
	c := Class(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Classes(), c) {
		return c, nil
	}
	return "", NewValidationError("class", "unknown class %q", s)
}

// Player is one signup.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Class Class  `json:"class,omitempty"`
	// Flex lists other signed roles the player accepts if bumped, in the order given.
	Flex []Role `json:"flex,omitempty"`
}

// HasFlex reports whether role is in the player's flex list.
func (p Player) HasFlex(role Role) bool {
	return slices.Contains(p.Flex, role)
}

// AddFlex appends role to the flex list unless it is already there.
func (p *Player) AddFlex(role Role) {
	if !p.HasFlex(role) {
		p.Flex = append(p.Flex, role)
	}
}

func (p Player) clone() Player {
	p.Flex = slices.Clone(p.Flex)
	return p
}
