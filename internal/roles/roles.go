// Package roles classifies cards into the functional categories the
// condition engine counts: lands, mana sources, draw engines, and win
// conditions.
package roles

import (
	"fmt"
	"strings"
)

// Role is a functional category assigned to a card.
type Role uint8

const (
	Land Role = iota
	ManaSource
	DrawEngine
	WinCondition
	Other

	// NumRoles is the number of distinct roles.
	NumRoles = int(Other) + 1
)

// String returns the canonical role name.
func (r Role) String() string {
	switch r {
	case Land:
		return "Land"
	case ManaSource:
		return "ManaSource"
	case DrawEngine:
		return "DrawEngine"
	case WinCondition:
		return "WinCondition"
	case Other:
		return "Other"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Parse returns the role named by s. Matching is case-insensitive and
// ignores spaces, so "win condition" and "WinCondition" both parse.
func Parse(s string) (Role, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	switch key {
	case "land":
		return Land, nil
	case "manasource", "mana", "ramp":
		return ManaSource, nil
	case "drawengine", "draw":
		return DrawEngine, nil
	case "wincondition", "wincon", "win":
		return WinCondition, nil
	case "other":
		return Other, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Set is a bitmask of roles. A card may hold several roles at once.
type Set uint8

// NewSet builds a Set from the given roles.
func NewSet(rs ...Role) Set {
	var s Set
	for _, r := range rs {
		s = s.Add(r)
	}
	return s
}

// Add returns the set with r included.
func (s Set) Add(r Role) Set {
	return s | Set(1<<uint8(r))
}

// Has reports whether r is in the set.
func (s Set) Has(r Role) bool {
	return s&Set(1<<uint8(r)) != 0
}

// Empty reports whether the set holds no roles.
func (s Set) Empty() bool {
	return s == 0
}

// String lists the roles in declaration order, comma separated.
func (s Set) String() string {
	var names []string
	for i := 0; i < NumRoles; i++ {
		if s.Has(Role(i)) {
			names = append(names, Role(i).String())
		}
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ",")
}
