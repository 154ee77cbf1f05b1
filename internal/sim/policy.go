package sim

import (
	"sort"

	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

// MulliganPolicy decides whether to keep an opening hand. Policies are
// swappable without touching the trial state machine; they must be
// deterministic functions of their arguments and safe for concurrent use.
type MulliganPolicy interface {
	// Keep receives the opening hand and the number of mulligans taken so
	// far, and reports whether to keep. Reaching the mulligan cap forces a
	// keep regardless of the policy's answer.
	Keep(hand []Card, mulligans int) bool
}

// BottomPolicy chooses which kept-hand cards return to the library bottom
// after mulligans. It must be deterministic for a given hand.
type BottomPolicy interface {
	// Bottom returns the indices of count cards to remove from hand.
	Bottom(hand []Card, count int) []int
}

// LandCountPolicy is the default keep rule: keep when the hand's land count
// falls inside [MinLands, MaxLands].
type LandCountPolicy struct {
	MinLands int
	MaxLands int
}

// Keep implements MulliganPolicy.
func (p LandCountPolicy) Keep(hand []Card, _ int) bool {
	lands := 0
	for _, c := range hand {
		if c.Roles.Has(roles.Land) {
			lands++
		}
	}
	return lands >= p.MinLands && lands <= p.MaxLands
}

// RolePriorityBottom is the default bottoming rule: bottom Other-role cards
// first, then lands beyond MinLands, then the most expensive remainder.
// Ties break on hand position, so the choice is deterministic.
type RolePriorityBottom struct {
	MinLands int
}

// Bottom implements BottomPolicy.
func (p RolePriorityBottom) Bottom(hand []Card, count int) []int {
	if count <= 0 {
		return nil
	}
	if count > len(hand) {
		count = len(hand)
	}

	lands := 0
	for _, c := range hand {
		if c.Roles.Has(roles.Land) {
			lands++
		}
	}

	picked := make([]int, 0, count)
	taken := make([]bool, len(hand))
	take := func(i int) bool {
		picked = append(picked, i)
		taken[i] = true
		return len(picked) == count
	}

	// Pass 1: cards that are only filler.
	for i, c := range hand {
		if c.Roles.Has(roles.Other) {
			if take(i) {
				return picked
			}
		}
	}

	// Pass 2: lands beyond the keep minimum.
	for i, c := range hand {
		if taken[i] || !c.Roles.Has(roles.Land) {
			continue
		}
		if lands <= p.MinLands {
			break
		}
		lands--
		if take(i) {
			return picked
		}
	}

	// Pass 3: most expensive remainder first.
	rest := make([]int, 0, len(hand))
	for i := range hand {
		if !taken[i] {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return hand[rest[a]].ManaValue > hand[rest[b]].ManaValue
	})
	for _, i := range rest {
		if take(i) {
			break
		}
	}
	return picked
}
