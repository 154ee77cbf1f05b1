// Package sim runs Monte Carlo mulligan-and-draw trials over an enriched
// deck and aggregates per-turn condition probabilities.
package sim

import (
	"fmt"

	"github.com/ramonehamilton/DeckTuner/internal/deck"
	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

// Card is one physical card instance inside a compiled deck.
type Card struct {
	Name      string
	Roles     roles.Set
	ManaValue float64
}

// CompiledDeck expands a deck's quantities into individual card instances.
// It is immutable during a run: every trial shuffles its own permutation of
// instance indices, never the deck itself.
type CompiledDeck struct {
	Name  string
	Cards []Card
}

// CompileDeck expands the enriched deck. Every card must already carry a
// role set (deck.Enrich assigns Other to unresolved cards).
func CompileDeck(d *deck.Deck) (*CompiledDeck, error) {
	cd := &CompiledDeck{Name: d.Name, Cards: make([]Card, 0, d.Size())}
	for _, c := range d.Cards {
		if c.Roles.Empty() {
			return nil, fmt.Errorf("card %q has no roles; deck not enriched", c.Name)
		}
		for i := 0; i < c.Quantity; i++ {
			cd.Cards = append(cd.Cards, Card{
				Name:      c.Name,
				Roles:     c.Roles,
				ManaValue: c.Facts.ManaValue,
			})
		}
	}
	if len(cd.Cards) == 0 {
		return nil, fmt.Errorf("deck is empty")
	}
	return cd, nil
}
