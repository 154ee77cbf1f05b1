// Package deck parses decklists and enriches them with card facts and roles.
package deck

import (
	"context"
	"errors"
	"fmt"

	"github.com/ramonehamilton/DeckTuner/internal/facts"
	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

// Card is a named entry in a deck with its declared quantity and, after
// enrichment, its resolved facts and derived role set.
type Card struct {
	Name     string
	Quantity int
	Tags     []string // inline role tags from the decklist, e.g. "[ManaSource]"

	Facts    facts.Facts
	Resolved bool
	Roles    roles.Set
}

// Deck is a multiset of cards. Order is irrelevant; Cards preserves decklist
// order only for stable reporting.
type Deck struct {
	Name  string
	Cards []*Card
}

// Size returns the total card count, summing quantities.
func (d *Deck) Size() int {
	total := 0
	for _, c := range d.Cards {
		total += c.Quantity
	}
	return total
}

// CheckSize returns a warning message when the deck's total quantity differs
// from the configured target size, or "" when it matches. A mismatch never
// aborts a run.
func (d *Deck) CheckSize(target int) string {
	if target <= 0 {
		return ""
	}
	if got := d.Size(); got != target {
		return fmt.Sprintf("deck size is %d, expected %d", got, target)
	}
	return ""
}

// Enrich resolves facts and assigns roles for every card in the deck.
//
// In strict mode any unresolved card is fatal; otherwise unresolved cards
// degrade to role Other (unless an override names them) and a completeness
// warning is returned per card. Inline decklist tags act as per-card
// overrides, replacing derived roles; explicit categorizer overrides take
// precedence over inline tags.
func Enrich(ctx context.Context, d *Deck, resolver facts.Resolver, cat *roles.Categorizer, strict bool) ([]string, error) {
	var warnings []string

	for _, card := range d.Cards {
		f, err := resolver.Resolve(ctx, card.Name)
		switch {
		case err == nil:
			card.Facts = f
			card.Resolved = true
			card.Roles = cat.Categorize(f)
		case strict:
			return nil, fmt.Errorf("strict mode: %w", err)
		case errors.Is(err, facts.ErrNotFound):
			card.Resolved = false
			card.Roles = cat.Unresolved(card.Name)
			warnings = append(warnings, fmt.Sprintf("card %q unresolved, counted as %s", card.Name, card.Roles))
		default:
			return nil, fmt.Errorf("resolve %q: %w", card.Name, err)
		}

		// Inline tags lose to an explicit override for the same card.
		if len(card.Tags) > 0 && !cat.HasOverride(card.Name) {
			set, err := tagSet(card.Tags)
			if err != nil {
				return nil, fmt.Errorf("card %q: %w", card.Name, err)
			}
			if !set.Empty() {
				card.Roles = set
			}
		}
	}

	return warnings, nil
}

func tagSet(tags []string) (roles.Set, error) {
	var set roles.Set
	for _, t := range tags {
		r, err := roles.Parse(t)
		if err != nil {
			return 0, fmt.Errorf("invalid inline tag: %w", err)
		}
		set = set.Add(r)
	}
	return set, nil
}
