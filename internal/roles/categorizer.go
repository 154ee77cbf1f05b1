package roles

import (
	"strings"

	"github.com/ramonehamilton/DeckTuner/internal/facts"
)

// Heuristics holds the keyword patterns driving role inference. The lists
// are configuration, not constants: false positives and negatives here
// directly change simulation outcomes, so users can tune them per deck.
type Heuristics struct {
	// ManaKeywords are oracle-text fragments that mark a mana producer.
	ManaKeywords []string

	// DrawKeywords are oracle-text fragments that mark a draw engine.
	DrawKeywords []string

	// ArtifactManaValueMax marks cheap artifacts whose text adds mana as
	// mana sources (mana rocks). Artifacts above this cost are ignored.
	ArtifactManaValueMax float64
}

// DefaultHeuristics returns the stock keyword lists.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ManaKeywords: []string{
			"add {",
			"mana of any type",
			"mana of any color",
		},
		DrawKeywords: []string{
			"draw a card",
			"draw two cards",
			"draw three cards",
			"draw that many cards",
		},
		ArtifactManaValueMax: 3,
	}
}

// Categorizer derives a card's role set from its facts, subject to explicit
// user overrides. WinCondition is never inferred: it is domain-specific to
// the deck's strategy and must come from an override or the win-condition
// list.
type Categorizer struct {
	heuristics Heuristics
	overrides  map[string]Set
	winCards   map[string]bool
}

// NewCategorizer creates a Categorizer. overrides maps normalized or display
// card names to replacement role sets; winConditions lists card names that
// carry the WinCondition role in addition to their derived roles.
func NewCategorizer(h Heuristics, overrides map[string]Set, winConditions []string) *Categorizer {
	c := &Categorizer{
		heuristics: h,
		overrides:  make(map[string]Set, len(overrides)),
		winCards:   make(map[string]bool, len(winConditions)),
	}
	for name, set := range overrides {
		c.overrides[facts.Normalize(name)] = set
	}
	for _, name := range winConditions {
		c.winCards[facts.Normalize(name)] = true
	}
	return c
}

// HasOverride reports whether an explicit role override exists for the card.
func (c *Categorizer) HasOverride(name string) bool {
	_, ok := c.overrides[facts.Normalize(name)]
	return ok
}

// Categorize classifies a resolved card. An explicit override replaces the
// derived role set entirely; the win-condition list is additive.
func (c *Categorizer) Categorize(f facts.Facts) Set {
	key := facts.Normalize(f.Name)

	set, overridden := c.overrides[key]
	if !overridden {
		set = c.derive(f)
	}
	if c.winCards[key] {
		set = set.Add(WinCondition)
	}
	if set.Empty() {
		set = set.Add(Other)
	}
	return set
}

// Unresolved returns the role set for a card whose facts could not be
// resolved. Overrides still apply, since they don't need facts.
func (c *Categorizer) Unresolved(name string) Set {
	key := facts.Normalize(name)
	set, overridden := c.overrides[key]
	if c.winCards[key] {
		set = set.Add(WinCondition)
	}
	if !overridden && set.Empty() {
		return NewSet(Other)
	}
	if set.Empty() {
		set = set.Add(Other)
	}
	return set
}

func (c *Categorizer) derive(f facts.Facts) Set {
	var set Set
	typeLine := strings.ToLower(f.TypeLine)
	oracle := strings.ToLower(f.OracleText)

	if strings.Contains(typeLine, "land") {
		set = set.Add(Land)
	}

	if containsAny(oracle, c.heuristics.ManaKeywords) || containsAny(typeLine, c.heuristics.ManaKeywords) {
		set = set.Add(ManaSource)
	} else if strings.Contains(typeLine, "artifact") &&
		f.ManaValue <= c.heuristics.ArtifactManaValueMax &&
		strings.Contains(oracle, "add") {
		set = set.Add(ManaSource)
	}

	if containsAny(oracle, c.heuristics.DrawKeywords) {
		set = set.Add(DrawEngine)
	}

	return set
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
