// Package facts models resolved card attributes and the stores that supply them.
//
// The simulator never fetches card data itself: by the time a simulation
// starts, every card in the deck has either been resolved through a Resolver
// or the run was aborted (strict mode) or degraded (lenient mode).
package facts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates a card name the resolver has no facts for.
var ErrNotFound = errors.New("card facts not found")

// Facts holds the card attributes the simulator cares about.
type Facts struct {
	Name       string
	ManaValue  float64
	TypeLine   string
	OracleText string
}

// Resolver resolves a card name to its facts.
//
// Implementations must be safe for concurrent use. Resolution happens before
// the first trial runs, never inside the trial loop.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Facts, error)
}

// Normalize canonicalizes a card name for lookup: lowercased, inner
// whitespace collapsed.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// MemStore is an in-memory Resolver, used in tests and for callers that
// assemble card data programmatically.
type MemStore struct {
	cards map[string]Facts
}

// NewMemStore creates a MemStore from the given facts, keyed by normalized name.
func NewMemStore(cards []Facts) *MemStore {
	m := &MemStore{cards: make(map[string]Facts, len(cards))}
	for _, f := range cards {
		m.cards[Normalize(f.Name)] = f
	}
	return m
}

// Resolve implements Resolver.
func (m *MemStore) Resolve(_ context.Context, name string) (Facts, error) {
	f, ok := m.cards[Normalize(name)]
	if !ok {
		return Facts{}, fmt.Errorf("resolve %q: %w", name, ErrNotFound)
	}
	return f, nil
}
