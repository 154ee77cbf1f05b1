package sim

import (
	"math/rand"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
)

// TrialResult is the outcome of a single trial.
type TrialResult struct {
	// Mulligans taken before keeping.
	Mulligans int

	// FirstTrue holds, per condition (engine order), the turn the condition
	// first evaluated true, or 0 when it never did by MaxTurn.
	FirstTrue []int
}

// trialState holds the reusable per-worker scratch buffers. One trial at a
// time per state; nothing here is shared between workers.
type trialState struct {
	deck    *CompiledDeck
	eval    *condition.Evaluator
	params  Params
	keep    MulliganPolicy
	bottom  BottomPolicy
	numCond int

	perm    []int
	hand    []Card
	library []int
	results []bool
}

func newTrialState(d *CompiledDeck, eng *condition.Engine, p Params, keep MulliganPolicy, bottom BottomPolicy) *trialState {
	n := len(d.Cards)
	return &trialState{
		deck:    d,
		eval:    eng.NewEvaluator(),
		params:  p,
		keep:    keep,
		bottom:  bottom,
		numCond: eng.Len(),
		perm:    make([]int, n),
		hand:    make([]Card, 0, p.HandSize),
		library: make([]int, 0, n),
		results: make([]bool, eng.Len()),
	}
}

// run executes one trial: shuffle, opening draw, mulligan decisions,
// bottoming, then the turn loop with per-turn condition checks.
func (t *trialState) run(rng *rand.Rand) TrialResult {
	p := t.params
	handSize := p.HandSize
	if handSize > len(t.perm) {
		handSize = len(t.perm)
	}

	for i := range t.perm {
		t.perm[i] = i
	}

	// Mulligan loop: each mulligan reshuffles the entire deck and draws a
	// fresh full-size hand (London style); cards are bottomed after keeping.
	mulligans := 0
	for {
		rng.Shuffle(len(t.perm), func(i, j int) {
			t.perm[i], t.perm[j] = t.perm[j], t.perm[i]
		})
		t.hand = t.hand[:0]
		for _, idx := range t.perm[:handSize] {
			t.hand = append(t.hand, t.deck.Cards[idx])
		}
		if mulligans >= p.MaxMulligans || t.keep.Keep(t.hand, mulligans) {
			break
		}
		mulligans++
	}

	// Library is everything below the hand; bottomed cards go underneath.
	t.library = append(t.library[:0], t.perm[handSize:]...)
	if mulligans > 0 {
		toBottom := t.bottom.Bottom(t.hand, mulligans)
		bottomed := make(map[int]bool, len(toBottom))
		for _, hi := range toBottom {
			bottomed[hi] = true
			t.library = append(t.library, t.perm[hi])
		}
		kept := t.hand[:0]
		for i, c := range t.hand {
			if !bottomed[i] {
				kept = append(kept, c)
			}
		}
		t.hand = kept
	}

	var snap condition.Snapshot
	for _, c := range t.hand {
		snap.AddSet(c.Roles)
	}

	firstTrue := make([]int, t.numCond)
	remaining := t.numCond
	libPos := 0

	for turn := 1; turn <= p.MaxTurn && remaining > 0; turn++ {
		drew := false
		if turn > 1 || !p.OnThePlay {
			if libPos < len(t.library) {
				snap.AddSet(t.deck.Cards[t.library[libPos]].Roles)
				libPos++
				drew = true
			}
		}

		// Turn 1 always evaluates the kept hand; afterwards an exhausted
		// library freezes the snapshot, so no new condition can turn true.
		if turn > 1 && !drew {
			break
		}

		t.eval.Evaluate(&snap, t.results)
		for i, ok := range t.results {
			if ok && firstTrue[i] == 0 {
				firstTrue[i] = turn
				remaining--
			}
		}
	}

	return TrialResult{Mulligans: mulligans, FirstTrue: firstTrue}
}
