package sim

import (
	"github.com/ramonehamilton/DeckTuner/internal/condition"
)

// Aggregate accumulates trial outcomes. Merging two aggregates is
// element-wise addition, associative and commutative, so partial aggregates
// from independently run batches combine in any order or split.
type Aggregate struct {
	// Trials is the number of trials folded in.
	Trials int

	// ByTurn counts, per condition and turn (index turn-1), the trials whose
	// condition was satisfied by that turn. Non-decreasing across turns.
	ByTurn [][]int

	// FirstTurnSum sums first-true turns per condition, over satisfied
	// trials only.
	FirstTurnSum []int64

	// Never counts trials where the condition was not met by MaxTurn.
	Never []int

	// MulliganCounts is a histogram of mulligans taken (index = count).
	MulliganCounts []int
}

// NewAggregate creates an empty aggregate shaped for the run.
func NewAggregate(numConds, maxTurn, maxMulligans int) *Aggregate {
	byTurn := make([][]int, numConds)
	for i := range byTurn {
		byTurn[i] = make([]int, maxTurn)
	}
	return &Aggregate{
		ByTurn:         byTurn,
		FirstTurnSum:   make([]int64, numConds),
		Never:          make([]int, numConds),
		MulliganCounts: make([]int, maxMulligans+1),
	}
}

// Fold adds one trial result.
func (a *Aggregate) Fold(r TrialResult) {
	a.Trials++
	a.MulliganCounts[r.Mulligans]++
	for i, first := range r.FirstTrue {
		if first == 0 {
			a.Never[i]++
			continue
		}
		a.FirstTurnSum[i] += int64(first)
		for t := first - 1; t < len(a.ByTurn[i]); t++ {
			a.ByTurn[i][t]++
		}
	}
}

// Merge adds b into a. Both must come from the same run shape.
func (a *Aggregate) Merge(b *Aggregate) {
	a.Trials += b.Trials
	for i := range a.ByTurn {
		for t := range a.ByTurn[i] {
			a.ByTurn[i][t] += b.ByTurn[i][t]
		}
		a.FirstTurnSum[i] += b.FirstTurnSum[i]
		a.Never[i] += b.Never[i]
	}
	for m := range a.MulliganCounts {
		a.MulliganCounts[m] += b.MulliganCounts[m]
	}
}

// ConditionResult is the finalized per-condition report.
type ConditionResult struct {
	Name string

	// TargetTurn is the user's "online by turn N" goal (0 when unset).
	TargetTurn int

	// PercentByTurn maps turn (index turn-1) to the percentage of trials
	// satisfied by that turn. Non-decreasing.
	PercentByTurn []float64

	// MeanFirstTurn averages the first satisfied turn over satisfied trials
	// (0 when never satisfied).
	MeanFirstTurn float64

	// NeverPercent is the share of trials never satisfied by MaxTurn.
	NeverPercent float64
}

// Result is a finalized simulation run.
type Result struct {
	DeckName   string
	Conditions []ConditionResult

	MulliganHistogram []int
	MeanMulligans     float64

	// Trials completed; Requested is the configured iteration count.
	// Partial is set when the run was cancelled before completing.
	Trials    int
	Requested int
	Partial   bool
	Seed      int64

	Warnings []string
}

// Finalize turns raw counters into percentages over the trials actually
// completed. requested is the configured iteration count; a shortfall marks
// the result partial.
func (a *Aggregate) Finalize(eng *condition.Engine, requested int) *Result {
	res := &Result{
		Conditions:        make([]ConditionResult, len(a.ByTurn)),
		MulliganHistogram: append([]int(nil), a.MulliganCounts...),
		Trials:            a.Trials,
		Requested:         requested,
		Partial:           a.Trials < requested,
	}

	for i := range a.ByTurn {
		cr := ConditionResult{
			Name:          eng.Name(i),
			TargetTurn:    eng.Turn(i),
			PercentByTurn: make([]float64, len(a.ByTurn[i])),
		}
		if a.Trials > 0 {
			for t, count := range a.ByTurn[i] {
				cr.PercentByTurn[t] = 100 * float64(count) / float64(a.Trials)
			}
			cr.NeverPercent = 100 * float64(a.Never[i]) / float64(a.Trials)
			if satisfied := a.Trials - a.Never[i]; satisfied > 0 {
				cr.MeanFirstTurn = float64(a.FirstTurnSum[i]) / float64(satisfied)
			}
		}
		res.Conditions[i] = cr
	}

	if a.Trials > 0 {
		var total int64
		for m, count := range a.MulliganCounts {
			total += int64(m) * int64(count)
		}
		res.MeanMulligans = float64(total) / float64(a.Trials)
	}

	return res
}
