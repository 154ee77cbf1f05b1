package sim

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
)

func TestFoldCumulativeCurve(t *testing.T) {
	eng := mustCompile(t, []condition.Spec{{Name: "c", Template: condition.TemplateManaOnline, Turn: 3}})

	a := NewAggregate(1, 5, 3)
	a.Fold(TrialResult{Mulligans: 0, FirstTrue: []int{2}})
	a.Fold(TrialResult{Mulligans: 1, FirstTrue: []int{4}})
	a.Fold(TrialResult{Mulligans: 0, FirstTrue: []int{0}}) // never

	wantByTurn := []int{0, 1, 1, 2, 2}
	if !reflect.DeepEqual(a.ByTurn[0], wantByTurn) {
		t.Errorf("ByTurn = %v, want %v", a.ByTurn[0], wantByTurn)
	}
	if a.Never[0] != 1 {
		t.Errorf("Never = %d, want 1", a.Never[0])
	}

	res := a.Finalize(eng, 3)
	if res.Partial {
		t.Error("Partial = true for a complete run")
	}
	wantPct := []float64{0, 100.0 / 3, 100.0 / 3, 200.0 / 3, 200.0 / 3}
	for i, want := range wantPct {
		if math.Abs(res.Conditions[0].PercentByTurn[i]-want) > 1e-9 {
			t.Errorf("PercentByTurn[%d] = %v, want %v", i, res.Conditions[0].PercentByTurn[i], want)
		}
	}
	if got := res.Conditions[0].MeanFirstTurn; math.Abs(got-3) > 1e-9 {
		t.Errorf("MeanFirstTurn = %v, want 3", got)
	}
	if got := res.MeanMulligans; math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("MeanMulligans = %v, want 1/3", got)
	}
	if got := res.Conditions[0].TargetTurn; got != 3 {
		t.Errorf("TargetTurn = %d, want 3", got)
	}
}

func TestMergeAssociativeCommutative(t *testing.T) {
	// Fold a stream of synthetic trials into one aggregate, and into every
	// two-way split, merged both ways. All counters must match exactly.
	rng := rand.New(rand.NewSource(42))
	const trials = 200
	const maxTurn = 6
	const maxMull = 2

	results := make([]TrialResult, trials)
	for i := range results {
		first := rng.Intn(maxTurn + 1) // 0 = never
		results[i] = TrialResult{
			Mulligans: rng.Intn(maxMull + 1),
			FirstTrue: []int{first},
		}
	}

	whole := NewAggregate(1, maxTurn, maxMull)
	for _, r := range results {
		whole.Fold(r)
	}

	for _, split := range []int{0, 1, 50, 199, 200} {
		left := NewAggregate(1, maxTurn, maxMull)
		right := NewAggregate(1, maxTurn, maxMull)
		for _, r := range results[:split] {
			left.Fold(r)
		}
		for _, r := range results[split:] {
			right.Fold(r)
		}

		ab := NewAggregate(1, maxTurn, maxMull)
		ab.Merge(left)
		ab.Merge(right)
		ba := NewAggregate(1, maxTurn, maxMull)
		ba.Merge(right)
		ba.Merge(left)

		if !reflect.DeepEqual(ab, whole) {
			t.Errorf("split %d: merged aggregate differs from whole", split)
		}
		if !reflect.DeepEqual(ba, whole) {
			t.Errorf("split %d: merge is not commutative", split)
		}
	}
}

func TestFinalizeMonotonicCurve(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAggregate(2, 8, 3)
	for i := 0; i < 500; i++ {
		a.Fold(TrialResult{
			Mulligans: rng.Intn(4),
			FirstTrue: []int{rng.Intn(9), rng.Intn(9)},
		})
	}
	eng := mustCompile(t, []condition.Spec{
		{Name: "a", Template: condition.TemplateManaOnline},
		{Name: "b", Template: condition.TemplateDrawOnline},
	})

	res := a.Finalize(eng, 500)
	for _, cr := range res.Conditions {
		for i := 1; i < len(cr.PercentByTurn); i++ {
			if cr.PercentByTurn[i] < cr.PercentByTurn[i-1] {
				t.Fatalf("condition %s: curve decreases at turn %d: %v", cr.Name, i+1, cr.PercentByTurn)
			}
		}
	}
}

func TestFinalizeEmptyAggregate(t *testing.T) {
	eng := mustCompile(t, []condition.Spec{{Name: "c", Template: condition.TemplateManaOnline}})
	a := NewAggregate(1, 4, 2)

	res := a.Finalize(eng, 100)
	if !res.Partial {
		t.Error("Partial = false for zero completed trials")
	}
	if res.Trials != 0 {
		t.Errorf("Trials = %d, want 0", res.Trials)
	}
	for _, pct := range res.Conditions[0].PercentByTurn {
		if pct != 0 {
			t.Errorf("PercentByTurn = %v, want all zero", res.Conditions[0].PercentByTurn)
			break
		}
	}
}
