// Package benchmarks provides benchmarks for the simulation hot path.
//
// To run:
//
//	go test -bench=. -benchmem ./benchmarks/...
//
// To compare results across changes:
//
//	go install golang.org/x/perf/cmd/benchstat@latest
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > before.txt
//	go test -bench=. -benchmem -count=5 ./benchmarks/... > after.txt
//	benchstat before.txt after.txt
package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/ramonehamilton/DeckTuner/internal/condition"
	"github.com/ramonehamilton/DeckTuner/internal/roles"
	"github.com/ramonehamilton/DeckTuner/internal/sim"
)

// benchDeck builds a 60-card deck with a typical role spread.
func benchDeck() *sim.CompiledDeck {
	d := &sim.CompiledDeck{Name: "bench"}
	add := func(n int, name string, mv float64, rs ...roles.Role) {
		for i := 0; i < n; i++ {
			d.Cards = append(d.Cards, sim.Card{
				Name:      fmt.Sprintf("%s %d", name, i),
				Roles:     roles.NewSet(rs...),
				ManaValue: mv,
			})
		}
	}
	add(24, "land", 0, roles.Land, roles.ManaSource)
	add(8, "rock", 2, roles.ManaSource)
	add(8, "cantrip", 1, roles.DrawEngine)
	add(4, "finisher", 6, roles.WinCondition)
	add(16, "spell", 3, roles.Other)
	return d
}

func benchEngine(b *testing.B) *condition.Engine {
	b.Helper()
	eng, err := condition.Compile([]condition.Spec{
		{Name: "mana", Template: condition.TemplateManaOnline, Min: 3, Turn: 3},
		{Name: "draw", Template: condition.TemplateDrawOnline, Min: 1, Turn: 5},
		{Name: "win", Template: condition.TemplateWinOnline, Min: 1, Requires: []string{"mana"}, Turn: 8},
	})
	if err != nil {
		b.Fatalf("Compile returned error: %v", err)
	}
	return eng
}

func benchParams(iterations, workers int) sim.Params {
	p := sim.DefaultParams()
	p.Iterations = iterations
	p.Workers = workers
	p.Seed = 1
	return p
}

// BenchmarkRun measures end-to-end trial throughput at several worker counts.
func BenchmarkRun(b *testing.B) {
	deck := benchDeck()
	eng := benchEngine(b)

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers-%d", workers), func(b *testing.B) {
			runner := &sim.Runner{
				Deck:   deck,
				Engine: eng,
				Params: benchParams(10_000, workers),
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := runner.Run(context.Background()); err != nil {
					b.Fatalf("Run returned error: %v", err)
				}
			}
		})
	}
}

// BenchmarkConditionCompile measures one-time compilation cost.
func BenchmarkConditionCompile(b *testing.B) {
	specs := []condition.Spec{
		{Name: "mana", Template: condition.TemplateManaOnline, Min: 3, Turn: 3},
		{Name: "draw", Expr: "count(DrawEngine) >= 1 and count(Land) >= 2", Turn: 5},
		{Name: "win", Expr: "cond(mana) and count(WinCondition) >= 1", Turn: 8},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := condition.Compile(specs); err != nil {
			b.Fatalf("Compile returned error: %v", err)
		}
	}
}
