package storage

import (
	"context"
	"testing"

	"github.com/ramonehamilton/DeckTuner/internal/deck"
	"github.com/ramonehamilton/DeckTuner/internal/sim"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return db
}

func testResult() *sim.Result {
	return &sim.Result{
		DeckName: "test deck",
		Seed:     42,
		Conditions: []sim.ConditionResult{
			{
				Name:          "mana",
				TargetTurn:    3,
				PercentByTurn: []float64{10, 35, 60, 72},
				MeanFirstTurn: 2.4,
			},
			{
				Name:          "win",
				TargetTurn:    4,
				PercentByTurn: []float64{0, 5, 15, 30},
			},
		},
		MulliganHistogram: []int{800, 150, 40, 10},
		MeanMulligans:     0.26,
		Trials:            1000,
		Requested:         1000,
		Warnings:          []string{"deck size is 99, expected 100"},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, "abc123", testResult())
	if err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}

	run, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun returned error: %v", err)
	}
	if run.DeckName != "test deck" {
		t.Errorf("DeckName = %q, want test deck", run.DeckName)
	}
	if run.DeckHash != "abc123" {
		t.Errorf("DeckHash = %q, want abc123", run.DeckHash)
	}
	if run.Completed != 1000 || run.Requested != 1000 || run.Partial {
		t.Errorf("counts = %d/%d partial=%v, want 1000/1000 complete", run.Completed, run.Requested, run.Partial)
	}
	if len(run.MulliganHistogram) != 4 || run.MulliganHistogram[0] != 800 {
		t.Errorf("MulliganHistogram = %v, want [800 150 40 10]", run.MulliganHistogram)
	}
	if len(run.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one entry", run.Warnings)
	}

	// Two conditions, four turns each.
	if len(run.Conditions) != 8 {
		t.Fatalf("len(Conditions) = %d, want 8", len(run.Conditions))
	}
	// Ordered by name then turn: mana rows first.
	if run.Conditions[0].Name != "mana" || run.Conditions[0].Turn != 1 || run.Conditions[0].Percent != 10 {
		t.Errorf("first condition row = %+v, want mana turn 1 at 10%%", run.Conditions[0])
	}
}

func TestListRuns(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.SaveRun(ctx, "hash-a", testResult()); err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}
	if _, err := db.SaveRun(ctx, "hash-a", testResult()); err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}
	other := testResult()
	other.DeckName = "other deck"
	if _, err := db.SaveRun(ctx, "hash-b", other); err != nil {
		t.Fatalf("SaveRun returned error: %v", err)
	}

	all, err := db.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	filtered, err := db.ListRuns(ctx, "hash-a", 0)
	if err != nil {
		t.Fatalf("ListRuns returned error: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("len(filtered) = %d, want 2", len(filtered))
	}
	for _, run := range filtered {
		if run.DeckHash != "hash-a" {
			t.Errorf("DeckHash = %q, want hash-a", run.DeckHash)
		}
	}
}

func TestDeckHashOrderIndependent(t *testing.T) {
	a, err := deck.Parse("4 Lightning Bolt\n20 Mountain", "a")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	b, err := deck.Parse("20 Mountain\n4 Lightning Bolt", "b")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	c, err := deck.Parse("20 Mountain\n3 Lightning Bolt", "c")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if DeckHash(a) != DeckHash(b) {
		t.Error("same contents in different order hash differently")
	}
	if DeckHash(a) == DeckHash(c) {
		t.Error("different quantities hash identically")
	}
}
