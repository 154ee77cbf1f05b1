package condition

import (
	"strings"
	"testing"

	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

func snapshot(land, mana, draw, win, other int) *Snapshot {
	var s Snapshot
	s[int(roles.Land)] = land
	s[int(roles.ManaSource)] = mana
	s[int(roles.DrawEngine)] = draw
	s[int(roles.WinCondition)] = win
	s[int(roles.Other)] = other
	return &s
}

func evaluate(t *testing.T, e *Engine, snap *Snapshot) []bool {
	t.Helper()
	out := make([]bool, e.Len())
	e.NewEvaluator().Evaluate(snap, out)
	return out
}

func TestCompileTemplates(t *testing.T) {
	e, err := Compile([]Spec{
		{Name: "mana", Template: TemplateManaOnline, Min: 2, Turn: 3},
		{Name: "draw", Template: TemplateDrawOnline, Min: 1, Turn: 5},
		{Name: "win", Template: TemplateWinOnline, Requires: []string{"mana"}, Turn: 8},
	})
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if e.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", e.Len())
	}

	tests := []struct {
		name string
		snap *Snapshot
		want []bool
	}{
		{name: "Nothing seen", snap: snapshot(0, 0, 0, 0, 0), want: []bool{false, false, false}},
		{name: "Mana only", snap: snapshot(3, 2, 0, 0, 2), want: []bool{true, false, false}},
		{name: "Win without mana stays offline", snap: snapshot(0, 1, 0, 1, 0), want: []bool{false, false, false}},
		{name: "Win with mana", snap: snapshot(2, 2, 1, 1, 0), want: []bool{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate(t, e, tt.snap)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("condition %s = %v, want %v", e.Name(i), got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompileExpressions(t *testing.T) {
	e, err := Compile([]Spec{
		{Name: "mana", Expr: "count(ManaSource) >= 2"},
		{Name: "keepable", Expr: "Land >= 2 AND Land <= 5"},
		{Name: "either", Expr: "cond(mana) OR count(DrawEngine) >= 1"},
		{Name: "flooded", Expr: "NOT Other >= 1 AND Land > 4"},
	})
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	got := evaluate(t, e, snapshot(5, 1, 1, 0, 0))
	want := []bool{false, true, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("condition %s = %v, want %v", e.Name(i), got[i], want[i])
		}
	}

	got = evaluate(t, e, snapshot(6, 2, 0, 0, 3))
	want = []bool{true, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("condition %s = %v, want %v", e.Name(i), got[i], want[i])
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr string
	}{
		{
			name:    "Empty",
			specs:   nil,
			wantErr: "no conditions",
		},
		{
			name:    "Empty name",
			specs:   []Spec{{Template: TemplateManaOnline}},
			wantErr: "empty name",
		},
		{
			name: "Duplicate name",
			specs: []Spec{
				{Name: "a", Template: TemplateManaOnline},
				{Name: "a", Template: TemplateDrawOnline},
			},
			wantErr: "duplicate",
		},
		{
			name:    "Unknown template",
			specs:   []Spec{{Name: "a", Template: "mana_sideways"}},
			wantErr: "unknown template",
		},
		{
			name:    "Template and expression",
			specs:   []Spec{{Name: "a", Template: TemplateManaOnline, Expr: "Land >= 1"}},
			wantErr: "mutually exclusive",
		},
		{
			name:    "Neither template nor expression",
			specs:   []Spec{{Name: "a"}},
			wantErr: "neither",
		},
		{
			name:    "Negative threshold",
			specs:   []Spec{{Name: "a", Template: TemplateManaOnline, Min: -2}},
			wantErr: "invalid threshold",
		},
		{
			name:    "Bad expression",
			specs:   []Spec{{Name: "a", Expr: "Land >= banana"}},
			wantErr: "expected number",
		},
		{
			name:    "Unknown role",
			specs:   []Spec{{Name: "a", Expr: "Swamp >= 1"}},
			wantErr: "unknown role",
		},
		{
			name:    "Unknown dependency",
			specs:   []Spec{{Name: "a", Template: TemplateWinOnline, Requires: []string{"missing"}}},
			wantErr: "unknown condition",
		},
		{
			name: "Dependency cycle",
			specs: []Spec{
				{Name: "a", Template: TemplateManaOnline, Requires: []string{"b"}},
				{Name: "b", Template: TemplateDrawOnline, Requires: []string{"a"}},
			},
			wantErr: "cyclic",
		},
		{
			name:    "Self cycle",
			specs:   []Spec{{Name: "a", Expr: "cond(a)"}},
			wantErr: "cyclic",
		},
		{
			name: "Cycle through expression reference",
			specs: []Spec{
				{Name: "a", Expr: "cond(c) AND Land >= 1"},
				{Name: "b", Expr: "cond(a)"},
				{Name: "c", Expr: "cond(b)"},
			},
			wantErr: "cyclic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.specs)
			if err == nil {
				t.Fatal("Compile returned nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestMonotone(t *testing.T) {
	e, err := Compile([]Spec{
		{Name: "mana", Template: TemplateManaOnline, Min: 2},
		{Name: "notflood", Expr: "NOT Land >= 6"},
		{Name: "chained", Expr: "cond(mana) AND DrawEngine >= 1"},
		{Name: "tainted", Expr: "cond(notflood) AND Land >= 1"},
		{Name: "upper", Expr: "Land <= 3"},
	})
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	want := map[string]bool{
		"mana":     true,
		"notflood": false,
		"chained":  true,
		"tainted":  false,
		"upper":    false,
	}
	for i := 0; i < e.Len(); i++ {
		if got := e.Monotone(i); got != want[e.Name(i)] {
			t.Errorf("Monotone(%s) = %v, want %v", e.Name(i), got, want[e.Name(i)])
		}
	}
}

func TestTemplateDefaultMin(t *testing.T) {
	e, err := Compile([]Spec{{Name: "win", Template: TemplateWinOnline}})
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	if got := evaluate(t, e, snapshot(0, 0, 0, 0, 5)); got[0] {
		t.Error("win_online true with zero win conditions seen")
	}
	if got := evaluate(t, e, snapshot(0, 0, 0, 1, 0)); !got[0] {
		t.Error("win_online false with one win condition seen, want true at default min 1")
	}
}

func TestExpressionParens(t *testing.T) {
	e, err := Compile([]Spec{
		{Name: "c", Expr: "(Land >= 2 OR ManaSource >= 2) AND NOT (Other >= 4)"},
	})
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	if got := evaluate(t, e, snapshot(2, 0, 0, 0, 0)); !got[0] {
		t.Error("expected true for 2 lands, few others")
	}
	if got := evaluate(t, e, snapshot(2, 0, 0, 0, 4)); got[0] {
		t.Error("expected false when NOT clause trips")
	}
	if got := evaluate(t, e, snapshot(0, 1, 0, 0, 0)); got[0] {
		t.Error("expected false when neither side of OR holds")
	}
}
