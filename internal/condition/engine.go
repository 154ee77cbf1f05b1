// Package condition compiles user-declared deck conditions into evaluable
// predicates over role-count snapshots.
//
// Compilation happens once per run: templates and expressions are parsed,
// dependency references are resolved, and cycles are rejected. Evaluation is
// then a pure function of a snapshot, cheap enough to run every turn of
// every trial.
package condition

import (
	"fmt"

	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

// Template names accepted by Spec.Template.
const (
	TemplateManaOnline = "mana_online"
	TemplateDrawOnline = "draw_online"
	TemplateWinOnline  = "win_online"
)

// Spec declares a single condition. Exactly one of Template or Expr must be
// set. Turn is the turn the user wants the condition online by; it drives
// reporting only, evaluation happens every turn regardless.
type Spec struct {
	Name     string
	Template string
	Min      int
	Requires []string
	Expr     string
	Turn     int
}

// Snapshot counts the cards seen so far in a trial, by role. A card holding
// several roles counts toward each.
type Snapshot [roles.NumRoles]int

// Count returns the number of seen cards carrying the role.
func (s *Snapshot) Count(r roles.Role) int {
	return s[int(r)]
}

// AddSet counts one card with the given role set.
func (s *Snapshot) AddSet(set roles.Set) {
	for i := 0; i < roles.NumRoles; i++ {
		if set.Has(roles.Role(i)) {
			s[i]++
		}
	}
}

type compiled struct {
	name     string
	turn     int
	expr     node
	monotone bool
}

// Engine holds the compiled condition set. It is immutable after Compile and
// safe to share across trial workers.
type Engine struct {
	conds []*compiled
	index map[string]int
}

// Compile validates and compiles the condition specs. Configuration problems
// (duplicate or empty names, bad thresholds, unparsable expressions, unknown
// or cyclic dependencies) are reported here, before any trial runs.
func Compile(specs []Spec) (*Engine, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no conditions declared")
	}

	e := &Engine{
		conds: make([]*compiled, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("condition with empty name")
		}
		if _, dup := e.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate condition name %q", spec.Name)
		}

		expr, err := buildExpr(spec)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", spec.Name, err)
		}

		e.index[spec.Name] = len(e.conds)
		e.conds = append(e.conds, &compiled{name: spec.Name, turn: spec.Turn, expr: expr})
	}

	if err := e.resolveRefs(); err != nil {
		return nil, err
	}
	if err := e.checkCycles(); err != nil {
		return nil, err
	}
	e.markMonotone()

	return e, nil
}

func buildExpr(spec Spec) (node, error) {
	if spec.Template != "" && spec.Expr != "" {
		return nil, fmt.Errorf("template and expression are mutually exclusive")
	}

	var base node
	switch {
	case spec.Expr != "":
		n, err := parseExpr(spec.Expr)
		if err != nil {
			return nil, fmt.Errorf("parse expression: %w", err)
		}
		base = n
	case spec.Template != "":
		min := spec.Min
		if min == 0 {
			min = 1
		}
		if min < 0 {
			return nil, fmt.Errorf("invalid threshold %d", spec.Min)
		}
		var role roles.Role
		switch spec.Template {
		case TemplateManaOnline:
			role = roles.ManaSource
		case TemplateDrawOnline:
			role = roles.DrawEngine
		case TemplateWinOnline:
			role = roles.WinCondition
		default:
			return nil, fmt.Errorf("unknown template %q", spec.Template)
		}
		base = &atomNode{role: role, op: cmpGE, n: min}
	default:
		return nil, fmt.Errorf("neither template nor expression set")
	}

	// Dependencies are ANDed onto the base predicate.
	for _, dep := range spec.Requires {
		base = &binNode{and: true, left: base, right: &refNode{name: dep, index: -1}}
	}
	return base, nil
}

// resolveRefs binds every condition reference to its index.
func (e *Engine) resolveRefs() error {
	for _, c := range e.conds {
		var err error
		walk(c.expr, func(n node) {
			if ref, ok := n.(*refNode); ok {
				idx, found := e.index[ref.name]
				if !found && err == nil {
					err = fmt.Errorf("condition %q references unknown condition %q", c.name, ref.name)
				}
				ref.index = idx
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// checkCycles rejects cyclic dependency chains with a three-color DFS.
func (e *Engine) checkCycles() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(e.conds))

	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		switch color[i] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("cyclic condition dependency: %v -> %s", path, e.conds[i].name)
		}
		color[i] = gray
		path = append(path, e.conds[i].name)
		for _, dep := range e.conds[i].expr.refs(nil) {
			if err := visit(e.index[dep], path); err != nil {
				return err
			}
		}
		color[i] = black
		return nil
	}

	for i := range e.conds {
		if err := visit(i, nil); err != nil {
			return err
		}
	}
	return nil
}

// markMonotone flags conditions that can never flip true→false as counts
// grow. The simulator may skip re-evaluating those once satisfied; anything
// containing NOT or an upper bound is re-evaluated every turn.
func (e *Engine) markMonotone() {
	// Dependencies are acyclic here, so a fixpoint over the topological
	// structure is just repeated passes until stable.
	for changed := true; changed; {
		changed = false
		for _, c := range e.conds {
			m := c.expr.monotone(func(name string) bool {
				return e.conds[e.index[name]].monotone
			})
			if m != c.monotone {
				c.monotone = m
				changed = true
			}
		}
	}
}

func walk(n node, fn func(node)) {
	fn(n)
	switch t := n.(type) {
	case *notNode:
		walk(t.inner, fn)
	case *binNode:
		walk(t.left, fn)
		walk(t.right, fn)
	}
}

// Len returns the number of compiled conditions.
func (e *Engine) Len() int { return len(e.conds) }

// Name returns the name of condition i, in Compile order.
func (e *Engine) Name(i int) string { return e.conds[i].name }

// Turn returns the reporting turn of condition i (0 when unset).
func (e *Engine) Turn(i int) int { return e.conds[i].turn }

// Monotone reports whether condition i can be memoized once true.
func (e *Engine) Monotone(i int) bool { return e.conds[i].monotone }

// Evaluator evaluates the engine's conditions against snapshots. It holds
// per-call memo state, so each trial worker needs its own.
type Evaluator struct {
	engine *Engine
	memo   []uint8 // 0 unknown, 1 false, 2 true
}

// NewEvaluator creates an evaluator bound to the engine.
func (e *Engine) NewEvaluator() *Evaluator {
	return &Evaluator{engine: e, memo: make([]uint8, len(e.conds))}
}

// Evaluate computes every condition against the snapshot, writing results
// into out (len must equal Engine.Len). Dependency references are memoized
// within the single snapshot, never across turns.
func (v *Evaluator) Evaluate(snap *Snapshot, out []bool) {
	for i := range v.memo {
		v.memo[i] = 0
	}
	for i := range v.engine.conds {
		out[i] = v.evalCond(i, snap)
	}
}

func (v *Evaluator) evalCond(i int, snap *Snapshot) bool {
	if v.memo[i] != 0 {
		return v.memo[i] == 2
	}
	res := v.engine.conds[i].expr.eval(v, snap)
	if res {
		v.memo[i] = 2
	} else {
		v.memo[i] = 1
	}
	return res
}
