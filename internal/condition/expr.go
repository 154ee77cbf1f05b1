package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ramonehamilton/DeckTuner/internal/roles"
)

// Expression grammar (case-insensitive keywords):
//
//	expr    := or
//	or      := and ( OR and )*
//	and     := not ( AND not )*
//	not     := NOT not | primary
//	primary := "(" expr ")" | "cond" "(" name ")" | atom
//	atom    := ( "count" "(" role ")" | role ) cmp number
//	cmp     := ">=" | "<=" | ">" | "<" | "==" | "="
//
// Atoms count cards seen so far by role; cond(name) references another
// condition's result at the same snapshot.

type node interface {
	// eval resolves the node against a snapshot; condition references are
	// resolved through the evaluator.
	eval(v *Evaluator, snap *Snapshot) bool

	// refs appends the names of referenced conditions.
	refs(out []string) []string

	// monotone reports whether the node can never flip true→false as card
	// counts grow, assuming every referenced condition is itself monotone.
	monotone(isMonotone func(name string) bool) bool
}

type cmpOp uint8

const (
	cmpGE cmpOp = iota
	cmpGT
	cmpLE
	cmpLT
	cmpEQ
)

type atomNode struct {
	role roles.Role
	op   cmpOp
	n    int
}

func (a *atomNode) eval(_ *Evaluator, snap *Snapshot) bool {
	count := snap.Count(a.role)
	switch a.op {
	case cmpGE:
		return count >= a.n
	case cmpGT:
		return count > a.n
	case cmpLE:
		return count <= a.n
	case cmpLT:
		return count < a.n
	default:
		return count == a.n
	}
}

func (a *atomNode) refs(out []string) []string { return out }

func (a *atomNode) monotone(func(string) bool) bool {
	// Counts never decrease within a trial, so only lower bounds are stable.
	return a.op == cmpGE || a.op == cmpGT
}

type refNode struct {
	name  string
	index int // resolved at compile time
}

func (r *refNode) eval(v *Evaluator, snap *Snapshot) bool {
	return v.evalCond(r.index, snap)
}

func (r *refNode) refs(out []string) []string { return append(out, r.name) }

func (r *refNode) monotone(isMonotone func(string) bool) bool {
	return isMonotone(r.name)
}

type notNode struct{ inner node }

func (n *notNode) eval(v *Evaluator, snap *Snapshot) bool { return !n.inner.eval(v, snap) }
func (n *notNode) refs(out []string) []string             { return n.inner.refs(out) }
func (n *notNode) monotone(func(string) bool) bool        { return false }

type binNode struct {
	and         bool
	left, right node
}

func (b *binNode) eval(v *Evaluator, snap *Snapshot) bool {
	if b.and {
		return b.left.eval(v, snap) && b.right.eval(v, snap)
	}
	return b.left.eval(v, snap) || b.right.eval(v, snap)
}

func (b *binNode) refs(out []string) []string {
	return b.right.refs(b.left.refs(out))
}

func (b *binNode) monotone(isMonotone func(string) bool) bool {
	return b.left.monotone(isMonotone) && b.right.monotone(isMonotone)
}

// lexer

type tokenKind uint8

const (
	tokIdent tokenKind = iota
	tokNumber
	tokLParen
	tokRParen
	tokCmp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '>' || c == '<' || c == '=':
			op := string(c)
			if i+1 < len(input) && input[i+1] == '=' {
				op += "="
				i++
			}
			toks = append(toks, token{tokCmp, op, i})
			i++
		case unicode.IsDigit(c):
			j := i
			for j < len(input) && unicode.IsDigit(rune(input[j])) {
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j], i})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(input) && (unicode.IsLetter(rune(input[j])) || unicode.IsDigit(rune(input[j])) || input[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, input[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(input)})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func parseExpr(input string) (node, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.peek().text, p.peek().pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	if t.kind == tokIdent && strings.EqualFold(t.text, kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &binNode{and: false, left: left, right: right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		left = &binNode{and: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) not() (node, error) {
	if p.keyword("NOT") {
		inner, err := p.not()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	t := p.peek()
	switch {
	case t.kind == tokLParen:
		p.next()
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return n, nil
	case t.kind == tokIdent && strings.EqualFold(t.text, "cond"):
		p.next()
		if err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		name := p.next()
		if name.kind != tokIdent {
			return nil, fmt.Errorf("expected condition name at position %d", name.pos)
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return &refNode{name: name.text, index: -1}, nil
	case t.kind == tokIdent:
		return p.atom()
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
}

func (p *parser) atom() (node, error) {
	var roleName token
	if p.keyword("count") {
		if err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		roleName = p.next()
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
	} else {
		roleName = p.next()
	}
	if roleName.kind != tokIdent {
		return nil, fmt.Errorf("expected role name at position %d", roleName.pos)
	}
	role, err := roles.Parse(roleName.text)
	if err != nil {
		return nil, fmt.Errorf("position %d: %w", roleName.pos, err)
	}

	cmp := p.next()
	if cmp.kind != tokCmp {
		return nil, fmt.Errorf("expected comparison operator after role at position %d", cmp.pos)
	}
	var op cmpOp
	switch cmp.text {
	case ">=":
		op = cmpGE
	case ">":
		op = cmpGT
	case "<=":
		op = cmpLE
	case "<":
		op = cmpLT
	case "==", "=":
		op = cmpEQ
	default:
		return nil, fmt.Errorf("invalid comparison %q at position %d", cmp.text, cmp.pos)
	}

	num := p.next()
	if num.kind != tokNumber {
		return nil, fmt.Errorf("expected number at position %d", num.pos)
	}
	n, err := strconv.Atoi(num.text)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q at position %d", num.text, num.pos)
	}

	return &atomNode{role: role, op: op, n: n}, nil
}

func (p *parser) expect(kind tokenKind, text string) error {
	t := p.next()
	if t.kind != kind {
		return fmt.Errorf("expected %q at position %d, got %q", text, t.pos, t.text)
	}
	return nil
}
