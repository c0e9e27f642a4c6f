package episode

import (
	"fmt"
	"strings"
)

// GuardOp discriminates the guard formula forms.
type GuardOp int

const (
	OpTrue GuardOp = iota
	OpEq
	OpAnd
	OpOr
)

// Guard is a boolean formula over state and field paths. A guard must hold
// for its episode to be eligible to start. Composite guards are derived by
// the composition operators, never authored directly.
type Guard struct {
	Op    GuardOp
	Path  string
	Value string
	Subs  []Guard
}

// True is the trivially satisfied guard.
func True() Guard {
	return Guard{Op: OpTrue}
}

// Eq is the atomic guard "path == value".
func Eq(path, value string) Guard {
	return Guard{Op: OpEq, Path: path, Value: value}
}

// And conjoins guards, flattening nested conjunctions and dropping
// trivially true terms.
func And(gs ...Guard) Guard {
	terms := gather(OpAnd, gs)
	switch len(terms) {
	case 0:
		return True()
	case 1:
		return terms[0]
	}
	return Guard{Op: OpAnd, Subs: terms}
}

// Or disjoins guards, flattening nested disjunctions. A trivially true
// alternative makes the whole disjunction true.
func Or(gs ...Guard) Guard {
	for _, g := range gs {
		if g.Op == OpTrue {
			return True()
		}
	}
	terms := gather(OpOr, gs)
	switch len(terms) {
	case 0:
		return True()
	case 1:
		return terms[0]
	}
	return Guard{Op: OpOr, Subs: terms}
}

func gather(op GuardOp, gs []Guard) []Guard {
	var terms []Guard
	for _, g := range gs {
		switch g.Op {
		case OpTrue:
			// dropped; Or handles the short-circuit before calling gather
		case op:
			terms = append(terms, g.Subs...)
		default:
			terms = append(terms, g)
		}
	}
	return terms
}

// IsTrue reports whether the guard is trivially satisfied.
func (g Guard) IsTrue() bool {
	return g.Op == OpTrue
}

// Paths returns every state/field path the guard mentions, in formula order.
func (g Guard) Paths() []string {
	switch g.Op {
	case OpEq:
		return []string{g.Path}
	case OpAnd, OpOr:
		var paths []string
		for _, s := range g.Subs {
			paths = append(paths, s.Paths()...)
		}
		return paths
	}
	return nil
}

// String renders the guard in a stable infix form, e.g.
// "helo == on && (pad == clear || pad == wet)".
func (g Guard) String() string {
	switch g.Op {
	case OpTrue:
		return "true"
	case OpEq:
		return fmt.Sprintf("%s == %s", g.Path, g.Value)
	case OpAnd:
		return joinSubs(g.Subs, " && ")
	case OpOr:
		return joinSubs(g.Subs, " || ")
	}
	return "?"
}

func joinSubs(subs []Guard, sep string) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		if len(s.Subs) > 1 {
			parts[i] = "(" + s.String() + ")"
		} else {
			parts[i] = s.String()
		}
	}
	return strings.Join(parts, sep)
}
