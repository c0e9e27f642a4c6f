package episode

import (
	"errors"
	"fmt"

	"github.com/vk/tempoplan/internal/interval"
)

// Sequence composes episodes back to back: each child starts exactly when
// its predecessor ends. The derived duration is the sum of the children's
// bounds; the guard is the first child's guard; start effects come from
// the first child and end effects from the last.
func Sequence(children ...*Episode) (*Episode, error) {
	if len(children) == 0 {
		return nil, errors.New("sequence: at least one sub-episode required")
	}
	dur := children[0].Duration
	for _, c := range children[1:] {
		dur = dur.Sum(c.Duration)
	}
	first, last := children[0], children[len(children)-1]
	return &Episode{
		Kind:         KindSequence,
		Name:         "sequence",
		Duration:     dur,
		Guard:        first.Guard,
		EndGuard:     last.EndGuard,
		StartEffects: first.StartEffects,
		EndEffects:   last.EndEffects,
		Children:     children,
	}, nil
}

// Parallel composes episodes sharing one start event; the composite ends
// when every child has ended. The derived duration is [max lo, max hi],
// the guard is the conjunction of the children's guards, and effects are
// the union of the children's effects.
func Parallel(children ...*Episode) (*Episode, error) {
	if len(children) == 0 {
		return nil, errors.New("parallel: at least one sub-episode required")
	}
	dur := children[0].Duration
	guards := make([]Guard, 0, len(children))
	endGuards := make([]Guard, 0, len(children))
	var startEff, endEff []Effect
	for i, c := range children {
		if i > 0 {
			dur = dur.Cover(c.Duration)
		}
		guards = append(guards, c.Guard)
		endGuards = append(endGuards, c.EndGuard)
		startEff = append(startEff, c.StartEffects...)
		endEff = append(endEff, c.EndEffects...)
	}
	return &Episode{
		Kind:         KindParallel,
		Name:         "parallel",
		Duration:     dur,
		Guard:        And(guards...),
		EndGuard:     And(endGuards...),
		StartEffects: startEff,
		EndEffects:   endEff,
		Children:     children,
	}, nil
}

// WithInvariant attaches a boolean assertion that must hold over the whole
// parallel interval. Assertions are not episodes: they contribute an
// invariant span in the compiled network and nothing else.
func (e *Episode) WithInvariant(g Guard) (*Episode, error) {
	if e.Kind != KindParallel {
		return nil, fmt.Errorf("invariant assertions require a parallel composition, got %s", e.Kind)
	}
	e.Assertions = append(e.Assertions, g)
	return e, nil
}

// Choose composes alternatives under a controllable branch point: exactly
// one child is realized, picked by the controller. The derived duration is
// [min lo, max hi] and the guard is the disjunction of the children's
// guards. Effects stay conditional on the realized child and are not
// merged into the composite.
func Choose(children ...*Episode) (*Episode, error) {
	if len(children) == 0 {
		return nil, errors.New("choose: at least one alternative required")
	}
	return &Episode{
		Kind:     KindChoice,
		Name:     "choose",
		Duration: choiceSpan(children),
		Guard:    disjunction(children),
		Children: children,
	}, nil
}

// ChooseProbabilistic composes alternatives under a probabilistic branch
// point: nature realizes exactly one child according to the declared
// distribution. Bound and guard rules match Choose. The probability mass
// is validated by the consistency checker, not here.
func ChooseProbabilistic(children []*Episode, probabilities []float64) (*Episode, error) {
	if len(children) == 0 {
		return nil, errors.New("choose_probabilistic: at least one alternative required")
	}
	if len(probabilities) != len(children) {
		return nil, fmt.Errorf("choose_probabilistic: %d probabilities for %d alternatives",
			len(probabilities), len(children))
	}
	for _, p := range probabilities {
		if p <= 0 || p > 1 {
			return nil, fmt.Errorf("choose_probabilistic: probability %g outside (0, 1]", p)
		}
	}
	return &Episode{
		Kind:          KindProbabilistic,
		Name:          "choose_probabilistic",
		Duration:      choiceSpan(children),
		Guard:         disjunction(children),
		Children:      children,
		Probabilities: probabilities,
	}, nil
}

// Constrained wraps an inner composition and adds explicit temporal
// constraints between time points referenced through startof/endof labels.
// Duration, guard, and effects are inherited from the inner composition;
// a constraint tying the composite's own start and end (the empty label)
// is intersected into the duration immediately.
func Constrained(inner *Episode, constraints ...Constraint) (*Episode, error) {
	e := &Episode{
		Kind:         KindConstrained,
		Name:         "constrained " + inner.Name,
		Duration:     inner.Duration,
		Guard:        inner.Guard,
		EndGuard:     inner.EndGuard,
		StartEffects: inner.StartEffects,
		EndEffects:   inner.EndEffects,
		Children:     []*Episode{inner},
		Constraints:  constraints,
	}
	for _, c := range constraints {
		if c.Bound.Empty() {
			return nil, fmt.Errorf("constrained: malformed bound %s on %s -> %s", c.Bound, c.From, c.To)
		}
		fromOwnStart := !c.From.AtEnd && (c.From.Label == "" || c.From.Label == inner.Label)
		toOwnEnd := c.To.AtEnd && (c.To.Label == "" || c.To.Label == inner.Label)
		if fromOwnStart && toOwnEnd {
			if _, err := e.WithBound(c.Bound); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

func choiceSpan(children []*Episode) interval.Interval {
	dur := children[0].Duration
	for _, c := range children[1:] {
		dur = dur.Span(c.Duration)
	}
	return dur
}

func disjunction(children []*Episode) Guard {
	guards := make([]Guard, 0, len(children))
	for _, c := range children {
		guards = append(guards, c.Guard)
	}
	return Or(guards...)
}
