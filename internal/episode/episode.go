// Package episode implements the timed behavior unit and the composition
// algebra that combines episodes into trees: sequence, parallel,
// controllable and probabilistic choice, and constrained composition with
// cross-branch temporal constraints. Composite guards, effects, and
// duration bounds are derived bottom-up; nothing here is ever executed.
package episode

import (
	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/model"
)

// Kind discriminates the episode variants.
type Kind int

const (
	KindLeaf Kind = iota
	KindSequence
	KindParallel
	KindChoice
	KindProbabilistic
	KindConstrained
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindParallel:
		return "parallel"
	case KindChoice:
		return "choose"
	case KindProbabilistic:
		return "choose_probabilistic"
	case KindConstrained:
		return "constrained"
	}
	return "unknown"
}

// Effect is a symbolic assignment the episode asserts at its start or end
// event. Paths are fully instantiated ("helo.base", not "self.base").
type Effect struct {
	Path  string
	Value string
	When  model.When
}

// Endpoint names one end of a labeled episode for a cross-branch temporal
// constraint: startof(label) or endof(label). The empty label refers to
// the constrained composition itself.
type Endpoint struct {
	Label string
	AtEnd bool
}

func (ep Endpoint) String() string {
	label := ep.Label
	if label == "" {
		label = "."
	}
	if ep.AtEnd {
		return "endof(" + label + ")"
	}
	return "startof(" + label + ")"
}

// Constraint is an explicit [lo,hi] bound between two labeled time points
// inside a constrained composition.
type Constraint struct {
	From  Endpoint
	To    Endpoint
	Bound interval.Interval
}

// Episode is a node of the composition tree: a leaf produced by method
// instantiation, or a composite produced by an operator. Start and end
// events are abstract; only the relative Duration bound is carried.
type Episode struct {
	Kind     Kind
	Name     string // action name for leaves, operator name otherwise
	Label    string // startof/endof reference name, optional
	Duration interval.Interval
	Bounded  bool // an explicit outer bound was written on this composite

	Guard    Guard // eligibility condition at the start event
	EndGuard Guard // at-end preconditions, kept separate from the guard

	StartEffects []Effect
	EndEffects   []Effect

	Children      []*Episode
	Probabilities []float64    // probabilistic choice only, one per child
	Assertions    []Guard      // parallel only: invariant spans over [start,end]
	Constraints   []Constraint // constrained composition only
}

// WithLabel names the episode for startof/endof references inside an
// enclosing constrained composition.
func (e *Episode) WithLabel(name string) *Episode {
	e.Label = name
	return e
}

// WithBound intersects an explicitly written outer bound with the derived
// duration. The explicit bound is not trusted as-is: an empty intersection
// is an InfeasibleBoundError, and the derived range is never widened.
func (e *Episode) WithBound(outer interval.Interval) (*Episode, error) {
	tightened := e.Duration.Intersect(outer)
	if tightened.Empty() {
		return nil, &InfeasibleBoundError{Episode: e.Name, Derived: e.Duration, Declared: outer}
	}
	e.Duration = tightened
	e.Bounded = true
	return e, nil
}
