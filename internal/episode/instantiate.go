package episode

import (
	"fmt"
	"strings"

	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/model"
)

// Instantiate binds a primitive method to a concrete owner object and
// parameter objects, substitutes the method-local paths, and yields a leaf
// episode. The guard is the conjunction of the at-start preconditions;
// the effects are the method's declared effects with instantiated paths.
func Instantiate(m *model.Model, mth *model.Method, owner string, bindings map[string]string) (*Episode, error) {
	ownerObj := m.Object(owner)
	if ownerObj == nil {
		return nil, &model.UnresolvedReferenceError{Kind: "object", Name: owner, Context: "invocation of " + mth.Name}
	}
	if ownerObj.Class != mth.Class {
		return nil, fmt.Errorf("object %q has class %s, method %s belongs to class %s",
			owner, ownerObj.Class, mth.Name, mth.Class)
	}
	for _, p := range mth.Params {
		bound, ok := bindings[p.Name]
		if !ok {
			return nil, fmt.Errorf("invocation of %s.%s: parameter %q not bound", owner, mth.Name, p.Name)
		}
		obj := m.Object(bound)
		if obj == nil {
			return nil, &model.UnresolvedReferenceError{Kind: "object", Name: bound, Context: "invocation of " + owner + "." + mth.Name}
		}
		if obj.Class != p.Class {
			return nil, fmt.Errorf("invocation of %s.%s: parameter %q wants class %s, object %q has class %s",
				owner, mth.Name, p.Name, p.Class, bound, obj.Class)
		}
	}

	name := owner + "." + mth.Name
	var startConds, endConds []Guard
	for _, c := range mth.Preconditions {
		path := substitute(c.Path, owner, bindings)
		cls, err := m.ClassOfPath(path)
		if err != nil {
			return nil, err
		}
		if cls != "" && !m.Class(cls).Contains(c.Equals) {
			return nil, &PreconditionTypeError{Method: name, Path: path, Value: c.Equals, Class: cls}
		}
		atom := Eq(path, c.Equals)
		if c.When == model.AtStart {
			startConds = append(startConds, atom)
		} else {
			endConds = append(endConds, atom)
		}
	}

	var startEff, endEff []Effect
	for _, ef := range mth.Effects {
		path := substitute(ef.Path, owner, bindings)
		cls, err := m.ClassOfPath(path)
		if err != nil {
			return nil, err
		}
		if cls != "" && !m.Class(cls).Contains(ef.Value) {
			return nil, &model.UnresolvedReferenceError{Kind: "value", Name: ef.Value, Context: "effect on " + path + " in " + name}
		}
		eff := Effect{Path: path, Value: ef.Value, When: ef.When}
		if ef.When == model.AtStart {
			startEff = append(startEff, eff)
		} else {
			endEff = append(endEff, eff)
		}
	}

	return &Episode{
		Kind:         KindLeaf,
		Name:         name,
		Duration:     mth.Duration,
		Guard:        And(startConds...),
		EndGuard:     And(endConds...),
		StartEffects: startEff,
		EndEffects:   endEff,
	}, nil
}

// Assert yields the degenerate leaf for a pure state check: duration
// [0,0], guard equal to the expression, and no effects. It is used for
// goal assertions and never becomes a branch point.
func Assert(g Guard) *Episode {
	return &Episode{
		Kind:     KindLeaf,
		Name:     "goal",
		Duration: interval.Exactly(0),
		Guard:    g,
		EndGuard: True(),
	}
}

// substitute rewrites a method-local path onto concrete objects: the
// leading "self" becomes the owner, a parameter name becomes its bound
// object.
func substitute(path, owner string, bindings map[string]string) string {
	first, rest, cut := strings.Cut(path, ".")
	head := first
	if first == "self" {
		head = owner
	} else if bound, ok := bindings[first]; ok {
		head = bound
	}
	if !cut {
		return head
	}
	return head + "." + rest
}
