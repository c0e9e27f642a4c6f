package model

import (
	"fmt"
	"strings"
)

// New assembles a model from declarations. The model is not usable until
// Resolve has succeeded.
func New(classes []*Class, objects []*Object, methods []*Method) *Model {
	return &Model{Classes: classes, Objects: objects, Methods: methods}
}

// Resolve validates every cross-reference in the model: class initial
// values, object classes and field bindings, method ownership, parameter
// classes, and method-local condition/effect paths. It must be called once
// before the model is used; it has no side effects beyond filling lookup
// tables and promoting class initial values.
func (m *Model) Resolve() error {
	m.classes = make(map[string]*Class, len(m.Classes))
	m.objects = make(map[string]*Object, len(m.Objects))
	m.methods = make(map[string]map[string]*Method)

	for _, c := range m.Classes {
		if err := m.resolveClass(c); err != nil {
			return err
		}
	}
	for _, o := range m.Objects {
		if err := m.resolveObject(o); err != nil {
			return err
		}
	}
	// Field references can be forward, so check them after all objects exist.
	for _, o := range m.Objects {
		for _, f := range o.Fields {
			if f.Ref != "" && m.objects[f.Ref] == nil {
				return &UnresolvedReferenceError{Kind: "object", Name: f.Ref, Context: "object " + o.Name + ", field " + f.Name}
			}
		}
	}
	for _, mth := range m.Methods {
		if err := m.resolveMethod(mth); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) resolveClass(c *Class) error {
	if _, dup := m.classes[c.Name]; dup {
		return fmt.Errorf("state class %q declared twice", c.Name)
	}
	if c.Initial == "" {
		if len(c.Initials) != 1 {
			return &MultipleInitialValuesError{Class: c.Name, Count: len(c.Initials)}
		}
		c.Initial = c.Initials[0]
	}
	if !c.Contains(c.Initial) {
		return &UnresolvedReferenceError{Kind: "value", Name: c.Initial, Context: "state class " + c.Name}
	}
	m.classes[c.Name] = c
	return nil
}

func (m *Model) resolveObject(o *Object) error {
	if _, dup := m.objects[o.Name]; dup {
		return fmt.Errorf("object %q declared twice", o.Name)
	}
	if m.classes[o.Class] == nil {
		return &UnresolvedReferenceError{Kind: "class", Name: o.Class, Context: "object " + o.Name}
	}
	o.fields = make(map[string]*Field, len(o.Fields))
	for _, f := range o.Fields {
		if _, dup := o.fields[f.Name]; dup {
			return fmt.Errorf("object %q declares field %q twice", o.Name, f.Name)
		}
		if f.Class != "" {
			fc := m.classes[f.Class]
			if fc == nil {
				return &UnresolvedReferenceError{Kind: "class", Name: f.Class, Context: "object " + o.Name + ", field " + f.Name}
			}
			if !fc.Contains(f.Value) {
				return &UnresolvedReferenceError{Kind: "value", Name: f.Value, Context: "object " + o.Name + ", field " + f.Name}
			}
		}
		o.fields[f.Name] = f
	}
	m.objects[o.Name] = o
	return nil
}

func (m *Model) resolveMethod(mth *Method) error {
	if m.classes[mth.Class] == nil {
		return &UnresolvedReferenceError{Kind: "class", Name: mth.Class, Context: "method " + mth.Name}
	}
	if !mth.Duration.Valid() {
		return fmt.Errorf("method %s.%s: invalid duration bound %s", mth.Class, mth.Name, mth.Duration)
	}
	params := make(map[string]*Param, len(mth.Params))
	for _, p := range mth.Params {
		if m.classes[p.Class] == nil {
			return &UnresolvedReferenceError{Kind: "class", Name: p.Class, Context: "method " + mth.Name + ", parameter " + p.Name}
		}
		params[p.Name] = p
	}

	ctx := "method " + mth.Class + "." + mth.Name
	for _, c := range mth.Preconditions {
		if err := m.checkMethodPath(mth, params, c.Path, c.Equals, ctx); err != nil {
			return err
		}
	}
	for _, e := range mth.Effects {
		if err := m.checkMethodPath(mth, params, e.Path, e.Value, ctx); err != nil {
			return err
		}
	}

	if m.methods[mth.Class] == nil {
		m.methods[mth.Class] = make(map[string]*Method)
	}
	if _, dup := m.methods[mth.Class][mth.Name]; dup {
		return fmt.Errorf("method %s.%s declared twice", mth.Class, mth.Name)
	}
	m.methods[mth.Class][mth.Name] = mth
	return nil
}

// checkMethodPath validates a method-local path and, where the target
// class is statically known (the bare owner state), that the literal value
// belongs to it. Field paths of parameter objects can only be checked once
// concrete objects are bound at instantiation.
func (m *Model) checkMethodPath(mth *Method, params map[string]*Param, path, value, ctx string) error {
	first, _, _ := strings.Cut(path, ".")
	if first == "self" {
		if path == "self" {
			if !m.classes[mth.Class].Contains(value) {
				return &UnresolvedReferenceError{Kind: "value", Name: value, Context: ctx}
			}
		}
		return nil
	}
	if params[first] == nil {
		return &UnresolvedReferenceError{Kind: "parameter", Name: first, Context: ctx}
	}
	return nil
}

// ClassOfPath resolves an instantiated path ("object" or
// "object.field...") to the state class constraining its value. A bare
// object path denotes the object's implicit state. Reference fields are
// followed; a terminal reference or absent field has no class and yields
// "", nil. Unknown objects or fields are UnresolvedReferenceErrors.
func (m *Model) ClassOfPath(path string) (string, error) {
	segs := strings.Split(path, ".")
	obj := m.objects[segs[0]]
	if obj == nil {
		return "", &UnresolvedReferenceError{Kind: "object", Name: segs[0], Context: "path " + path}
	}
	if len(segs) == 1 {
		return obj.Class, nil
	}
	for i, seg := range segs[1:] {
		f := obj.Field(seg)
		if f == nil {
			return "", &UnresolvedReferenceError{Kind: "field", Name: seg, Context: "path " + path}
		}
		last := i == len(segs)-2
		switch {
		case f.Class != "":
			if !last {
				return "", &UnresolvedReferenceError{Kind: "field", Name: segs[i+2], Context: "path " + path}
			}
			return f.Class, nil
		case f.Ref != "":
			obj = m.objects[f.Ref]
			if last {
				return "", nil // terminal reference field: compared by object name
			}
		default: // none
			if !last {
				return "", &UnresolvedReferenceError{Kind: "field", Name: segs[i+2], Context: "path " + path}
			}
			return "", nil
		}
	}
	return obj.Class, nil
}
