// Package model defines the action model: state classes, objects, and
// primitive methods. A model is assembled once, resolved once, and is
// immutable afterwards; episode effects are never executed against it.
package model

import (
	"github.com/vk/tempoplan/internal/interval"
)

// When tags a condition or effect with the episode event it applies to.
type When int

const (
	AtStart When = iota
	AtEnd
)

func (w When) String() string {
	if w == AtEnd {
		return "end"
	}
	return "start"
}

// Class is a finite set of named state values with one initial value.
// Initials holds the declared initial values as written; Resolve checks
// that there is exactly one and promotes it to Initial.
type Class struct {
	Name     string
	Values   []string
	Initials []string
	Initial  string
}

// Contains reports whether v is one of the class values.
func (c *Class) Contains(v string) bool {
	for _, val := range c.Values {
		if val == v {
			return true
		}
	}
	return false
}

// Field is a typed object field: a scalar value of a state class, a
// reference to another object, or absent ("none"). Exactly one of the
// three forms is set.
type Field struct {
	Name  string
	Class string // state class of a scalar field
	Value string // scalar value, when Class != ""
	Ref   string // referenced object name
	None  bool
}

// Object is an instance of a class. Its implicit current state value
// starts at the class initial value and is only ever changed symbolically
// through episode effects.
type Object struct {
	Name   string
	Class  string
	Fields []*Field

	fields map[string]*Field
}

// Field returns the named field, or nil.
func (o *Object) Field(name string) *Field {
	return o.fields[name]
}

// Param declares a typed parameter of a primitive method.
type Param struct {
	Name  string
	Class string
}

// Condition is a predicate over the owner's state or a field path of a
// parameter object. Paths are method-local: the first segment is "self"
// or a parameter name; a bare first segment denotes the object's implicit
// state value.
type Condition struct {
	When   When
	Path   string
	Equals string
}

// Effect assigns a literal value to a state or field path.
type Effect struct {
	When  When
	Path  string
	Value string
}

// Method is a primitive method owned by exactly one class.
type Method struct {
	Name          string
	Class         string
	Params        []*Param
	Duration      interval.Interval
	Preconditions []*Condition
	Effects       []*Effect
}

// Transition is the "pre => post" shorthand: it appends a condition that
// the owner state equals pre at start and an effect setting it to post at
// end. It returns the method for chaining during model assembly.
func (m *Method) Transition(pre, post string) *Method {
	m.Preconditions = append(m.Preconditions, &Condition{When: AtStart, Path: "self", Equals: pre})
	m.Effects = append(m.Effects, &Effect{When: AtEnd, Path: "self", Value: post})
	return m
}

// Model is the resolved set of classes, objects, and methods.
type Model struct {
	Classes []*Class
	Objects []*Object
	Methods []*Method

	classes map[string]*Class
	objects map[string]*Object
	methods map[string]map[string]*Method // class -> method name
}

// Class returns the named class, or nil.
func (m *Model) Class(name string) *Class {
	return m.classes[name]
}

// Object returns the named object, or nil.
func (m *Model) Object(name string) *Object {
	return m.objects[name]
}

// Method returns the named method of a class, or nil.
func (m *Model) Method(class, name string) *Method {
	return m.methods[class][name]
}
