package model

import "fmt"

// UnresolvedReferenceError reports a path or declaration naming an unknown
// class, object, field, value, or parameter at model-load time.
type UnresolvedReferenceError struct {
	Kind    string // "class", "object", "field", "value", "parameter"
	Name    string
	Context string // the declaration the reference appears in
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved %s reference %q in %s", e.Kind, e.Name, e.Context)
}

// MultipleInitialValuesError reports a state class declaring zero or more
// than one initial value.
type MultipleInitialValuesError struct {
	Class string
	Count int
}

func (e *MultipleInitialValuesError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("state class %q declares no initial value", e.Class)
	}
	return fmt.Sprintf("state class %q declares %d initial values, want exactly one", e.Class, e.Count)
}
