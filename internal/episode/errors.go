package episode

import (
	"fmt"

	"github.com/vk/tempoplan/internal/interval"
)

// PreconditionTypeError reports a precondition comparing a field path
// against a value outside the path's declared state class.
type PreconditionTypeError struct {
	Method string
	Path   string
	Value  string
	Class  string
}

func (e *PreconditionTypeError) Error() string {
	return fmt.Sprintf("method %s: precondition compares %s against %q, which is not a value of class %s",
		e.Method, e.Path, e.Value, e.Class)
}

// InfeasibleBoundError reports an explicit outer bound whose intersection
// with the derived duration bound is empty.
type InfeasibleBoundError struct {
	Episode  string
	Derived  interval.Interval
	Declared interval.Interval
}

func (e *InfeasibleBoundError) Error() string {
	return fmt.Sprintf("episode %q: declared bound %s is incompatible with derived bound %s",
		e.Episode, e.Declared, e.Derived)
}
