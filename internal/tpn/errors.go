package tpn

import "fmt"

// UnknownLabelError reports a startof/endof reference that does not
// resolve to any labeled episode built within the enclosing constrained
// composition.
type UnknownLabelError struct {
	Label   string
	Context string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q in %s", e.Label, e.Context)
}
