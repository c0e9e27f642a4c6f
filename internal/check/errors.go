package check

import (
	"fmt"
	"strings"
)

// TemporalInconsistencyError reports a negative cycle in the distance
// graph: the temporal constraints on the nodes of the cycle admit no
// schedule.
type TemporalInconsistencyError struct {
	Cycle  []int
	Length float64
}

func (e *TemporalInconsistencyError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("temporally inconsistent: negative cycle %s (length %g)",
		strings.Join(parts, " -> "), e.Length)
}

// ProbabilityMassError reports a probabilistic branch node whose
// outgoing probabilities do not sum to one.
type ProbabilityMassError struct {
	Node int
	Name string
	Sum  float64
}

func (e *ProbabilityMassError) Error() string {
	return fmt.Sprintf("probabilities leaving node %d (%s) sum to %g, want 1", e.Node, e.Name, e.Sum)
}
