// Package check validates a compiled temporal plan network: temporal
// consistency via an all-pairs shortest-path closure over the
// distance-graph encoding of the bounds, probability mass on
// probabilistic branch points, and a defensive label re-check. Checking
// never mutates the network, so repeated runs yield identical results.
package check

import (
	"math"

	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/tpn"
)

// probabilityEpsilon is the tolerance when summing branch probabilities.
const probabilityEpsilon = 1e-5

// Result carries the diagnostics and the tightened bounds of one check
// pass. The network itself is left untouched.
type Result struct {
	Errors []error

	dist [][]float64
}

// OK reports whether the network passed every validation.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Bound returns the tightened bound on the distance from node i to node
// j implied by the whole constraint system. It is only meaningful on a
// temporally consistent network.
func (r *Result) Bound(i, j int) interval.Interval {
	return interval.Interval{Lo: -r.dist[j][i], Hi: r.dist[i][j]}
}

// Check validates the network. Every edge is considered simultaneously
// reachable for bound propagation, including all alternatives of every
// branch point, since any one of them might be realized.
func Check(n *tpn.Network) *Result {
	r := &Result{}
	r.checkLabels(n)
	r.checkProbabilities(n)
	r.closure(n)
	return r
}

// checkLabels defensively re-validates the label table emitted by the
// builder: every endpoint must name an allocated node.
func (r *Result) checkLabels(n *tpn.Network) {
	for label, eps := range n.Labels {
		for _, id := range []int{eps.Start, eps.End} {
			if id < 0 || id >= len(n.Nodes) {
				r.Errors = append(r.Errors, &tpn.UnknownLabelError{Label: label, Context: "network label table"})
				break
			}
		}
	}
}

// checkProbabilities verifies that the probabilities on the alternatives
// leaving each probabilistic branch node sum to one.
func (r *Result) checkProbabilities(n *tpn.Network) {
	for _, id := range n.Branches() {
		if n.Nodes[id].Branch != tpn.BranchProbabilistic {
			continue
		}
		sum := 0.0
		for _, e := range n.Outgoing(id) {
			sum += e.Probability
		}
		if math.Abs(sum-1.0) > probabilityEpsilon {
			r.Errors = append(r.Errors, &ProbabilityMassError{Node: id, Name: n.Nodes[id].Name, Sum: sum})
		}
	}
}

// closure runs a Floyd-Warshall pass over the distance graph: an edge
// [lo,hi] from u to v contributes hi as the distance u->v and -lo as the
// distance v->u. A negative self-cycle means the bounds admit no time
// assignment.
func (r *Result) closure(n *tpn.Network) {
	size := len(n.Nodes)
	dist := make([][]float64, size)
	next := make([][]int, size)
	for i := range dist {
		dist[i] = make([]float64, size)
		next[i] = make([]int, size)
		for j := range dist[i] {
			if i == j {
				dist[i][j] = 0
			} else {
				dist[i][j] = math.Inf(1)
			}
			next[i][j] = -1
		}
	}
	relax := func(u, v int, d float64) {
		if d < dist[u][v] {
			dist[u][v] = d
			next[u][v] = v
		}
	}
	for _, e := range n.Edges {
		relax(e.From, e.To, e.Bound.Hi)
		relax(e.To, e.From, -e.Bound.Lo)
	}

	for k := 0; k < size; k++ {
		for i := 0; i < size; i++ {
			if math.IsInf(dist[i][k], 1) {
				continue
			}
			for j := 0; j < size; j++ {
				if d := dist[i][k] + dist[k][j]; d < dist[i][j] {
					dist[i][j] = d
					next[i][j] = next[i][k]
				}
			}
		}
	}

	r.dist = dist
	for i := 0; i < size; i++ {
		if dist[i][i] < 0 {
			r.Errors = append(r.Errors, &TemporalInconsistencyError{
				Cycle:  cycleFrom(next, i),
				Length: dist[i][i],
			})
			return // one negative cycle is diagnostic enough
		}
	}
}

// cycleFrom reconstructs the negative cycle through node i from the
// successor matrix.
func cycleFrom(next [][]int, i int) []int {
	cycle := []int{i}
	for at := next[i][i]; at != i && at != -1 && len(cycle) <= len(next); at = next[at][i] {
		cycle = append(cycle, at)
	}
	return append(cycle, i)
}
