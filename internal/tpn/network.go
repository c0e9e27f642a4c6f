// Package tpn compiles a composite episode tree into a temporal plan
// network: an arena of time-point nodes, bounded edges, controllable and
// probabilistic branch points, and invariant spans. Building and
// consistency checking are separate passes; this package only builds.
package tpn

import (
	"github.com/vk/tempoplan/internal/episode"
	"github.com/vk/tempoplan/internal/interval"
)

// BranchKind tags a time point that realizes exactly one outgoing
// alternative.
type BranchKind int

const (
	// BranchNone marks an ordinary time point.
	BranchNone BranchKind = iota
	// BranchControllable marks a choice resolved by the controller.
	BranchControllable
	// BranchProbabilistic marks a choice resolved by nature according to
	// the probabilities on the outgoing edges.
	BranchProbabilistic
)

func (k BranchKind) String() string {
	switch k {
	case BranchControllable:
		return "controllable"
	case BranchProbabilistic:
		return "probabilistic"
	}
	return "none"
}

// Node is a time point in the network, identified by its index in the
// node arena.
type Node struct {
	ID     int
	Name   string
	Branch BranchKind
}

// Edge is a directed bound between two time points. Probability is
// nonzero only on edges leaving a probabilistic branch node.
type Edge struct {
	From        int
	To          int
	Bound       interval.Interval
	Probability float64
	Name        string
}

// Span ties a boolean formula to a node pair: the formula must hold for
// the entire interval between the two time points.
type Span struct {
	Start     int
	End       int
	Condition episode.Guard
}

// Endpoints records the start and end nodes of a labeled episode.
type Endpoints struct {
	Start int
	End   int
}

// Network is the compiled artifact. All collections are plain slices and
// maps so an external serializer can enumerate them without reaching into
// builder internals.
type Network struct {
	Nodes  []Node
	Edges  []Edge
	Spans  []Span
	Guards map[int]episode.Guard
	Labels map[string]Endpoints
	Start  int
	End    int
}

// Branches returns the ids of all branch nodes, in arena order.
func (n *Network) Branches() []int {
	var ids []int
	for _, node := range n.Nodes {
		if node.Branch != BranchNone {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// Outgoing returns the edges leaving the given node, in insertion order.
func (n *Network) Outgoing(id int) []Edge {
	var out []Edge
	for _, e := range n.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
