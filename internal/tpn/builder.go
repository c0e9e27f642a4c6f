package tpn

import (
	"fmt"

	"github.com/vk/tempoplan/internal/episode"
	"github.com/vk/tempoplan/internal/interval"
)

// unallocated requests a fresh node from the arena.
const unallocated = -1

// Build walks the composite episode tree once, children before parents,
// and emits the temporal plan network. It performs no consistency pass;
// that belongs to the check package.
func Build(root *episode.Episode) (*Network, error) {
	b := &builder{
		net: &Network{
			Guards: make(map[int]episode.Guard),
			Labels: make(map[string]Endpoints),
		},
	}
	start, end, err := b.build(root, unallocated, unallocated)
	if err != nil {
		return nil, err
	}
	b.net.Start = start
	b.net.End = end
	return b.net, nil
}

type builder struct {
	net *Network
	// scopes holds the label tables of the constrained compositions
	// currently being built, outermost first. A label becomes visible the
	// moment its episode is built, so a constraint can never reference a
	// branch that has not been allocated yet.
	scopes []map[string]Endpoints
}

func (b *builder) build(ep *episode.Episode, start, end int) (int, int, error) {
	var s, e int
	var err error

	switch ep.Kind {
	case episode.KindLeaf:
		s, e = b.claim(start, ep.Name+".start"), b.claim(end, ep.Name+".end")
		b.edge(s, e, ep.Duration, 0, ep.Name)

	case episode.KindSequence:
		s, e, err = b.buildSequence(ep, start, end)

	case episode.KindParallel:
		s, e, err = b.buildParallel(ep, start, end)

	case episode.KindChoice, episode.KindProbabilistic:
		s, e, err = b.buildChoice(ep, start, end)

	case episode.KindConstrained:
		s, e, err = b.buildConstrained(ep, start, end)

	default:
		return 0, 0, fmt.Errorf("unknown episode kind %d", ep.Kind)
	}
	if err != nil {
		return 0, 0, err
	}

	b.attachGuard(s, ep.Guard)
	b.attachGuard(e, ep.EndGuard)
	if ep.Label != "" {
		b.record(ep.Label, Endpoints{Start: s, End: e})
	}
	return s, e, nil
}

// buildSequence chains the children: each child's end node is the next
// child's start node and the composite reuses the outermost children's
// endpoints. The derived bound is already implied by the chain, so an
// extra edge appears only for an explicitly written outer bound.
func (b *builder) buildSequence(ep *episode.Episode, start, end int) (int, int, error) {
	var s, e int
	cur := start
	for i, child := range ep.Children {
		childEnd := unallocated
		if i == len(ep.Children)-1 {
			childEnd = end
		}
		cs, ce, err := b.build(child, cur, childEnd)
		if err != nil {
			return 0, 0, err
		}
		if i == 0 {
			s = cs
		}
		cur, e = ce, ce
	}
	if ep.Bounded {
		b.edge(s, e, ep.Duration, 0, ep.Name)
	}
	return s, e, nil
}

// buildParallel anchors every child to one shared start event and joins
// every child end to one shared end event with free edges; child time
// points stay distinct so cross-branch constraints can separate them,
// and the derived bound hardens into an edge only when explicitly
// written. Sibling boolean assertions become invariant spans over the
// composite interval and contribute no nodes of their own.
func (b *builder) buildParallel(ep *episode.Episode, start, end int) (int, int, error) {
	s := b.claim(start, "parallel.start")
	e := b.claim(end, "parallel.end")
	for _, child := range ep.Children {
		cs, ce, err := b.build(child, unallocated, unallocated)
		if err != nil {
			return 0, 0, err
		}
		b.edge(s, cs, interval.Free(), 0, "parallel.fork")
		b.edge(ce, e, interval.Free(), 0, "parallel.join")
	}
	if ep.Bounded {
		b.edge(s, e, ep.Duration, 0, ep.Name)
	}
	for _, g := range ep.Assertions {
		b.net.Spans = append(b.net.Spans, Span{Start: s, End: e, Condition: g})
	}
	return s, e, nil
}

// buildChoice allocates the composite start as a branch node. Exactly one
// outgoing alternative is realized; for the probabilistic kind each
// alternative edge carries its declared probability.
func (b *builder) buildChoice(ep *episode.Episode, start, end int) (int, int, error) {
	kind := BranchControllable
	if ep.Kind == episode.KindProbabilistic {
		kind = BranchProbabilistic
	}
	// The branch node is always fresh: a time point shared with siblings
	// (a parallel start, a sequence boundary) must not itself become a
	// choice point, so a shared predecessor is linked with a rigid edge.
	s := b.claim(unallocated, ep.Name+".start")
	b.net.Nodes[s].Branch = kind
	if start != unallocated {
		b.edge(start, s, interval.Exactly(0), 0, ep.Name+".anchor")
	}
	e := b.claim(end, ep.Name+".end")

	for i, child := range ep.Children {
		cs, ce, err := b.build(child, unallocated, unallocated)
		if err != nil {
			return 0, 0, err
		}
		var p float64
		if kind == BranchProbabilistic {
			p = ep.Probabilities[i]
		}
		b.edge(s, cs, interval.Free(), p, fmt.Sprintf("%s.alt%d", ep.Name, i))
		b.edge(ce, e, interval.Free(), 0, fmt.Sprintf("%s.join%d", ep.Name, i))
	}
	if ep.Bounded {
		b.edge(s, e, ep.Duration, 0, ep.Name)
	}
	return s, e, nil
}

// buildConstrained opens a label scope, builds the inner composition, and
// then emits one edge per declared constraint with endpoints resolved
// through the scope. The empty label refers to the composite itself.
func (b *builder) buildConstrained(ep *episode.Episode, start, end int) (int, int, error) {
	b.scopes = append(b.scopes, make(map[string]Endpoints))
	defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()

	inner := ep.Children[0]
	s, e, err := b.build(inner, start, end)
	if err != nil {
		return 0, 0, err
	}

	self := Endpoints{Start: s, End: e}
	for _, c := range ep.Constraints {
		from, err := b.resolve(c.From, self, ep.Name)
		if err != nil {
			return 0, 0, err
		}
		to, err := b.resolve(c.To, self, ep.Name)
		if err != nil {
			return 0, 0, err
		}
		b.edge(from, to, c.Bound, 0, fmt.Sprintf("constraint %s -> %s", c.From, c.To))
	}
	if ep.Bounded {
		b.edge(s, e, ep.Duration, 0, ep.Name)
	}
	return s, e, nil
}

// resolve maps a startof/endof endpoint to a node id, searching the open
// label scopes innermost first.
func (b *builder) resolve(ref episode.Endpoint, self Endpoints, ctx string) (int, error) {
	eps := self
	if ref.Label != "" {
		found := false
		for i := len(b.scopes) - 1; i >= 0 && !found; i-- {
			eps, found = b.scopes[i][ref.Label]
		}
		if !found {
			return 0, &UnknownLabelError{Label: ref.Label, Context: ctx}
		}
	}
	if ref.AtEnd {
		return eps.End, nil
	}
	return eps.Start, nil
}

// claim returns the given node id, or allocates a fresh node when the
// caller passed unallocated.
func (b *builder) claim(id int, name string) int {
	if id != unallocated {
		return id
	}
	n := Node{ID: len(b.net.Nodes), Name: name}
	b.net.Nodes = append(b.net.Nodes, n)
	return n.ID
}

func (b *builder) edge(from, to int, bound interval.Interval, probability float64, name string) {
	b.net.Edges = append(b.net.Edges, Edge{
		From: from, To: to, Bound: bound, Probability: probability, Name: name,
	})
}

// record publishes a label in every open scope and in the network table.
func (b *builder) record(label string, eps Endpoints) {
	for _, scope := range b.scopes {
		scope[label] = eps
	}
	b.net.Labels[label] = eps
}

// attachGuard merges a guard formula into the derived guard of a node.
// Start guards land on start events and at-end preconditions on end
// events. Shared nodes conjoin; identical formulas are not repeated.
func (b *builder) attachGuard(node int, g episode.Guard) {
	if g.IsTrue() {
		return
	}
	existing, ok := b.net.Guards[node]
	if !ok {
		b.net.Guards[node] = g
		return
	}
	if existing.String() == g.String() {
		return
	}
	b.net.Guards[node] = episode.And(existing, g)
}
