// Package export renders a compiled temporal plan network and its check
// result into interchange formats. The rendering walks only the public
// network surface; unbounded limits appear as the string "inf" so the
// output stays representable in plain JSON.
package export

import (
	"encoding/json"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vk/tempoplan/internal/check"
	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/tpn"
)

// Document is the serializable view of one compiled network.
type Document struct {
	Nodes       []Node   `json:"nodes" yaml:"nodes"`
	Edges       []Edge   `json:"edges" yaml:"edges"`
	Spans       []Span   `json:"spans,omitempty" yaml:"spans,omitempty"`
	Guards      []Guard  `json:"guards,omitempty" yaml:"guards,omitempty"`
	Labels      []Label  `json:"labels,omitempty" yaml:"labels,omitempty"`
	Start       int      `json:"start" yaml:"start"`
	End         int      `json:"end" yaml:"end"`
	Makespan    []any    `json:"makespan,omitempty" yaml:"makespan,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Node is a time point; branch is empty for ordinary nodes.
type Node struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// Edge carries its bound as a [lo, hi] pair, mirroring the source syntax.
type Edge struct {
	From        int     `json:"from" yaml:"from"`
	To          int     `json:"to" yaml:"to"`
	Bound       []any   `json:"bound" yaml:"bound"`
	Probability float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
}

// Span is an invariant over the interval between two time points.
type Span struct {
	Start     int    `json:"start" yaml:"start"`
	End       int    `json:"end" yaml:"end"`
	Condition string `json:"condition" yaml:"condition"`
}

// Guard is the derived eligibility condition of a node.
type Guard struct {
	Node      int    `json:"node" yaml:"node"`
	Condition string `json:"condition" yaml:"condition"`
}

// Label maps an episode label to its start and end nodes.
type Label struct {
	Name  string `json:"name" yaml:"name"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Render flattens the network and check result into a Document. Map-keyed
// collections are sorted so output is deterministic.
func Render(n *tpn.Network, r *check.Result) *Document {
	doc := &Document{Start: n.Start, End: n.End}

	for _, node := range n.Nodes {
		branch := ""
		if node.Branch != tpn.BranchNone {
			branch = node.Branch.String()
		}
		doc.Nodes = append(doc.Nodes, Node{ID: node.ID, Name: node.Name, Branch: branch})
	}
	for _, e := range n.Edges {
		doc.Edges = append(doc.Edges, Edge{
			From:        e.From,
			To:          e.To,
			Bound:       renderBound(e.Bound),
			Probability: e.Probability,
			Name:        e.Name,
		})
	}
	for _, s := range n.Spans {
		doc.Spans = append(doc.Spans, Span{Start: s.Start, End: s.End, Condition: s.Condition.String()})
	}
	for id, g := range n.Guards {
		doc.Guards = append(doc.Guards, Guard{Node: id, Condition: g.String()})
	}
	sort.Slice(doc.Guards, func(i, j int) bool { return doc.Guards[i].Node < doc.Guards[j].Node })
	for name, eps := range n.Labels {
		doc.Labels = append(doc.Labels, Label{Name: name, Start: eps.Start, End: eps.End})
	}
	sort.Slice(doc.Labels, func(i, j int) bool { return doc.Labels[i].Name < doc.Labels[j].Name })

	if r != nil {
		if r.OK() {
			doc.Makespan = renderBound(r.Bound(n.Start, n.End))
		}
		for _, err := range r.Errors {
			doc.Diagnostics = append(doc.Diagnostics, err.Error())
		}
	}
	return doc
}

// WriteJSON renders the network as indented JSON.
func WriteJSON(w io.Writer, n *tpn.Network, r *check.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Render(n, r))
}

// WriteYAML renders the network as YAML.
func WriteYAML(w io.Writer, n *tpn.Network, r *check.Result) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(Render(n, r))
}

func renderBound(iv interval.Interval) []any {
	return []any{renderLimit(iv.Lo), renderLimit(iv.Hi)}
}

func renderLimit(f float64) any {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return f
}
