package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tempoplan/internal/episode"
	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/tpn"
)

func leaf(name string, lo, hi float64) *episode.Episode {
	return &episode.Episode{
		Kind:     episode.KindLeaf,
		Name:     name,
		Duration: interval.New(lo, hi),
	}
}

func mustBuild(t *testing.T, ep *episode.Episode) *tpn.Network {
	t.Helper()
	n, err := tpn.Build(ep)
	require.NoError(t, err)
	return n
}

func TestCheckConsistentSequence(t *testing.T) {
	seq, err := episode.Sequence(leaf("a", 1, 4), leaf("b", 2, 5))
	require.NoError(t, err)
	n := mustBuild(t, seq)

	r := Check(n)
	assert.True(t, r.OK())
	assert.Equal(t, interval.New(3, 9), r.Bound(n.Start, n.End))
}

func TestCheckTightensBounds(t *testing.T) {
	// The declared outer bound [0,6] intersects with the derived parallel
	// bound to [4,6]; the closure must surface the tightened bound between
	// the shared start and end events.
	par, err := episode.Parallel(leaf("a", 2, 5), leaf("b", 4, 6))
	require.NoError(t, err)
	_, err = par.WithBound(interval.New(0, 6))
	require.NoError(t, err)
	n := mustBuild(t, par)

	r := Check(n)
	require.True(t, r.OK())
	assert.Equal(t, interval.New(4, 6), r.Bound(n.Start, n.End))
}

func TestCheckDeclaredBoundOnConstrained(t *testing.T) {
	// The release window forces the branch to start at 10 or later while
	// the bound declared on the constrained block caps the whole interval
	// at 4; the closure must reject the combination.
	par, err := episode.Parallel(leaf("a", 1, 2).WithLabel("x"))
	require.NoError(t, err)
	cc, err := episode.Constrained(par, episode.Constraint{
		From:  episode.Endpoint{},
		To:    episode.Endpoint{Label: "x"},
		Bound: interval.New(10, 20),
	})
	require.NoError(t, err)
	_, err = cc.WithBound(interval.New(0, 4))
	require.NoError(t, err)
	n := mustBuild(t, cc)

	r := Check(n)
	require.False(t, r.OK())
	var tie *TemporalInconsistencyError
	require.ErrorAs(t, r.Errors[0], &tie)
}

func TestCheckNegativeCycle(t *testing.T) {
	// Two parallel edges over the same pair: one requires at least 5 time
	// units, the other at most 3.
	n := &tpn.Network{
		Nodes: []tpn.Node{{ID: 0, Name: "s"}, {ID: 1, Name: "e"}},
		Edges: []tpn.Edge{
			{From: 0, To: 1, Bound: interval.New(5, 10), Name: "slow"},
			{From: 0, To: 1, Bound: interval.New(0, 3), Name: "fast"},
		},
		End: 1,
	}

	r := Check(n)
	require.False(t, r.OK())
	var tie *TemporalInconsistencyError
	require.ErrorAs(t, r.Errors[0], &tie)
	assert.Negative(t, tie.Length)
	assert.Contains(t, tie.Cycle, 0)
	assert.Contains(t, tie.Cycle, 1)
}

func TestCheckProbabilityMass(t *testing.T) {
	build := func(t *testing.T, probs []float64) *tpn.Network {
		t.Helper()
		ch, err := episode.ChooseProbabilistic(
			[]*episode.Episode{leaf("a", 1, 4), leaf("b", 2, 5), leaf("c", 1, 3)},
			probs)
		require.NoError(t, err)
		return mustBuild(t, ch)
	}

	t.Run("sums to one", func(t *testing.T) {
		r := Check(build(t, []float64{0.6, 0.2, 0.2}))
		assert.True(t, r.OK())
	})

	t.Run("excess mass", func(t *testing.T) {
		r := Check(build(t, []float64{0.6, 0.2, 0.3}))
		require.False(t, r.OK())
		var pme *ProbabilityMassError
		require.ErrorAs(t, r.Errors[0], &pme)
		assert.InDelta(t, 1.1, pme.Sum, 1e-9)
	})
}

func TestCheckIdempotent(t *testing.T) {
	seq, err := episode.Sequence(leaf("a", 1, 4), leaf("b", 2, 5))
	require.NoError(t, err)
	n := mustBuild(t, seq)

	first := Check(n)
	second := Check(n)
	assert.Equal(t, first.Errors, second.Errors)
	assert.Equal(t, first.Bound(n.Start, n.End), second.Bound(n.Start, n.End))
}

// routedVisits builds four independent two-step branches under one
// parallel composition labeled "depot", with a release window on each
// branch start relative to the shared start event.
func routedVisits(t *testing.T, windows [4]interval.Interval) *episode.Episode {
	t.Helper()
	labels := [4]string{"v1", "v2", "v3", "v4"}
	branches := make([]*episode.Episode, 0, 4)
	for _, l := range labels {
		br, err := episode.Sequence(leaf(l+".travel", 1, 3), leaf(l+".serve", 1, 2))
		require.NoError(t, err)
		branches = append(branches, br.WithLabel(l))
	}
	par, err := episode.Parallel(branches...)
	require.NoError(t, err)
	par = par.WithLabel("depot")

	constraints := make([]episode.Constraint, 0, 4)
	for i, l := range labels {
		constraints = append(constraints, episode.Constraint{
			From:  episode.Endpoint{Label: "depot"},
			To:    episode.Endpoint{Label: l},
			Bound: windows[i],
		})
	}
	cc, err := episode.Constrained(par, constraints...)
	require.NoError(t, err)
	return cc
}

func TestCheckReleaseWindows(t *testing.T) {
	t.Run("disjoint windows are schedulable", func(t *testing.T) {
		cc := routedVisits(t, [4]interval.Interval{
			interval.New(3, 5), interval.New(6, 9), interval.New(11, 13), interval.New(8, 9),
		})
		n := mustBuild(t, cc)

		r := Check(n)
		require.True(t, r.OK())

		// The latest window pushes the shared end event out past it.
		v3 := n.Labels["v3"]
		whole := r.Bound(n.Start, n.End)
		assert.GreaterOrEqual(t, whole.Hi, 13.0)
		assert.Equal(t, interval.New(11, 13), r.Bound(n.Start, v3.Start))
	})

	t.Run("window shorter than the branch", func(t *testing.T) {
		cc := routedVisits(t, [4]interval.Interval{
			interval.New(3, 5), interval.New(6, 9), interval.New(11, 13), interval.New(8, 9),
		})
		extra, err := episode.Constrained(cc, episode.Constraint{
			From:  episode.Endpoint{Label: "v1"},
			To:    episode.Endpoint{Label: "v1", AtEnd: true},
			Bound: interval.New(0, 1),
		})
		require.NoError(t, err)
		n := mustBuild(t, extra)

		r := Check(n)
		require.False(t, r.OK())
		var tie *TemporalInconsistencyError
		require.ErrorAs(t, r.Errors[0], &tie)
	})
}
