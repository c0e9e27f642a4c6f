package episode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tempoplan/internal/interval"
	"github.com/vk/tempoplan/internal/model"
)

func manipulationModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New(
		[]*model.Class{
			{Name: "Arm", Values: []string{"available", "not-available"}, Initials: []string{"available"}},
			{Name: "SolderState", Values: []string{"soldered", "not-soldered"}, Initials: []string{"not-soldered"}},
		},
		[]*model.Object{
			{Name: "arm1", Class: "Arm"},
			{Name: "c1", Class: "SolderState", Fields: []*model.Field{
				{Name: "joint", Class: "SolderState", Value: "not-soldered"},
			}},
		},
		[]*model.Method{
			{
				Name: "solder", Class: "Arm",
				Params:   []*model.Param{{Name: "part", Class: "SolderState"}},
				Duration: interval.New(2, 6),
				Preconditions: []*model.Condition{
					{When: model.AtStart, Path: "self", Equals: "available"},
					{When: model.AtStart, Path: "part.joint", Equals: "not-soldered"},
				},
				Effects: []*model.Effect{
					{When: model.AtStart, Path: "self", Value: "not-available"},
					{When: model.AtEnd, Path: "part.joint", Value: "soldered"},
					{When: model.AtEnd, Path: "self", Value: "available"},
				},
			},
		})
	require.NoError(t, m.Resolve())
	return m
}

func TestInstantiate(t *testing.T) {
	m := manipulationModel(t)
	mth := m.Method("Arm", "solder")

	t.Run("substitutes paths and derives the guard", func(t *testing.T) {
		ep, err := Instantiate(m, mth, "arm1", map[string]string{"part": "c1"})
		require.NoError(t, err)

		assert.Equal(t, KindLeaf, ep.Kind)
		assert.Equal(t, "arm1.solder", ep.Name)
		assert.Equal(t, interval.New(2, 6), ep.Duration)
		assert.Equal(t, And(Eq("arm1", "available"), Eq("c1.joint", "not-soldered")), ep.Guard)
		assert.Equal(t, []Effect{{Path: "arm1", Value: "not-available", When: model.AtStart}}, ep.StartEffects)
		assert.Equal(t, []Effect{
			{Path: "c1.joint", Value: "soldered", When: model.AtEnd},
			{Path: "arm1", Value: "available", When: model.AtEnd},
		}, ep.EndEffects)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := Instantiate(m, mth, "arm9", nil)
		var ure *model.UnresolvedReferenceError
		assert.ErrorAs(t, err, &ure)
	})

	t.Run("owner class mismatch", func(t *testing.T) {
		_, err := Instantiate(m, mth, "c1", map[string]string{"part": "c1"})
		assert.ErrorContains(t, err, "class")
	})

	t.Run("missing parameter binding", func(t *testing.T) {
		_, err := Instantiate(m, mth, "arm1", nil)
		assert.ErrorContains(t, err, "not bound")
	})

	t.Run("parameter class mismatch", func(t *testing.T) {
		_, err := Instantiate(m, mth, "arm1", map[string]string{"part": "arm1"})
		assert.ErrorContains(t, err, "class")
	})

	t.Run("precondition value outside declared class", func(t *testing.T) {
		bad := &model.Method{
			Name: "jam", Class: "Arm", Duration: interval.New(0, 1),
			Params: []*model.Param{{Name: "part", Class: "SolderState"}},
			Preconditions: []*model.Condition{
				{When: model.AtStart, Path: "part.joint", Equals: "molten"},
			},
		}
		_, err := Instantiate(m, bad, "arm1", map[string]string{"part": "c1"})
		var pte *PreconditionTypeError
		require.ErrorAs(t, err, &pte)
		assert.Equal(t, "c1.joint", pte.Path)
		assert.Equal(t, "SolderState", pte.Class)
	})
}

func TestAssert(t *testing.T) {
	g := Eq("c1.joint", "soldered")
	ep := Assert(g)

	assert.Equal(t, KindLeaf, ep.Kind)
	assert.Equal(t, interval.Exactly(0), ep.Duration)
	assert.Equal(t, g, ep.Guard)
	assert.Empty(t, ep.StartEffects)
	assert.Empty(t, ep.EndEffects)
	assert.Empty(t, ep.Children)
}
