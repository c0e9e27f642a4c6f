package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tempoplan/internal/interval"
)

func uavClasses() []*Class {
	return []*Class{
		{Name: "UAV", Values: []string{"on", "off"}, Initials: []string{"off"}},
		{Name: "Location", Values: []string{"hangar", "pad", "field"}, Initials: []string{"hangar"}},
	}
}

func TestResolve(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		m := New(uavClasses(),
			[]*Object{
				{Name: "helo", Class: "UAV", Fields: []*Field{
					{Name: "base", Class: "Location", Value: "hangar"},
					{Name: "buddy", Ref: "uav"},
					{Name: "cargo", None: true},
				}},
				{Name: "uav", Class: "UAV"},
			},
			[]*Method{
				(&Method{Name: "fly", Class: "UAV", Duration: interval.New(3, 10)}).Transition("off", "on"),
			})
		require.NoError(t, m.Resolve())

		assert.Equal(t, "off", m.Class("UAV").Initial)
		assert.NotNil(t, m.Object("helo").Field("base"))
		assert.NotNil(t, m.Method("UAV", "fly"))
	})

	t.Run("no initial value", func(t *testing.T) {
		m := New([]*Class{{Name: "UAV", Values: []string{"on", "off"}}}, nil, nil)
		err := m.Resolve()
		var mive *MultipleInitialValuesError
		require.ErrorAs(t, err, &mive)
		assert.Equal(t, 0, mive.Count)
	})

	t.Run("two initial values", func(t *testing.T) {
		m := New([]*Class{{Name: "UAV", Values: []string{"on", "off"}, Initials: []string{"on", "off"}}}, nil, nil)
		err := m.Resolve()
		var mive *MultipleInitialValuesError
		require.ErrorAs(t, err, &mive)
		assert.Equal(t, 2, mive.Count)
	})

	t.Run("initial outside value set", func(t *testing.T) {
		m := New([]*Class{{Name: "UAV", Values: []string{"on", "off"}, Initials: []string{"idle"}}}, nil, nil)
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "value", ure.Kind)
	})

	t.Run("object with unknown class", func(t *testing.T) {
		m := New(uavClasses(), []*Object{{Name: "x", Class: "Rover"}}, nil)
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "class", ure.Kind)
		assert.Equal(t, "Rover", ure.Name)
	})

	t.Run("field referencing unknown object", func(t *testing.T) {
		m := New(uavClasses(), []*Object{
			{Name: "helo", Class: "UAV", Fields: []*Field{{Name: "buddy", Ref: "ghost"}}},
		}, nil)
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "object", ure.Kind)
	})

	t.Run("scalar field value outside class", func(t *testing.T) {
		m := New(uavClasses(), []*Object{
			{Name: "helo", Class: "UAV", Fields: []*Field{{Name: "base", Class: "Location", Value: "moon"}}},
		}, nil)
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "value", ure.Kind)
	})

	t.Run("method path naming unknown parameter", func(t *testing.T) {
		m := New(uavClasses(), nil, []*Method{{
			Name: "land", Class: "UAV", Duration: interval.New(0, 1),
			Preconditions: []*Condition{{When: AtStart, Path: "pad.state", Equals: "clear"}},
		}})
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "parameter", ure.Kind)
	})

	t.Run("owner state value outside class", func(t *testing.T) {
		m := New(uavClasses(), nil, []*Method{
			(&Method{Name: "fly", Class: "UAV", Duration: interval.New(3, 10)}).Transition("sleeping", "on"),
		})
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, m.Resolve(), &ure)
		assert.Equal(t, "value", ure.Kind)
		assert.Equal(t, "sleeping", ure.Name)
	})

	t.Run("invalid duration bound", func(t *testing.T) {
		m := New(uavClasses(), nil, []*Method{{Name: "fly", Class: "UAV", Duration: interval.New(10, 3)}})
		assert.ErrorContains(t, m.Resolve(), "invalid duration bound")
	})
}

func TestClassOfPath(t *testing.T) {
	m := New(uavClasses(),
		[]*Object{
			{Name: "helo", Class: "UAV", Fields: []*Field{
				{Name: "base", Class: "Location", Value: "hangar"},
				{Name: "buddy", Ref: "uav"},
				{Name: "cargo", None: true},
			}},
			{Name: "uav", Class: "UAV", Fields: []*Field{
				{Name: "base", Class: "Location", Value: "pad"},
			}},
		}, nil)
	require.NoError(t, m.Resolve())

	t.Run("bare object is its implicit state", func(t *testing.T) {
		cls, err := m.ClassOfPath("helo")
		require.NoError(t, err)
		assert.Equal(t, "UAV", cls)
	})

	t.Run("scalar field", func(t *testing.T) {
		cls, err := m.ClassOfPath("helo.base")
		require.NoError(t, err)
		assert.Equal(t, "Location", cls)
	})

	t.Run("through a reference field", func(t *testing.T) {
		cls, err := m.ClassOfPath("helo.buddy.base")
		require.NoError(t, err)
		assert.Equal(t, "Location", cls)
	})

	t.Run("terminal reference has no class", func(t *testing.T) {
		cls, err := m.ClassOfPath("helo.buddy")
		require.NoError(t, err)
		assert.Empty(t, cls)
	})

	t.Run("unknown object", func(t *testing.T) {
		_, err := m.ClassOfPath("ghost.base")
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, err, &ure)
		assert.Equal(t, "object", ure.Kind)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := m.ClassOfPath("helo.rotor")
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, err, &ure)
		assert.Equal(t, "field", ure.Kind)
	})

	t.Run("descending through a scalar", func(t *testing.T) {
		_, err := m.ClassOfPath("helo.base.deeper")
		var ure *UnresolvedReferenceError
		require.ErrorAs(t, err, &ure)
	})
}
