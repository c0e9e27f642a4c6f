package interval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	t.Run("finite bounds add pairwise", func(t *testing.T) {
		got := New(1, 4).Sum(New(2, 5))
		assert.Equal(t, New(3, 9), got)
	})

	t.Run("infinite upper bound is absorbing", func(t *testing.T) {
		got := AtLeast(5).Sum(AtLeast(5))
		assert.Equal(t, 10.0, got.Lo)
		assert.True(t, got.Unbounded())
	})
}

func TestCover(t *testing.T) {
	t.Run("takes max of both limits", func(t *testing.T) {
		got := New(1, 4).Cover(New(2, 3))
		assert.Equal(t, New(2, 4), got)
	})

	t.Run("infinite upper bound wins", func(t *testing.T) {
		got := AtLeast(5).Cover(AtLeast(5))
		assert.Equal(t, 5.0, got.Lo)
		assert.True(t, got.Unbounded())
	})
}

func TestSpan(t *testing.T) {
	got := New(3, 6).Span(New(1, 9))
	assert.Equal(t, New(1, 9), got)

	got = New(3, 6).Span(New(4, 5))
	assert.Equal(t, New(3, 6), got)
}

func TestIntersect(t *testing.T) {
	t.Run("overlapping", func(t *testing.T) {
		got := New(0, 18).Intersect(New(4, 30))
		assert.Equal(t, New(4, 18), got)
		assert.False(t, got.Empty())
	})

	t.Run("disjoint is empty", func(t *testing.T) {
		got := New(0, 3).Intersect(New(5, 9))
		assert.True(t, got.Empty())
	})

	t.Run("infinite narrows to finite", func(t *testing.T) {
		got := Free().Intersect(New(2, 7))
		assert.Equal(t, New(2, 7), got)
	})
}

func TestValid(t *testing.T) {
	assert.True(t, New(0, 0).Valid())
	assert.True(t, AtLeast(3).Valid())
	assert.False(t, New(-1, 5).Valid())
	assert.False(t, New(6, 5).Valid())
}

func TestContains(t *testing.T) {
	iv := New(3, 5)
	assert.True(t, iv.Contains(3))
	assert.True(t, iv.Contains(5))
	assert.False(t, iv.Contains(5.001))
	assert.True(t, AtLeast(0).Contains(math.MaxFloat64))
}

func TestString(t *testing.T) {
	assert.Equal(t, "[3, 10]", New(3, 10).String())
	assert.Equal(t, "[5, inf]", AtLeast(5).String())
}
