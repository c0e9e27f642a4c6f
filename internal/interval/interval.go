// Package interval implements the bound arithmetic shared by episodes,
// temporal constraints, and network edges. Upper bounds may be infinite.
package interval

import (
	"fmt"
	"math"
)

// Inf is the unbounded upper limit.
var Inf = math.Inf(1)

// Interval is a closed bound [Lo, Hi] on the distance between two time
// points. Hi may be Inf.
type Interval struct {
	Lo float64
	Hi float64
}

// New returns the interval [lo, hi].
func New(lo, hi float64) Interval {
	return Interval{Lo: lo, Hi: hi}
}

// AtLeast returns the interval [lo, inf].
func AtLeast(lo float64) Interval {
	return Interval{Lo: lo, Hi: Inf}
}

// Exactly returns the degenerate interval [v, v].
func Exactly(v float64) Interval {
	return Interval{Lo: v, Hi: v}
}

// Free is the unconstrained duration [0, inf].
func Free() Interval {
	return Interval{Lo: 0, Hi: Inf}
}

// Valid reports whether the interval is a well-formed duration bound:
// 0 <= Lo <= Hi.
func (iv Interval) Valid() bool {
	return iv.Lo >= 0 && iv.Lo <= iv.Hi
}

// Empty reports whether the interval contains no value.
func (iv Interval) Empty() bool {
	return iv.Lo > iv.Hi
}

// Unbounded reports whether the upper limit is infinite.
func (iv Interval) Unbounded() bool {
	return math.IsInf(iv.Hi, 1)
}

// Contains reports whether v lies within the interval.
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Lo && v <= iv.Hi
}

// Sum returns the interval of the sum of two durations. An infinite upper
// bound is absorbing. This is the Sequence composition rule.
func (iv Interval) Sum(other Interval) Interval {
	return Interval{Lo: iv.Lo + other.Lo, Hi: iv.Hi + other.Hi}
}

// Cover returns [max lo, max hi], the duration of two intervals elapsing
// side by side. This is the Parallel composition rule.
func (iv Interval) Cover(other Interval) Interval {
	return Interval{Lo: math.Max(iv.Lo, other.Lo), Hi: math.Max(iv.Hi, other.Hi)}
}

// Span returns [min lo, max hi], the duration when exactly one of two
// intervals is realized. This is the Choice composition rule.
func (iv Interval) Span(other Interval) Interval {
	return Interval{Lo: math.Min(iv.Lo, other.Lo), Hi: math.Max(iv.Hi, other.Hi)}
}

// Intersect returns the common sub-interval. The result may be empty,
// which callers must treat as an infeasible bound.
func (iv Interval) Intersect(other Interval) Interval {
	return Interval{Lo: math.Max(iv.Lo, other.Lo), Hi: math.Min(iv.Hi, other.Hi)}
}

// String renders the interval as "[lo, hi]", with an infinite upper bound
// rendered as "inf".
func (iv Interval) String() string {
	if iv.Unbounded() {
		return fmt.Sprintf("[%g, inf]", iv.Lo)
	}
	return fmt.Sprintf("[%g, %g]", iv.Lo, iv.Hi)
}
