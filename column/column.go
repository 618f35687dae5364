// Package column analyzes a single dimension of a lookup table: a 1-D
// array of scalars is scanned once into a concatenation of monotonic
// (non-decreasing or non-increasing) runs, delimited by its "inflections", so that
// later queries can locate a value's position (or bracketing neighbors)
// run by run instead of rescanning the whole array.
package column

import (
	"math"

	"github.com/shiplookup/hydrocache/approxord"
	"github.com/shiplookup/hydrocache/bound"
)

// Column is an analyzed 1-D sample array. It is immutable after New: the
// inflection scan runs once at construction and data is never mutated
// thereafter, so a *Column may be shared across goroutines freely.
type Column struct {
	data        []float64
	inflections []int
	cmp         approxord.Comparator
}

// Opt configures New.
type Opt func(*options)

type options struct {
	cmp approxord.Comparator
}

// WithComparator overrides the comparator used both during analysis and
// during queries. The default is approxord.Exact{}.
func WithComparator(cmp approxord.Comparator) Opt {
	return func(o *options) { o.cmp = cmp }
}

func makeOptions(opts ...Opt) options {
	o := options{cmp: approxord.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New analyzes data into a Column. data is retained by reference, not
// copied; callers must not mutate it afterward.
func New(data []float64, opts ...Opt) (*Column, error) {
	o := makeOptions(opts...)
	infl, err := analyze(data, o.cmp)
	if err != nil {
		return nil, err
	}
	return &Column{data: data, inflections: infl, cmp: o.cmp}, nil
}

// Len returns the number of rows (samples) in the column.
func (c *Column) Len() int { return len(c.data) }

// At returns the value stored at row r.
func (c *Column) At(r int) float64 { return c.data[r] }

// Inflections returns the column's inflection indices. The returned slice
// must not be mutated by the caller.
func (c *Column) Inflections() []int { return c.inflections }

// relation codes, matching approxord.Comparator's Compare convention.
const (
	less    = -1
	equal   = 0
	greater = 1
)

// analyze computes the inflection list per the sliding-window-of-3 scan:
// for each interior position m, the left relation (data[m-1] vs data[m])
// and right relation (data[m] vs data[m+1]) determine whether m is a
// local extremum, a plateau shoulder that reverses direction, or neither.
func analyze(data []float64, cmp approxord.Comparator) ([]int, error) {
	l := len(data)
	if l == 0 {
		return nil, nil
	}
	if l == 1 {
		return []int{0}, nil
	}

	var flex []int
	haveDir := false
	var prevDir int

	for m := 1; m <= l-2; m++ {
		left, err := cmp.Compare(data[m-1], data[m])
		if err != nil {
			pos := m - 1
			if !math.IsNaN(data[m-1]) {
				pos = m
			}
			return nil, withPosition(err, pos)
		}
		right, err := cmp.Compare(data[m], data[m+1])
		if err != nil {
			return nil, withPosition(err, m+1)
		}

		switch {
		case (left == greater && right == less) || (left == less && right == greater):
			// Local extremum.
			flex = append(flex, m)
			haveDir, prevDir = true, right
		case left == equal && right != equal:
			cur := right
			if !haveDir {
				haveDir, prevDir = true, cur
			} else if cur != prevDir {
				flex = append(flex, m)
				prevDir = cur
			}
		case right == equal && left != equal:
			cur := left
			if !haveDir {
				haveDir, prevDir = true, cur
			} else if cur != prevDir {
				flex = append(flex, m)
				prevDir = cur
			}
		default:
			// Both equal, or both non-equal in the same direction: no-op.
		}
	}

	ids := make([]int, 0, len(flex)+2)
	ids = append(ids, 0)
	ids = append(ids, flex...)
	ids = append(ids, l-1)
	return dedupConsecutiveInts(ids), nil
}

func dedupConsecutiveInts(ids []int) []int {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

func withPosition(err error, pos int) error {
	if nc, ok := err.(*approxord.NonComparableError); ok {
		nc.Position = pos
	}
	return err
}

// GetBounds locates every position or adjacent-index pair where v could
// sit inside the column's samples, scanning the monotonic runs between
// consecutive inflections left to right.
func (c *Column) GetBounds(v float64) ([]bound.Bound, error) {
	n := len(c.inflections)
	if n == 0 {
		return nil, nil
	}
	if n == 1 {
		// L == 1: a single-sample column has no run pair to walk.
		eq, err := c.cmp.Compare(c.data[0], v)
		if err != nil {
			return nil, err
		}
		if eq == equal {
			return []bound.Bound{bound.NewSingle(0)}, nil
		}
		return nil, nil
	}

	var out []bound.Bound
	for i := 0; i+1 < n; i++ {
		p, q := c.inflections[i], c.inflections[i+1]
		accept, err := runAccepts(c.data[p], c.data[q], v, c.cmp)
		if err != nil {
			return nil, err
		}
		if !accept {
			continue
		}
		bs, err := boundsInMonotonic(c.data[p:q+1], v, p, c.cmp)
		if err != nil {
			return nil, err
		}
		out = append(out, bs...)
	}
	return bound.DedupConsecutive(out), nil
}

// runAccepts reports whether v lies within [lo, hi] inclusive, direction
// agnostic: both (lo cmp v) and (v cmp hi) must lie on the same side,
// either both "<=" or both ">=".
func runAccepts(lo, hi, v float64, cmp approxord.Comparator) (bool, error) {
	loVsV, err := cmp.Compare(lo, v)
	if err != nil {
		return false, err
	}
	vVsHi, err := cmp.Compare(v, hi)
	if err != nil {
		return false, err
	}
	lowSide := (loVsV == less || loVsV == equal) && (vVsHi == less || vVsHi == equal)
	highSide := (loVsV == greater || loVsV == equal) && (vVsHi == greater || vVsHi == equal)
	return lowSide || highSide, nil
}

// boundsInMonotonic assumes s is monotonic (non-decreasing or
// non-increasing). offset is the row index of s[0] in the owning column.
func boundsInMonotonic(s []float64, v float64, offset int, cmp approxord.Comparator) ([]bound.Bound, error) {
	dir, err := cmp.Compare(s[0], s[len(s)-1])
	if err != nil {
		return nil, err
	}
	if dir == equal {
		// A monotonic run whose endpoints compare equal is, by the
		// monotonic invariant, flat throughout; runAccepts only lets
		// this run through when v equals that constant, so the whole
		// span matches.
		if len(s) == 1 {
			return []bound.Bound{bound.NewSingle(offset)}, nil
		}
		return []bound.Bound{bound.NewRange(offset, offset+len(s)-1)}, nil
	}

	k := 0
	for k < len(s) {
		c, err := cmp.Compare(s[k], v)
		if err != nil {
			return nil, err
		}
		if c != dir {
			break
		}
		k++
	}

	if k == len(s) {
		return []bound.Bound{bound.NewSingle(offset + len(s) - 1)}, nil
	}

	eq, err := cmp.Compare(s[k], v)
	if err != nil {
		return nil, err
	}
	if eq != equal {
		if k == 0 {
			return []bound.Bound{bound.NewSingle(offset)}, nil
		}
		return []bound.Bound{bound.NewRange(offset+k-1, offset+k)}, nil
	}

	// Exact match at s[k] (k may be 0): extend rightward over equal values.
	out := []bound.Bound{bound.NewSingle(offset + k)}
	for i := 1; k+i < len(s); i++ {
		c, err := cmp.Compare(s[k+i], v)
		if err != nil {
			return nil, err
		}
		if c != equal {
			break
		}
		out = append(out, bound.NewSingle(offset+k+i))
	}
	return out, nil
}
