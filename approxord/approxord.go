// Package approxord provides precision-aware ordering of the floating
// point scalars stored in a column. Most callers want Exact, the default;
// Precision exists for revisions of the cache that treat two scalars as
// equal once they agree to a fixed number of fractional decimal digits.
package approxord

import (
	"cmp"
	"fmt"
	"math"
)

// NonComparableError reports that a scalar could not be placed in a total
// order, e.g. because it is NaN. Position carries the column-local index
// of the offending value when known, or -1 when the failing value came
// from a query rather than a stored column.
type NonComparableError struct {
	Position int
	Value    float64
}

func (e *NonComparableError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("approxord: value %v is not comparable", e.Value)
	}
	return fmt.Sprintf("approxord: value %v at position %d is not comparable", e.Value, e.Position)
}

// Comparator orders two float64 scalars, failing on non-comparable input
// (NaN). The returned int follows the usual convention: negative if a < b,
// zero if a == b, positive if a > b.
type Comparator interface {
	Compare(a, b float64) (int, error)
}

// Exact compares scalars with their natural total order.
type Exact struct{}

// Compare implements Comparator.
func (Exact) Compare(a, b float64) (int, error) {
	if math.IsNaN(a) {
		return 0, &NonComparableError{Position: -1, Value: a}
	}
	if math.IsNaN(b) {
		return 0, &NonComparableError{Position: -1, Value: b}
	}
	return cmp.Compare(a, b), nil
}

// Precision compares scalars after truncating them to Digits fractional
// decimal digits, so that e.g. 1.0049 and 1.0051 compare equal at
// Digits=2. Grounded on the repository's ApproxOrd::approx_cmp.
type Precision struct {
	Digits uint
}

// Compare implements Comparator.
func (p Precision) Compare(a, b float64) (int, error) {
	if math.IsNaN(a) {
		return 0, &NonComparableError{Position: -1, Value: a}
	}
	if math.IsNaN(b) {
		return 0, &NonComparableError{Position: -1, Value: b}
	}
	scale := math.Pow(10, float64(p.Digits))
	ta := math.Trunc(a * scale)
	tb := math.Trunc(b * scale)
	return cmp.Compare(ta, tb), nil
}

// Default is the package-wide zero-value comparator used whenever a
// caller does not supply one explicitly.
var Default Comparator = Exact{}
