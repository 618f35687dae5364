// Package table combines analyzed columns into queryable rows: per-column
// bound lists are intersected across every constrained column, and the
// surviving bounds are materialized into exact or column-wise-averaged
// rows.
package table

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/shiplookup/hydrocache/bound"
	"github.com/shiplookup/hydrocache/column"
)

// Table is an ordered sequence of columns sharing one row count. Row
// ordering is positional and carries domain meaning (e.g. heel, trim,
// draught, volume); Table never reorders it.
type Table struct {
	columns []*column.Column
	rows    int
}

// New builds a Table from columns, which must all share the same row
// count (spec invariant in SPEC_FULL.md §3/§4.3).
func New(columns []*column.Column) (*Table, error) {
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
		for i, c := range columns[1:] {
			if c.Len() != rows {
				return nil, &MismatchedRowCountError{ColumnIndex: i + 1, Got: c.Len(), Want: rows}
			}
		}
	}
	return &Table{columns: columns, rows: rows}, nil
}

// MismatchedRowCountError reports a column whose length disagrees with
// the table's established row count.
type MismatchedRowCountError struct {
	ColumnIndex int
	Got, Want   int
}

func (e *MismatchedRowCountError) Error() string {
	return fmt.Sprintf("table: column %d has %d rows, want %d", e.ColumnIndex, e.Got, e.Want)
}

// NumColumns returns the column count K.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the shared row count L.
func (t *Table) NumRows() int { return t.rows }

// Get answers a query: query[i], when non-nil, constrains column i. A
// query longer than the table's column count is out of bounds and
// reported via ok=false rather than an error (spec.md §4.3.4). The
// returned rows slice is empty, not nil, when present and no row
// matches.
func (t *Table) Get(query []*float64) (rows [][]float64, ok bool, err error) {
	if len(query) > len(t.columns) {
		return nil, false, nil
	}

	var perColumn [][]bound.Bound
	anyConstrained := false
	for i, v := range query {
		if v == nil {
			continue
		}
		anyConstrained = true
		bs, err := t.columns[i].GetBounds(*v)
		if err != nil {
			return nil, true, err
		}
		perColumn = append(perColumn, bs)
	}

	var acc []bound.Bound
	switch {
	case !anyConstrained:
		acc = identityBounds(t.rows)
	default:
		acc = perColumn[0]
		for _, next := range perColumn[1:] {
			acc = intersectLists(acc, next)
		}
	}
	acc = bound.DedupConsecutive(acc)
	log.Debug.Printf("table.Get | merged bounds: %v", acc)

	return t.materialize(acc), true, nil
}

// identityBounds returns the bound list representing "every row", used
// when no column is constrained.
func identityBounds(rows int) []bound.Bound {
	switch {
	case rows == 0:
		return nil
	case rows == 1:
		return []bound.Bound{bound.NewSingle(0)}
	default:
		return []bound.Bound{bound.NewRange(0, rows-1)}
	}
}

// intersectLists forms the Cartesian product of two bound lists under
// bound.Intersect, dropping None results.
func intersectLists(a, b []bound.Bound) []bound.Bound {
	out := make([]bound.Bound, 0, len(a))
	for _, x := range a {
		for _, y := range b {
			if r := bound.Intersect(x, y); !r.IsNone() {
				out = append(out, r)
			}
		}
	}
	return out
}

func (t *Table) materialize(bounds []bound.Bound) [][]float64 {
	rows := make([][]float64, 0, len(bounds))
	for _, b := range bounds {
		switch b.Kind {
		case bound.Single:
			row := make([]float64, len(t.columns))
			for j, c := range t.columns {
				row[j] = c.At(b.Lo)
			}
			rows = append(rows, row)
		case bound.Range:
			row := make([]float64, len(t.columns))
			n := float64(b.Hi - b.Lo + 1)
			for j, c := range t.columns {
				sum := 0.0
				for r := b.Lo; r <= b.Hi; r++ {
					sum += c.At(r)
				}
				row[j] = sum / n
			}
			rows = append(rows, row)
		}
	}
	return rows
}
