// Package table implements the minimal ordered-column row table exchanged
// between the designer evaluator, the executor and the cache store. Cells are
// JSON-representable scalars (float64, string, bool or nil), which keeps the
// cache entry codec trivial and round-trip safe.
package table

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// Table is an ordered set of named columns with uniformly shaped rows.
// The zero value is an empty table with no columns.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// New returns an empty table with the given column order.
func New(columns ...string) Table {
	return Table{Columns: columns}
}

// NumRows returns the row count.
func (t Table) NumRows() int { return len(t.Rows) }

// AppendRow appends one row. The cell count must match the column count.
func (t *Table) AppendRow(cells ...any) {
	if len(cells) != len(t.Columns) {
		panic(fmt.Sprintf("table: row has %d cells, table has %d columns", len(cells), len(t.Columns)))
	}
	t.Rows = append(t.Rows, cells)
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of the named column in row order. The boolean is
// false when the column does not exist.
func (t Table) Column(name string) ([]any, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	cells := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}
	return cells, true
}

// Concat appends all rows of other, aligning by column name. Columns missing
// from either side are unioned in first-seen order and filled with nil, so
// designers emitting differently shaped rows (e.g. vector parameters of
// differing length) still aggregate into one table.
func (t *Table) Concat(other Table) {
	if len(other.Rows) == 0 && len(other.Columns) == 0 {
		return
	}
	for _, c := range other.Columns {
		if t.ColumnIndex(c) < 0 {
			t.Columns = append(t.Columns, c)
			for i := range t.Rows {
				t.Rows[i] = append(t.Rows[i], nil)
			}
		}
	}
	mapping := make([]int, len(other.Columns))
	for i, c := range other.Columns {
		mapping[i] = t.ColumnIndex(c)
	}
	for _, row := range other.Rows {
		merged := make([]any, len(t.Columns))
		for i, cell := range row {
			merged[mapping[i]] = cell
		}
		t.Rows = append(t.Rows, merged)
	}
}

// Render writes the table as aligned text.
func (t Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, formatCell(cell))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return "-"
	case float64:
		return strconv.FormatFloat(v, 'g', 6, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
