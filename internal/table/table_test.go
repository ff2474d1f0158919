package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRow(t *testing.T) {
	tbl := New("a", "b")
	tbl.AppendRow(1.0, "x")
	tbl.AppendRow(2.0, "y")
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []any{2.0, "y"}, tbl.Rows[1])

	assert.Panics(t, func() { tbl.AppendRow(1.0) })
	assert.Panics(t, func() { tbl.AppendRow(1.0, "x", true) })
}

func TestColumn(t *testing.T) {
	tbl := New("sim", "estimate")
	tbl.AppendRow(0.0, 0.5)
	tbl.AppendRow(1.0, 0.7)

	cells, ok := tbl.Column("estimate")
	require.True(t, ok)
	assert.Equal(t, []any{0.5, 0.7}, cells)

	_, ok = tbl.Column("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))
	assert.Equal(t, 1, tbl.ColumnIndex("estimate"))
}

func TestConcat_SameColumns(t *testing.T) {
	a := New("x")
	a.AppendRow(1.0)
	b := New("x")
	b.AppendRow(2.0)

	a.Concat(b)
	assert.Equal(t, []string{"x"}, a.Columns)
	assert.Equal(t, [][]any{{1.0}, {2.0}}, a.Rows)
}

func TestConcat_ColumnUnion(t *testing.T) {
	a := New("x", "y")
	a.AppendRow(1.0, 2.0)
	b := New("y", "z")
	b.AppendRow(3.0, 4.0)

	a.Concat(b)
	assert.Equal(t, []string{"x", "y", "z"}, a.Columns)
	// Existing rows gain a nil cell for the new column; new rows get nil
	// for the column they never had.
	assert.Equal(t, [][]any{
		{1.0, 2.0, nil},
		{nil, 3.0, 4.0},
	}, a.Rows)
}

func TestConcat_IntoEmpty(t *testing.T) {
	var a Table
	b := New("x")
	b.AppendRow(1.0)

	a.Concat(b)
	assert.Equal(t, []string{"x"}, a.Columns)
	assert.Equal(t, [][]any{{1.0}}, a.Rows)

	a.Concat(Table{})
	assert.Equal(t, 1, a.NumRows())
}

func TestRender(t *testing.T) {
	tbl := New("diagnosand", "estimate", "note")
	tbl.AppendRow("power", 0.825, nil)
	tbl.AppendRow("bias", -0.01, "ok")

	var sb strings.Builder
	require.NoError(t, tbl.Render(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "diagnosand")
	assert.Contains(t, lines[0], "estimate")
	assert.Contains(t, lines[1], "power")
	assert.Contains(t, lines[1], "0.825")
	assert.Contains(t, lines[1], "-", "nil cells render as a dash")
	assert.Contains(t, lines[2], "bias")
	assert.Contains(t, lines[2], "-0.01")
}
