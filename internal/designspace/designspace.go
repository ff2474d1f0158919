// Package designspace expands parsed parameter sequences into the cartesian
// product of concrete design points. Iteration order is deterministic: the
// insertion order of parameters runs outer-to-inner with the last parameter
// varying fastest, so the resulting row order is stable across runs.
package designspace

import (
	"strconv"
	"strings"

	"github.com/vk/designgridgo/internal/model"
	"github.com/vk/designgridgo/internal/params"
	"github.com/zclconf/go-cty/cty"
)

// Assignment binds one parameter name to one concrete value.
type Assignment struct {
	Name  string
	Value cty.Value
}

// Point is one concrete assignment of every parameter to exactly one value
// drawn from its sequence. Index is the point's stable position in expansion
// order; result aggregation keys on it.
type Point struct {
	Index       int
	Assignments []Assignment
}

// Value returns the assigned value for a parameter name.
func (p Point) Value(name string) (cty.Value, bool) {
	for _, a := range p.Assignments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return cty.NilVal, false
}

// String renders the point as "name=value, ..." for logs and error messages.
func (p Point) String() string {
	var b strings.Builder
	for i, a := range p.Assignments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteByte('=')
		b.WriteString(FormatValue(a.Value))
	}
	return b.String()
}

// Expand computes the cartesian product over the given sequences, in their
// given order. Sequences of length one are held constant across all points.
// If the product size exceeds ceiling, an ExpansionError is returned and
// nothing is expanded.
func Expand(seqs []*params.Sequence, ceiling int) ([]Point, error) {
	size := 1
	for _, s := range seqs {
		size *= s.Len()
	}
	if ceiling > 0 && size > ceiling {
		return nil, &model.ExpansionError{Size: size, Ceiling: ceiling}
	}

	values := make([][]cty.Value, len(seqs))
	for i, s := range seqs {
		values[i] = s.Values()
	}

	points := make([]Point, 0, size)
	indices := make([]int, len(seqs))
	for idx := 0; idx < size; idx++ {
		assignments := make([]Assignment, len(seqs))
		for i, s := range seqs {
			assignments[i] = Assignment{Name: s.Name(), Value: values[i][indices[i]]}
		}
		points = append(points, Point{Index: idx, Assignments: assignments})

		// Mixed-radix increment, last parameter fastest.
		for i := len(indices) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(values[i]) {
				break
			}
			indices[i] = 0
		}
	}
	return points, nil
}

// FormatValue renders a cty value compactly for display. Numbers print in
// their shortest round-tripping decimal form; tuples print parenthesized.
func FormatValue(v cty.Value) string {
	switch {
	case v.Type().IsTupleType():
		elems := v.AsValueSlice()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = FormatValue(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int(nil)
			return i.String()
		}
		f, _ := bf.Float64()
		// 'g' with precision -1 keeps the shortest form that round-trips.
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.Type() == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type() == cty.String:
		return v.AsString()
	default:
		return v.GoString()
	}
}
