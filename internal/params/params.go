// Package params converts one textual parameter entry into a concrete ordered
// sequence of typed values. Recognized grammars:
//
//   - comma-separated scalar list:  10, 20, 50
//   - step sequence:                10, 20, ..., 100   (start, start+step, bound)
//   - vector literal:               (1, 2, 3)
//   - vector sequence:              (1, 2), (1, 2, 3)  (lengths may differ)
//
// A vector body may itself be a step sequence. Whitespace is insignificant.
// Numbers are parsed exactly (decimal, not float64), so step reachability is
// checked without rounding and integral values hash identically across runs.
package params

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/vk/designgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Hint narrows the accepted shape of a parameter entry. The parser itself is
// shape-agnostic; designers that declare a vector parameter pass HintVector so
// a scalar entry fails early with a ParseError instead of at instantiation.
type Hint int

const (
	HintAuto Hint = iota
	HintScalar
	HintVector
)

const ellipsis = "..."

// maxStepValues bounds how many values one step sequence may expand to, so a
// typo like "1, 2, ..., 2000000000" fails with a ParseError at parse time
// instead of allocating billions of values.
const maxStepValues = 100000

// item pairs a parsed value with its canonical textual form. The canonical
// form re-parses to an equal value, which is what makes Canonical idempotent.
type item struct {
	val   cty.Value
	canon string
}

// Sequence is the parse result for one parameter: an ordered sequence of
// scalar values, or of vectors (cty tuples).
type Sequence struct {
	name   string
	raw    string
	items  []item
	vector bool
}

// Parse parses one parameter entry. All failures are *model.ParseError
// carrying the parameter name and the offending input.
func Parse(name, raw string, hint Hint) (*Sequence, error) {
	fail := func(reason string) (*Sequence, error) {
		return nil, &model.ParseError{Param: name, Input: raw, Reason: reason}
	}

	parts, err := splitTop(raw)
	if err != nil {
		return fail(err.Error())
	}
	if len(parts) == 0 {
		return fail("a parameter requires at least one value")
	}

	vector := strings.HasPrefix(parts[0], "(")
	switch hint {
	case HintScalar:
		if vector {
			return fail("expected scalar values, got a vector literal")
		}
	case HintVector:
		if !vector {
			return fail("expected vector literals such as (1, 2, 3)")
		}
	}

	seq := &Sequence{name: name, raw: raw, vector: vector}
	if !vector {
		items, err := parseScalarSeq(parts)
		if err != nil {
			return fail(err.Error())
		}
		seq.items = items
		return seq, nil
	}

	for _, part := range parts {
		if !strings.HasPrefix(part, "(") || !strings.HasSuffix(part, ")") {
			return fail(fmt.Sprintf("cannot mix vectors and scalars in one sequence (offending entry %q)", part))
		}
		body, err := splitTop(part[1 : len(part)-1])
		if err != nil {
			return fail(err.Error())
		}
		if len(body) == 0 {
			return fail("empty vector literal")
		}
		elems, err := parseScalarSeq(body)
		if err != nil {
			return fail(err.Error())
		}
		seq.items = append(seq.items, vectorItem(elems))
	}
	return seq, nil
}

// Name returns the parameter name this sequence was parsed for.
func (s *Sequence) Name() string { return s.name }

// Len returns the number of values in the sequence.
func (s *Sequence) Len() int { return len(s.items) }

// IsVector reports whether the sequence consists of vectors rather than scalars.
func (s *Sequence) IsVector() bool { return s.vector }

// Values returns the ordered parsed values. Vector entries are cty tuples.
func (s *Sequence) Values() []cty.Value {
	vals := make([]cty.Value, len(s.items))
	for i, it := range s.items {
		vals[i] = it.val
	}
	return vals
}

// Canonical returns a normalized textual form that parses back to an equal
// sequence. Step sequences are expanded; quoting and spacing are normalized.
func (s *Sequence) Canonical() string {
	parts := make([]string, len(s.items))
	for i, it := range s.items {
		parts[i] = it.canon
	}
	return strings.Join(parts, ", ")
}

func vectorItem(elems []item) item {
	vals := make([]cty.Value, len(elems))
	canons := make([]string, len(elems))
	for i, e := range elems {
		vals[i] = e.val
		canons[i] = e.canon
	}
	return item{
		val:   cty.TupleVal(vals),
		canon: "(" + strings.Join(canons, ", ") + ")",
	}
}

// parseScalarSeq parses an ordered list of scalar tokens, expanding at most
// one step-sequence ellipsis of the form "a, b, ..., z".
func parseScalarSeq(parts []string) ([]item, error) {
	ellipsisAt := -1
	for i, p := range parts {
		if p != ellipsis {
			continue
		}
		if ellipsisAt >= 0 {
			return nil, fmt.Errorf("at most one %q is allowed per sequence", ellipsis)
		}
		ellipsisAt = i
	}

	if ellipsisAt < 0 {
		items := make([]item, len(parts))
		for i, p := range parts {
			it, err := parseScalar(p)
			if err != nil {
				return nil, err
			}
			items[i] = it
		}
		return items, nil
	}

	// Step sequence: the ellipsis sits between "a, b" and the inclusive bound.
	if ellipsisAt != len(parts)-2 {
		return nil, fmt.Errorf("%q must be followed by exactly one bound value", ellipsis)
	}
	if ellipsisAt < 2 {
		return nil, fmt.Errorf("a step sequence needs two leading values to define the step, as in \"1, 2, %s, 10\"", ellipsis)
	}
	head := parts[:ellipsisAt]
	bound := parts[len(parts)-1]
	return expandStepSeq(head, bound)
}

// expandStepSeq expands "a, b, ..., z" with exact rational arithmetic. The
// step is b-a; z must be reachable in an integral number of steps.
func expandStepSeq(head []string, bound string) ([]item, error) {
	rats := make([]*big.Rat, 0, len(head)+1)
	for _, tok := range append(append([]string{}, head...), bound) {
		r, ok := new(big.Rat).SetString(tok)
		if !ok {
			return nil, fmt.Errorf("step sequences require numeric values, got %q", tok)
		}
		rats = append(rats, r)
	}

	start, bnd := rats[0], rats[len(rats)-1]
	step := new(big.Rat).Sub(rats[1], start)
	if step.Sign() == 0 {
		return nil, fmt.Errorf("step sequence has zero step (%s repeated)", head[0])
	}
	// Leading values beyond the first two must already lie on the grid.
	for i := 2; i < len(head); i++ {
		want := new(big.Rat).Add(rats[i-1], step)
		if rats[i].Cmp(want) != 0 {
			return nil, fmt.Errorf("value %q breaks the arithmetic step of %s", head[i], ratCanon(step))
		}
	}

	span := new(big.Rat).Sub(bnd, start)
	count := new(big.Rat).Quo(span, step)
	if !count.IsInt() || count.Sign() < 0 {
		return nil, fmt.Errorf("bound %s is not reachable from %s with step %s",
			ratCanon(bnd), ratCanon(start), ratCanon(step))
	}
	if !count.Num().IsInt64() || count.Num().Int64() >= maxStepValues {
		return nil, fmt.Errorf("step sequence from %s to %s with step %s expands to more than %d values",
			ratCanon(start), ratCanon(bnd), ratCanon(step), maxStepValues)
	}
	n := count.Num().Int64()

	items := make([]item, 0, n+1)
	cur := new(big.Rat).Set(start)
	for i := int64(0); i <= n; i++ {
		items = append(items, item{val: ratValue(cur), canon: ratCanon(cur)})
		cur = new(big.Rat).Add(cur, step)
	}
	return items, nil
}

// parseScalar classifies one token as number, bool or string.
func parseScalar(tok string) (item, error) {
	if tok == ellipsis {
		return item{}, fmt.Errorf("%q is only valid inside a step sequence", ellipsis)
	}
	if len(tok) >= 2 {
		if (tok[0] == '"' && tok[len(tok)-1] == '"') || (tok[0] == '\'' && tok[len(tok)-1] == '\'') {
			inner := tok[1 : len(tok)-1]
			return item{val: cty.StringVal(inner), canon: `"` + inner + `"`}, nil
		}
	}
	if tok == "true" || tok == "false" {
		return item{val: cty.BoolVal(tok == "true"), canon: tok}, nil
	}
	if r, ok := new(big.Rat).SetString(tok); ok {
		return item{val: ratValue(r), canon: ratCanon(r)}, nil
	}
	return item{val: cty.StringVal(tok), canon: tok}, nil
}

// ratValue converts an exact rational into a cty number at cty's native
// 512-bit precision, matching what cty.ParseNumberVal produces for the same
// decimal text.
func ratValue(r *big.Rat) cty.Value {
	return cty.NumberVal(new(big.Float).SetPrec(512).SetRat(r))
}

// ratCanon renders a rational as exact decimal text when the denominator is a
// product of 2s and 5s (always the case for values arising from decimal
// input), falling back to the num/den form otherwise.
func ratCanon(r *big.Rat) string {
	digits, ok := terminatingDigits(r)
	if !ok {
		return r.RatString()
	}
	if digits == 0 {
		return r.Num().String()
	}
	s := r.FloatString(digits)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// terminatingDigits returns how many fractional digits are needed to render r
// exactly, and whether a terminating decimal form exists at all.
func terminatingDigits(r *big.Rat) (int, bool) {
	den := new(big.Int).Set(r.Denom())
	two, five, ten := big.NewInt(2), big.NewInt(5), big.NewInt(10)
	digits := 0
	rem := new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(den, ten, rem)
		if m.Sign() != 0 {
			break
		}
		den, digits = q, digits+1
	}
	for {
		q, m := new(big.Int).QuoRem(den, two, rem)
		if m.Sign() != 0 {
			break
		}
		den, digits = q, digits+1
	}
	for {
		q, m := new(big.Int).QuoRem(den, five, rem)
		if m.Sign() != 0 {
			break
		}
		den, digits = q, digits+1
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return digits, true
}

// splitTop splits text on top-level commas, respecting one level of
// parentheses and quoted spans, and trims whitespace from each piece. Empty
// input produces no parts; an empty piece between commas is an error, as is
// an unterminated quote.
func splitTop(text string) ([]string, error) {
	var parts []string
	var quote rune
	depth := 0
	start := 0
	flush := func(end int) error {
		piece := strings.TrimSpace(text[start:end])
		if piece == "" {
			if len(parts) > 0 || end < len(text) {
				return fmt.Errorf("empty value in sequence")
			}
			return nil
		}
		parts = append(parts, piece)
		return nil
	}
	for i, ch := range text {
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", ")")
			}
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote %q", string(quote))
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced %q", "(")
	}
	if err := flush(len(text)); err != nil {
		return nil, err
	}
	return parts, nil
}
