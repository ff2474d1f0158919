package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/designgridgo/internal/model"
	"github.com/zclconf/go-cty/cty"
)

func mustParse(t *testing.T, raw string) *Sequence {
	t.Helper()
	seq, err := Parse("p", raw, HintAuto)
	require.NoError(t, err)
	return seq
}

func TestParse_ScalarList(t *testing.T) {
	seq := mustParse(t, "10, 20, 50")
	assert.Equal(t, 3, seq.Len())
	assert.False(t, seq.IsVector())
	assert.Equal(t, "10, 20, 50", seq.Canonical())
}

func TestParse_OrderIsLiteral(t *testing.T) {
	seq := mustParse(t, "50, 10, 20")
	assert.Equal(t, "50, 10, 20", seq.Canonical())
}

func TestParse_StepSequence(t *testing.T) {
	seq := mustParse(t, "10, 20, ..., 50")
	assert.Equal(t, 5, seq.Len())
	assert.Equal(t, "10, 20, 30, 40, 50", seq.Canonical())
}

func TestParse_StepSequenceDescending(t *testing.T) {
	seq := mustParse(t, "5, 4, ..., 1")
	assert.Equal(t, "5, 4, 3, 2, 1", seq.Canonical())
}

func TestParse_StepSequenceFractional(t *testing.T) {
	seq := mustParse(t, "0.1, 0.2, ..., 0.5")
	assert.Equal(t, "0.1, 0.2, 0.3, 0.4, 0.5", seq.Canonical())
}

func TestParse_StepSequenceUnreachableBound(t *testing.T) {
	_, err := Parse("p", "1, 3, ..., 8", HintAuto)
	var parseErr *model.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "p", parseErr.Param)
	assert.Contains(t, parseErr.Reason, "not reachable")
}

func TestParse_StepSequenceErrors(t *testing.T) {
	cases := map[string]string{
		"zero step":         "1, 1, ..., 5",
		"double ellipsis":   "1, 2, ..., 5, ..., 9",
		"leading ellipsis":  "..., 5",
		"short head":        "1, ..., 5",
		"trailing ellipsis": "1, 2, 3, ...",
		"non numeric":       "a, b, ..., z",
		"off-grid third":    "1, 2, 4, ..., 10",
		"wrong direction":   "1, 2, ..., -5",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("p", raw, HintAuto)
			var parseErr *model.ParseError
			assert.ErrorAs(t, err, &parseErr, "input %q", raw)
		})
	}
}

func TestParse_StepSequenceHugeBoundFails(t *testing.T) {
	// A runaway bound must fail as a parse error, not allocate its way to it.
	for _, raw := range []string{
		"1, 2, ..., 2000000000",
		"1, 2, ..., 99999999999999999999999999999999",
		"0.001, 0.002, ..., 10000",
	} {
		_, err := Parse("p", raw, HintAuto)
		var parseErr *model.ParseError
		require.ErrorAs(t, err, &parseErr, "input %q", raw)
		assert.Contains(t, parseErr.Reason, "expands to more than")
	}
}

func TestParse_CanonicalIsIdempotent(t *testing.T) {
	inputs := []string{
		"10, 20, ..., 50",
		"0.25,0.5,...,1.5",
		" 1 ,2,  3 ",
		"(1, 2), (1, 2, 3)",
		"(1, 2, ..., 5)",
		"true, false",
		`"complete", simple`,
		`"commas, inside", "it's fine"`,
	}
	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			first := mustParse(t, raw)
			second := mustParse(t, first.Canonical())
			assert.Equal(t, first.Canonical(), second.Canonical())
			require.Equal(t, first.Len(), second.Len())
			for i, v := range first.Values() {
				assert.True(t, v.RawEquals(second.Values()[i]), "value %d differs", i)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "1,,2", "1, 2,"} {
		_, err := Parse("p", raw, HintAuto)
		var parseErr *model.ParseError
		assert.ErrorAs(t, err, &parseErr, "input %q", raw)
	}
}

func TestParse_TypedScalars(t *testing.T) {
	seq := mustParse(t, `true, 1.5, hello, "quoted, text"`)
	vals := seq.Values()
	require.Len(t, vals, 4)
	assert.Equal(t, cty.Bool, vals[0].Type())
	assert.Equal(t, cty.Number, vals[1].Type())
	assert.Equal(t, cty.String, vals[2].Type())
	assert.Equal(t, "quoted, text", vals[3].AsString())
}

func TestParse_IntegralTypingSurvivesRoundTrip(t *testing.T) {
	// "10" parsed from a list and 10 generated by a step sequence must be
	// the same value, or cache keys would differ between spellings.
	list := mustParse(t, "10, 20, 30")
	step := mustParse(t, "10, 20, ..., 30")
	for i, v := range list.Values() {
		assert.True(t, v.RawEquals(step.Values()[i]))
	}
}

func TestParse_VectorSequence(t *testing.T) {
	seq := mustParse(t, "(1, 2), (1, 2, 3)")
	require.Equal(t, 2, seq.Len())
	assert.True(t, seq.IsVector())
	first := seq.Values()[0]
	require.True(t, first.Type().IsTupleType())
	assert.Equal(t, 2, first.LengthInt())
	assert.Equal(t, 3, seq.Values()[1].LengthInt())
	assert.Equal(t, "(1, 2), (1, 2, 3)", seq.Canonical())
}

func TestParse_VectorWithStepSequence(t *testing.T) {
	seq := mustParse(t, "(1, 2, ..., 5)")
	require.Equal(t, 1, seq.Len())
	assert.Equal(t, "(1, 2, 3, 4, 5)", seq.Canonical())
}

func TestParse_MixedVectorScalarFails(t *testing.T) {
	_, err := Parse("p", "(1, 2), 3", HintAuto)
	var parseErr *model.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Reason, "mix")
}

func TestParse_Hints(t *testing.T) {
	_, err := Parse("p", "(1, 2)", HintScalar)
	assert.Error(t, err)

	_, err = Parse("p", "1, 2", HintVector)
	assert.Error(t, err)

	_, err = Parse("p", "(1, 2)", HintVector)
	assert.NoError(t, err)
}

func TestParse_UnbalancedParens(t *testing.T) {
	for _, raw := range []string{"(1, 2", "1, 2)"} {
		_, err := Parse("p", raw, HintAuto)
		var parseErr *model.ParseError
		assert.ErrorAs(t, err, &parseErr, "input %q", raw)
	}
}

func TestParse_UnterminatedQuote(t *testing.T) {
	for _, raw := range []string{`"a`, `'a`, `"a"b"`, `"a, b`} {
		_, err := Parse("p", raw, HintAuto)
		var parseErr *model.ParseError
		require.ErrorAs(t, err, &parseErr, "input %q", raw)
		assert.Contains(t, parseErr.Reason, "unterminated quote")
	}
}
