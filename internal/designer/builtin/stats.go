package builtin

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vk/designgridgo/internal/designspace"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// simDraw is one simulation row shared by the built-in diagnose passes.
type simDraw struct {
	estimate float64
	estimand float64
	pValue   float64
}

// diagnosand is a summary statistic over simulation draws.
type diagnosand struct {
	name string
	fn   func(draws []simDraw) float64
}

// standardDiagnosands are the summaries every built-in designer reports.
var standardDiagnosands = []diagnosand{
	{"power", func(draws []simDraw) float64 {
		hits := 0
		for _, d := range draws {
			if d.pValue < 0.05 {
				hits++
			}
		}
		return float64(hits) / float64(len(draws))
	}},
	{"bias", func(draws []simDraw) float64 {
		sum := 0.0
		for _, d := range draws {
			sum += d.estimate - d.estimand
		}
		return sum / float64(len(draws))
	}},
	{"rmse", func(draws []simDraw) float64 {
		sum := 0.0
		for _, d := range draws {
			diff := d.estimate - d.estimand
			sum += diff * diff
		}
		return math.Sqrt(sum / float64(len(draws)))
	}},
}

// bootstrapSE estimates the standard error of fn over draws by resampling
// rows with replacement. Returns NaN when resamples is 0.
func bootstrapSE(rng *rand.Rand, draws []simDraw, resamples int, fn func([]simDraw) float64) float64 {
	if resamples <= 0 {
		return math.NaN()
	}
	replicates := make([]float64, resamples)
	sample := make([]simDraw, len(draws))
	for r := 0; r < resamples; r++ {
		for i := range sample {
			sample[i] = draws[rng.Intn(len(draws))]
		}
		replicates[r] = fn(sample)
	}
	mean := 0.0
	for _, v := range replicates {
		mean += v
	}
	mean /= float64(resamples)
	varsum := 0.0
	for _, v := range replicates {
		varsum += (v - mean) * (v - mean)
	}
	if resamples < 2 {
		return 0
	}
	return math.Sqrt(varsum / float64(resamples-1))
}

// normalPValue is the two-sided p-value of estimate/se under a standard
// normal reference distribution.
func normalPValue(estimate, se float64) float64 {
	if se <= 0 {
		return 1
	}
	z := math.Abs(estimate / se)
	return 2 * (1 - 0.5*(1+math.Erf(z/math.Sqrt2)))
}

// intParam extracts an integral parameter from a point.
func intParam(p designspace.Point, name string) (int, error) {
	v, ok := p.Value(name)
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be a number: %w", name, err)
	}
	bf := num.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("parameter %q must be an integer, got %s", name, designspace.FormatValue(v))
	}
	i, _ := bf.Int64()
	return int(i), nil
}

// floatParam extracts a numeric parameter, returning fallback when absent.
func floatParam(p designspace.Point, name string, fallback float64) (float64, error) {
	v, ok := p.Value(name)
	if !ok {
		return fallback, nil
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be a number: %w", name, err)
	}
	f, _ := num.AsBigFloat().Float64()
	return f, nil
}
