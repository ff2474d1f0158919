package builtin

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/vk/designgridgo/internal/designer"
	"github.com/vk/designgridgo/internal/designspace"
	"github.com/vk/designgridgo/internal/table"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

const multiArmSource = "builtin/multi_arm@r1;params=N,ates,sd;estimator=per-arm-difference-in-means;test=normal-approx"

// MultiArm is a multi-arm trial with one control arm and one treatment arm
// per element of the vector parameter "ates". Arms may differ in number
// across design points (vector sequences of differing length), which is the
// designer that exercises vector parameters end to end.
//
// Parameters: N (units per arm, integer >= 2), ates (vector of numbers),
// sd (number > 0, default 1).
type MultiArm struct{}

type multiArmInstance struct {
	perArm int
	ates   []float64
	sd     float64
}

func (d *MultiArm) Name() string { return "multi_arm" }

func (d *MultiArm) Source() []byte { return []byte(multiArmSource) }

func (d *MultiArm) Instantiate(_ context.Context, point designspace.Point) (designer.Instance, error) {
	n, err := intParam(point, "N")
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("N must be at least 2 units per arm, got %d", n)
	}
	atesVal, ok := point.Value("ates")
	if !ok {
		return nil, fmt.Errorf("missing parameter %q", "ates")
	}
	if !atesVal.Type().IsTupleType() {
		return nil, fmt.Errorf("parameter %q must be a vector, got %s", "ates", designspace.FormatValue(atesVal))
	}
	var ates []float64
	for _, elem := range atesVal.AsValueSlice() {
		num, err := convert.Convert(elem, cty.Number)
		if err != nil {
			return nil, fmt.Errorf("vector %q must contain only numbers: %w", "ates", err)
		}
		f, _ := num.AsBigFloat().Float64()
		ates = append(ates, f)
	}
	if len(ates) == 0 {
		return nil, fmt.Errorf("vector %q must not be empty", "ates")
	}
	sd, err := floatParam(point, "sd", 1)
	if err != nil {
		return nil, err
	}
	if sd <= 0 {
		return nil, fmt.Errorf("sd must be positive, got %g", sd)
	}
	return &multiArmInstance{perArm: n, ates: ates, sd: sd}, nil
}

func (d *MultiArm) Simulate(ctx context.Context, inst designer.Instance, rng *rand.Rand, sims int) (table.Table, error) {
	design, ok := inst.(*multiArmInstance)
	if !ok {
		return table.Table{}, fmt.Errorf("multi_arm cannot simulate a foreign instance of type %T", inst)
	}

	out := table.New("sim", "arm", "estimate", "estimand", "std_error", "p_value")
	n := float64(design.perArm)
	for s := 0; s < sims; s++ {
		if err := ctx.Err(); err != nil {
			return table.Table{}, err
		}
		meanC, varC := armDraw(rng, design.perArm, 0, design.sd)
		for arm, ate := range design.ates {
			meanT, varT := armDraw(rng, design.perArm, ate, design.sd)
			estimate := meanT - meanC
			se := math.Sqrt(varC/n + varT/n)
			out.AppendRow(float64(s), float64(arm+1), estimate, ate, se, normalPValue(estimate, se))
		}
	}
	return out, nil
}

// armDraw simulates one arm and returns its sample mean and variance.
func armDraw(rng *rand.Rand, n int, shift, sd float64) (mean, variance float64) {
	var sum, sq float64
	for i := 0; i < n; i++ {
		y := rng.NormFloat64()*sd + shift
		sum += y
		sq += y * y
	}
	mean = sum / float64(n)
	variance = (sq - float64(n)*mean*mean) / float64(n-1)
	return mean, variance
}

// Diagnose summarizes each arm separately: the simulation rows are grouped by
// the "arm" column and the standard diagnosands are computed per group.
func (d *MultiArm) Diagnose(_ context.Context, sims table.Table, rng *rand.Rand, bootstraps int) (table.Table, error) {
	arms, ok := sims.Column("arm")
	if !ok {
		return table.Table{}, fmt.Errorf("simulation table lacks an %q column", "arm")
	}
	draws, err := drawsFromTable(sims)
	if err != nil {
		return table.Table{}, err
	}

	grouped := make(map[float64][]simDraw)
	var order []float64
	for i, cell := range arms {
		arm, ok := cell.(float64)
		if !ok {
			return table.Table{}, fmt.Errorf("simulation row %d has a non-numeric arm", i)
		}
		if _, seen := grouped[arm]; !seen {
			order = append(order, arm)
		}
		grouped[arm] = append(grouped[arm], draws[i])
	}

	out := table.New("arm", "diagnosand", "estimate", "std_error")
	for _, arm := range order {
		group := grouped[arm]
		for _, dg := range standardDiagnosands {
			out.AppendRow(arm, dg.name, dg.fn(group), bootstrapSE(rng, group, bootstraps, dg.fn))
		}
	}
	return out, nil
}
