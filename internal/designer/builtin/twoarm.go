package builtin

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/vk/designgridgo/internal/designer"
	"github.com/vk/designgridgo/internal/designspace"
	"github.com/vk/designgridgo/internal/table"
)

// twoArmSource identifies the defining logic of the two_arm designer. Bump
// the revision whenever the simulation or diagnosis behavior changes, so
// stale cache entries stop matching.
const twoArmSource = "builtin/two_arm@r2;params=N,ate,sd;estimator=difference-in-means;test=normal-approx"

// TwoArm is a two-arm randomized trial: N units split evenly between control
// and treatment, outcome = noise(sd) + ate*treated, estimated by the
// difference in means.
//
// Parameters: N (even integer >= 4), ate (number), sd (number > 0, default 1).
type TwoArm struct{}

type twoArmInstance struct {
	n   int
	ate float64
	sd  float64
}

func (d *TwoArm) Name() string { return "two_arm" }

func (d *TwoArm) Source() []byte { return []byte(twoArmSource) }

func (d *TwoArm) Instantiate(_ context.Context, point designspace.Point) (designer.Instance, error) {
	n, err := intParam(point, "N")
	if err != nil {
		return nil, err
	}
	if n < 4 || n%2 != 0 {
		return nil, fmt.Errorf("N must be an even integer of at least 4, got %d", n)
	}
	ate, err := floatParam(point, "ate", 0)
	if err != nil {
		return nil, err
	}
	sd, err := floatParam(point, "sd", 1)
	if err != nil {
		return nil, err
	}
	if sd <= 0 {
		return nil, fmt.Errorf("sd must be positive, got %g", sd)
	}
	return &twoArmInstance{n: n, ate: ate, sd: sd}, nil
}

func (d *TwoArm) Simulate(ctx context.Context, inst designer.Instance, rng *rand.Rand, sims int) (table.Table, error) {
	design, ok := inst.(*twoArmInstance)
	if !ok {
		return table.Table{}, fmt.Errorf("two_arm cannot simulate a foreign instance of type %T", inst)
	}

	out := table.New("sim", "estimate", "estimand", "std_error", "p_value")
	half := design.n / 2
	for s := 0; s < sims; s++ {
		if err := ctx.Err(); err != nil {
			return table.Table{}, err
		}
		var sumC, sumT, sqC, sqT float64
		for i := 0; i < half; i++ {
			y := rng.NormFloat64() * design.sd
			sumC += y
			sqC += y * y
		}
		for i := 0; i < half; i++ {
			y := rng.NormFloat64()*design.sd + design.ate
			sumT += y
			sqT += y * y
		}
		meanC, meanT := sumC/float64(half), sumT/float64(half)
		varC := (sqC - float64(half)*meanC*meanC) / float64(half-1)
		varT := (sqT - float64(half)*meanT*meanT) / float64(half-1)
		estimate := meanT - meanC
		se := math.Sqrt(varC/float64(half) + varT/float64(half))
		out.AppendRow(float64(s), estimate, design.ate, se, normalPValue(estimate, se))
	}
	return out, nil
}

func (d *TwoArm) Diagnose(_ context.Context, sims table.Table, rng *rand.Rand, bootstraps int) (table.Table, error) {
	draws, err := drawsFromTable(sims)
	if err != nil {
		return table.Table{}, err
	}
	out := table.New("diagnosand", "estimate", "std_error")
	for _, dg := range standardDiagnosands {
		out.AppendRow(dg.name, dg.fn(draws), bootstrapSE(rng, draws, bootstraps, dg.fn))
	}
	return out, nil
}

// drawsFromTable decodes the simulation columns every built-in designer emits.
func drawsFromTable(sims table.Table) ([]simDraw, error) {
	est, ok := sims.Column("estimate")
	if !ok {
		return nil, fmt.Errorf("simulation table lacks an %q column", "estimate")
	}
	estimand, ok := sims.Column("estimand")
	if !ok {
		return nil, fmt.Errorf("simulation table lacks an %q column", "estimand")
	}
	pvals, ok := sims.Column("p_value")
	if !ok {
		return nil, fmt.Errorf("simulation table lacks a %q column", "p_value")
	}
	if len(est) == 0 {
		return nil, fmt.Errorf("simulation table has no rows")
	}
	draws := make([]simDraw, len(est))
	for i := range est {
		e, ok1 := est[i].(float64)
		t, ok2 := estimand[i].(float64)
		p, ok3 := pvals[i].(float64)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("simulation row %d has non-numeric cells", i)
		}
		draws[i] = simDraw{estimate: e, estimand: t, pValue: p}
	}
	return draws, nil
}
