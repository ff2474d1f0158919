package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/designgridgo/internal/ctxlog"
	"github.com/vk/designgridgo/internal/hcl"
	"github.com/vk/designgridgo/internal/model"
	"github.com/vk/designgridgo/internal/schema"
)

// Run executes every design in the configured grid and renders the
// aggregated diagnosands to the output writer. Parse and expansion errors
// abort the run; per-point failures do not.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Error("Cache store close failed.", "error", err)
		}
	}()

	grid, err := a.loader.Load(ctx, a.config.GridPath)
	if err != nil {
		return err
	}
	a.logger.Info("Grid loaded.", "designs", len(grid.Designs))

	for _, design := range grid.Designs {
		if err := a.runDesign(ctx, design); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runDesign(ctx context.Context, d *schema.Design) error {
	ev, found := a.registry.Get(d.DesignerType)
	if !found {
		return fmt.Errorf("design %q uses unknown designer %q (available: %v)",
			d.Name, d.DesignerType, a.registry.Names())
	}

	rawParams, cfg, err := hcl.Translate(d)
	if err != nil {
		return err
	}

	result, err := a.engine.RunDiagnoses(ctx, ev, rawParams, cfg)
	if err != nil {
		var parseErr *model.ParseError
		var expErr *model.ExpansionError
		if errors.As(err, &parseErr) || errors.As(err, &expErr) {
			// Recoverable user input errors: surface them with the design
			// name and keep the process alive for the remaining designs.
			fmt.Fprintf(a.outW, "design %q: %v\n", d.Name, err)
			return nil
		}
		return fmt.Errorf("design %q: %w", d.Name, err)
	}

	fmt.Fprintf(a.outW, "design %q (%s): key=%s cached=%t rows=%d failures=%d\n",
		d.Name, d.DesignerType, result.Key, result.FromCache,
		result.Diagnosands.NumRows(), len(result.Failures))
	if err := result.Diagnosands.Render(a.outW); err != nil {
		return err
	}
	for _, f := range result.Failures {
		fmt.Fprintf(a.outW, "point %d failed: %s\n", f.Index, f.Message)
	}
	return nil
}
