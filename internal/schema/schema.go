// Package schema declares the HCL shapes of a designgrid grid file.
package schema

import "github.com/hashicorp/hcl/v2"

// Parameter is one `parameter` block: a named textual value sequence. Block
// order within the design is significant; it fixes the expansion order.
type Parameter struct {
	Name   string `hcl:"name,label"`
	Values string `hcl:"values"`
	Vector bool   `hcl:"vector,optional"`
}

// Simulation is the `simulation` block configuring how each design point is
// simulated and diagnosed. Seed is a pointer so an absent attribute can be
// told apart from an explicit `seed = 0`.
type Simulation struct {
	Sims         int    `hcl:"sims"`
	Bootstraps   int    `hcl:"bootstraps,optional"`
	Seed         *int64 `hcl:"seed,optional"`
	CacheVersion string `hcl:"cache_version,optional"`
}

// Design is a `design` block: one designer type, its parameter grid and its
// simulation settings.
type Design struct {
	DesignerType string       `hcl:"designer_type,label"`
	Name         string       `hcl:"instance_name,label"`
	Parameters   []*Parameter `hcl:"parameter,block"`
	Simulation   *Simulation  `hcl:"simulation,block"`
}

// GridConfig is the top-level structure of a grid file.
type GridConfig struct {
	Designs []*Design `hcl:"design,block"`
	Body    hcl.Body  `hcl:",remain"`
}
