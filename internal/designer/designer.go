// Package designer defines the evaluator capability consumed by the engine:
// a parameterized generator that can instantiate a concrete design from one
// design point, simulate it, and diagnose the simulation draws. The engine
// treats implementations as opaque; it contributes no statistical semantics
// of its own.
package designer

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/vk/designgridgo/internal/designspace"
	"github.com/vk/designgridgo/internal/table"
)

// Instance is a fully specified design ready for simulation. Its concrete
// type is private to the evaluator that produced it.
type Instance any

// Evaluator is the designer capability. Implementations must be stateless
// across points: every point's evaluation is independent and side-effect
// free, which is what licenses parallel execution.
type Evaluator interface {
	// Name is the registry type name of the designer.
	Name() string

	// Source returns a byte representation of the designer's defining logic.
	// It participates in the cache fingerprint, so any change to the
	// designer's behavior must change these bytes.
	Source() []byte

	// Instantiate builds a concrete design from one point's parameter
	// assignment. Invalid combinations fail here, per point.
	Instantiate(ctx context.Context, point designspace.Point) (Instance, error)

	// Simulate runs sims simulation draws of the instance using the provided
	// random stream and returns the raw simulation rows.
	Simulate(ctx context.Context, inst Instance, rng *rand.Rand, sims int) (table.Table, error)

	// Diagnose summarizes simulation rows into diagnosand rows, estimating
	// each diagnosand's uncertainty with bootstraps resamples (0 disables).
	Diagnose(ctx context.Context, sims table.Table, rng *rand.Rand, bootstraps int) (table.Table, error)
}

// Registry holds the designers available to one application instance, keyed
// by type name.
type Registry struct {
	designers map[string]Evaluator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{designers: make(map[string]Evaluator)}
}

// Register adds a designer. Registering the same name twice is a programmer
// error and panics.
func (r *Registry) Register(e Evaluator) {
	if _, exists := r.designers[e.Name()]; exists {
		panic(fmt.Sprintf("designer %q registered twice", e.Name()))
	}
	r.designers[e.Name()] = e
}

// Get returns the designer registered under name.
func (r *Registry) Get(name string) (Evaluator, bool) {
	e, ok := r.designers[name]
	return e, ok
}

// Names returns the registered designer names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.designers))
	for name := range r.designers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
