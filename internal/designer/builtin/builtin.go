// Package builtin provides the demonstration designers compiled into the
// designgrid binary. They implement deliberately small statistical kernels;
// the engine consumes them only through the designer.Evaluator capability.
package builtin

import "github.com/vk/designgridgo/internal/designer"

// RegisterAll adds every built-in designer to the registry.
func RegisterAll(r *designer.Registry) {
	r.Register(&TwoArm{})
	r.Register(&MultiArm{})
}
