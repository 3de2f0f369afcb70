package integrators

import (
	"github.com/pkg/errors"

	"github.com/san-kum/actuate/internal/sim"
)

var constructors = map[string]func() sim.Integrator{
	"euler":  func() sim.Integrator { return NewEuler() },
	"rk4":    func() sim.Integrator { return NewRK4() },
	"verlet": func() sim.Integrator { return NewVerlet() },
}

// ByName returns a fresh integrator. Integrators keep scratch buffers, so
// each plant needs its own instance.
func ByName(name string) (sim.Integrator, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, errors.Errorf("integrators: unknown integrator %q", name)
	}
	return fn(), nil
}

func Names() []string {
	return []string{"euler", "rk4", "verlet"}
}
