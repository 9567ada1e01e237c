package integrators

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// StepSensitivity returns x + dt·f(x,u,t) together with
// A = I + dt·∂f/∂x and B = dt·∂f/∂u.
func (e *Euler) StepSensitivity(dyn dynamo.Linearizer, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, *mat.Dense, *mat.Dense) {
	next := e.Step(dyn, x, u, t, dt)
	ac, bc := dyn.Linearize(x, u, t)

	a := dynamo.Identity(len(x))
	var scaled mat.Dense
	scaled.Scale(dt, ac)
	a.Add(a, &scaled)

	var b mat.Dense
	b.Scale(dt, bc)
	return next, a, &b
}
