package integrators

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// Sensitivity is an integrator that can also linearize its own step map.
type Sensitivity interface {
	dynamo.Integrator
	StepSensitivity(dyn dynamo.Linearizer, x dynamo.State, u dynamo.Control, t, dt float64) (next dynamo.State, a, b *mat.Dense)
}

// New returns a fresh integrator for plant simulation.
func New(name string) (dynamo.Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4":
		return NewRK4(), nil
	case "rk45":
		return NewRK45(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
}

// NewSensitivity returns a fresh discretization scheme for transcription.
// Instances are not safe for concurrent use; each worker needs its own.
func NewSensitivity(name string) (Sensitivity, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "rk4":
		return NewRK4(), nil
	}
	return nil, fmt.Errorf("%w: %q has no sensitivity discretization", ErrUnknownIntegrator, name)
}
