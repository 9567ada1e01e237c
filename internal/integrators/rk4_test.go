package integrators

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// forcedPendulum is x1' = x2, x2' = -sin(x1) + u with analytic Jacobians.
type forcedPendulum struct{}

func (p *forcedPendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -math.Sin(x[0]) + u[0]}
}

func (p *forcedPendulum) StateDim() int   { return 2 }
func (p *forcedPendulum) ControlDim() int { return 1 }

func (p *forcedPendulum) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	a := mat.NewDense(2, 2, []float64{0, 1, -math.Cos(x[0]), 0})
	b := mat.NewDense(2, 1, []float64{0, 1})
	return a, b
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestStepSensitivityMatchesFiniteDifference(t *testing.T) {
	dyn := &forcedPendulum{}
	x := dynamo.State{0.7, -0.3}
	u := dynamo.Control{0.4}
	dt := 0.05
	const h = 1e-6

	for _, name := range []string{"euler", "rk4"} {
		integ, err := NewSensitivity(name)
		if err != nil {
			t.Fatal(err)
		}

		next, a, b := integ.StepSensitivity(dyn, x, u, 0, dt)
		plain := integ.Step(dyn, x, u, 0, dt)
		for i := range next {
			if math.Abs(next[i]-plain[i]) > 1e-12 {
				t.Errorf("%s: sensitivity step differs from plain step at %d", name, i)
			}
		}

		for j := range x {
			xp, xm := x.Clone(), x.Clone()
			xp[j] += h
			xm[j] -= h
			fp := integ.Step(dyn, xp, u, 0, dt)
			fm := integ.Step(dyn, xm, u, 0, dt)
			for i := range x {
				fdv := (fp[i] - fm[i]) / (2 * h)
				if math.Abs(a.At(i, j)-fdv) > 1e-6 {
					t.Errorf("%s: A[%d,%d] = %.8f, finite difference %.8f", name, i, j, a.At(i, j), fdv)
				}
			}
		}

		up, um := dynamo.Control{u[0] + h}, dynamo.Control{u[0] - h}
		fp := integ.Step(dyn, x, up, 0, dt)
		fm := integ.Step(dyn, x, um, 0, dt)
		for i := range x {
			fdv := (fp[i] - fm[i]) / (2 * h)
			if math.Abs(b.At(i, 0)-fdv) > 1e-6 {
				t.Errorf("%s: B[%d,0] = %.8f, finite difference %.8f", name, i, b.At(i, 0), fdv)
			}
		}
	}
}

func TestNewUnknownIntegrator(t *testing.T) {
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := NewSensitivity("rk45"); err == nil {
		t.Error("expected error for rk45 sensitivity")
	}
}
