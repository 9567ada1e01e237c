package models

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	x := dynamo.State{0, 0}
	u := dynamo.Control{0}

	dx := p.Derive(x, u, 0)

	if math.Abs(dx[0]) > 1e-10 {
		t.Errorf("expected zero velocity at equilibrium, got %f", dx[0])
	}

	if math.Abs(dx[1]) > 1e-10 {
		t.Errorf("expected zero acceleration at equilibrium, got %f", dx[1])
	}
}

func TestPendulumDimensions(t *testing.T) {
	p := NewPendulum()

	if p.StateDim() != 2 {
		t.Errorf("expected state dim 2, got %d", p.StateDim())
	}

	if p.ControlDim() != 1 {
		t.Errorf("expected control dim 1, got %d", p.ControlDim())
	}
}

func TestPendulumGravity(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	x := dynamo.State{math.Pi / 2, 0}
	u := dynamo.Control{0}

	dx := p.Derive(x, u, 0)

	expectedAccel := -p.Gravity / p.Length

	if math.Abs(dx[1]-expectedAccel) > 1e-6 {
		t.Errorf("expected acceleration %f, got %f", expectedAccel, dx[1])
	}
}

// numericJacobians differentiates sys with central differences.
func numericJacobians(sys dynamo.System, x dynamo.State, u dynamo.Control) (*mat.Dense, *mat.Dense) {
	settings := &fd.JacobianSettings{Formula: fd.Central}
	a := mat.NewDense(len(x), len(x), nil)
	fd.Jacobian(a, func(y, xp []float64) {
		copy(y, sys.Derive(dynamo.State(xp), u, 0))
	}, x, settings)
	b := mat.NewDense(len(x), len(u), nil)
	fd.Jacobian(b, func(y, up []float64) {
		copy(y, sys.Derive(x, dynamo.Control(up), 0))
	}, u, settings)
	return a, b
}

func TestAnalyticJacobians(t *testing.T) {
	tests := []struct {
		name string
		sys  dynamo.Linearizer
		x    dynamo.State
		u    dynamo.Control
	}{
		{"pendulum", NewPendulum(), dynamo.State{0.7, -0.3}, dynamo.Control{0.4}},
		{"pointmass", NewPointMass(3), dynamo.State{1, 2, 3}, dynamo.Control{-1, 0, 1}},
		{"springmass", NewSpringMassChain(3), dynamo.State{0.1, -0.2, 0.3, 0, 1, -1}, dynamo.Control{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.sys.Linearize(tt.x, tt.u, 0)
			na, nb := numericJacobians(tt.sys, tt.x, tt.u)
			if !mat.EqualApprox(a, na, 1e-6) {
				t.Errorf("state jacobian mismatch:\n%v\nvs\n%v", mat.Formatted(a), mat.Formatted(na))
			}
			if !mat.EqualApprox(b, nb, 1e-6) {
				t.Errorf("input jacobian mismatch:\n%v\nvs\n%v", mat.Formatted(b), mat.Formatted(nb))
			}
		})
	}
}

func TestPendulumSetParam(t *testing.T) {
	p := NewPendulum()

	if err := p.SetParam("length", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.GetParams()["length"] != 2 {
		t.Errorf("length not applied: %v", p.GetParams())
	}
	if err := p.SetParam("mass", -1); err == nil {
		t.Error("expected an error for negative mass")
	}
	if err := p.SetParam("colour", 1); err == nil {
		t.Error("expected an error for unknown parameter")
	}
}
