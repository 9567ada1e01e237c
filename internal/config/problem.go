package config

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

func diag(v []float64) *mat.Dense {
	d := mat.NewDense(len(v), len(v), nil)
	for i, vi := range v {
		d.Set(i, i, vi)
	}
	return d
}

// Targets holds the configured target state, or the origin, together with
// the plant's operating input.
func (c *Config) Targets(plant dynamo.System) trajectory.TargetTrajectories {
	x := make(dynamo.State, plant.StateDim())
	copy(x, c.Target)
	op := models.NewStaticOperatingPoint(plant)
	return trajectory.ConstantTarget(x, op.Input)
}

// Problem builds the optimal control problem on a private copy of plant.
// Input bounds become an InputBox inequality; the solver adds the
// penalty from the sqp settings. A terminal state pins the end of every
// horizon, which makes the solver use the dense KKT backend.
func (c *Config) Problem(plant models.Model) ocp.Problem {
	targets := c.Targets(plant)
	p := ocp.Problem{
		Dynamics:  ocp.NewSystemDynamics(plant.Clone()),
		Cost:      ocp.NewQuadraticCost(diag(c.Cost.Q), diag(c.Cost.R), targets),
		Operating: models.NewStaticOperatingPoint(plant),
	}
	if len(c.Cost.QFinal) > 0 {
		p.TerminalCost = ocp.NewQuadraticTerminalCost(diag(c.Cost.QFinal), targets)
	}
	if b := c.InputBounds; b != nil {
		p.Inequality = ocp.NewInputBox(b.Lower, b.Upper, plant.StateDim())
	}
	if len(c.TerminalState) > 0 {
		p.TerminalEquality = ocp.PinState(c.TerminalState)
	}
	return p
}

// Weights returns the running cost weights as matrices.
func (c *Config) Weights() (q, r *mat.Dense) {
	return diag(c.Cost.Q), diag(c.Cost.R)
}
