package ocp

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// SystemDynamics adapts a dynamo.System to the solver. Systems that
// implement dynamo.Linearizer keep their analytic Jacobians; all others
// are differentiated with central finite differences.
type SystemDynamics struct {
	sys      dynamo.System
	analytic dynamo.Linearizer
	settings fd.JacobianSettings
}

func NewSystemDynamics(sys dynamo.System) *SystemDynamics {
	d := &SystemDynamics{
		sys:      sys,
		settings: fd.JacobianSettings{Formula: fd.Central},
	}
	if lin, ok := sys.(dynamo.Linearizer); ok {
		d.analytic = lin
	}
	return d
}

func (d *SystemDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return d.sys.Derive(x, u, t)
}

func (d *SystemDynamics) StateDim() int   { return d.sys.StateDim() }
func (d *SystemDynamics) ControlDim() int { return d.sys.ControlDim() }

func (d *SystemDynamics) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	if d.analytic != nil {
		return d.analytic.Linearize(x, u, t)
	}

	n, m := len(x), len(u)

	a := mat.NewDense(n, n, nil)
	fd.Jacobian(a, func(y, xp []float64) {
		copy(y, d.sys.Derive(dynamo.State(xp), u, t))
	}, x, &d.settings)

	b := mat.NewDense(n, m, nil)
	fd.Jacobian(b, func(y, up []float64) {
		copy(y, d.sys.Derive(x, dynamo.Control(up), t))
	}, u, &d.settings)

	return a, b
}

// Clone copies the wrapper and, when the model supports it, the model.
func (d *SystemDynamics) Clone() Dynamics {
	c := *d
	if cl, ok := d.sys.(interface{ Clone() dynamo.System }); ok {
		c.sys = cl.Clone()
		if lin, ok := c.sys.(dynamo.Linearizer); ok {
			c.analytic = lin
		}
	}
	return &c
}
