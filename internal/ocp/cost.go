package ocp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

// QuadraticCost is ½(x-x*)ᵀQ(x-x*) + ½(u-u*)ᵀR(u-u*) around the target
// trajectories. A target without inputs tracks u* = 0.
type QuadraticCost struct {
	Q, R    *mat.Dense
	targets trajectory.TargetTrajectories
}

func NewQuadraticCost(q, r *mat.Dense, targets trajectory.TargetTrajectories) *QuadraticCost {
	return &QuadraticCost{Q: q, R: r, targets: targets}
}

func (c *QuadraticCost) Clone() Cost {
	cp := *c
	return &cp
}

func (c *QuadraticCost) SetTargetTrajectories(targets trajectory.TargetTrajectories) {
	c.targets = targets
}

func (c *QuadraticCost) deviation(t float64, x dynamo.State, u dynamo.Control) (*mat.VecDense, *mat.VecDense) {
	dx := x.Vec()
	if !c.targets.Empty() {
		dx.SubVec(dx, c.targets.StateAt(t).Vec())
	}
	du := u.Vec()
	if ur := c.targets.InputAt(t); ur != nil {
		du.SubVec(du, ur.Vec())
	}
	return dx, du
}

func (c *QuadraticCost) Value(t float64, x dynamo.State, u dynamo.Control) float64 {
	dx, du := c.deviation(t, x, u)
	return 0.5*mat.Inner(dx, c.Q, dx) + 0.5*mat.Inner(du, c.R, du)
}

func (c *QuadraticCost) QuadraticApproximation(t float64, x dynamo.State, u dynamo.Control) QuadraticApproximation {
	dx, du := c.deviation(t, x, u)
	n, m := len(x), len(u)

	q := QuadraticApproximation{
		F:     0.5*mat.Inner(dx, c.Q, dx) + 0.5*mat.Inner(du, c.R, du),
		Dfdx:  mat.NewVecDense(n, nil),
		Dfdu:  mat.NewVecDense(m, nil),
		Dfdxx: mat.DenseCopyOf(c.Q),
		Dfduu: mat.DenseCopyOf(c.R),
		Dfdux: mat.NewDense(m, n, nil),
	}
	q.Dfdx.MulVec(c.Q, dx)
	q.Dfdu.MulVec(c.R, du)
	return q
}

// QuadraticTerminalCost is ½(x-x*)ᵀP(x-x*) at the end of the horizon.
type QuadraticTerminalCost struct {
	P       *mat.Dense
	targets trajectory.TargetTrajectories
}

func NewQuadraticTerminalCost(p *mat.Dense, targets trajectory.TargetTrajectories) *QuadraticTerminalCost {
	return &QuadraticTerminalCost{P: p, targets: targets}
}

func (c *QuadraticTerminalCost) Clone() TerminalCost {
	cp := *c
	return &cp
}

func (c *QuadraticTerminalCost) SetTargetTrajectories(targets trajectory.TargetTrajectories) {
	c.targets = targets
}

func (c *QuadraticTerminalCost) deviation(t float64, x dynamo.State) *mat.VecDense {
	dx := x.Vec()
	if !c.targets.Empty() {
		dx.SubVec(dx, c.targets.StateAt(t).Vec())
	}
	return dx
}

func (c *QuadraticTerminalCost) Value(t float64, x dynamo.State) float64 {
	dx := c.deviation(t, x)
	return 0.5 * mat.Inner(dx, c.P, dx)
}

func (c *QuadraticTerminalCost) QuadraticApproximation(t float64, x dynamo.State) QuadraticApproximation {
	dx := c.deviation(t, x)
	q := QuadraticApproximation{
		F:     0.5 * mat.Inner(dx, c.P, dx),
		Dfdx:  mat.NewVecDense(len(x), nil),
		Dfdxx: mat.DenseCopyOf(c.P),
	}
	q.Dfdx.MulVec(c.P, dx)
	return q
}
