package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    DefaultMass,
		Length:  1.0,
		Damping: 0.1,
		Gravity: DefaultGravity,
	}
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) ControlDim() int {
	return 1
}

func (p *Pendulum) inertia() float64 {
	return p.Mass * p.Length * p.Length
}

func (p *Pendulum) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta := x[0]
	omega := x[1]

	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + u[0]) / p.inertia()

	return dynamo.State{omega, alpha}
}

func (p *Pendulum) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	j := p.inertia()
	a := mat.NewDense(2, 2, []float64{
		0, 1,
		-p.Mass * p.Gravity * p.Length * math.Cos(x[0]) / j, -p.Damping / j,
	})
	b := mat.NewDense(2, 1, []float64{0, 1 / j})
	return a, b
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) Clone() dynamo.System {
	c := *p
	return &c
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	var err error
	switch name {
	case "mass":
		if err = positive(name, value); err == nil {
			p.Mass = value
		}
	case "length":
		if err = positive(name, value); err == nil {
			p.Length = value
		}
	case "damping":
		if err = nonNegative(name, value); err == nil {
			p.Damping = value
		}
	case "gravity":
		p.Gravity = value
	default:
		err = unknownParam(name)
	}
	return err
}
