package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// PointMass is a velocity-controlled point: x' = u.
type PointMass struct {
	Dim int
}

func NewPointMass(dim int) *PointMass {
	return &PointMass{Dim: dim}
}

func (p *PointMass) StateDim() int   { return p.Dim }
func (p *PointMass) ControlDim() int { return p.Dim }

func (p *PointMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, p.Dim)
	copy(dx, u)
	return dx
}

func (p *PointMass) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	return mat.NewDense(p.Dim, p.Dim, nil), dynamo.Identity(p.Dim)
}

func (p *PointMass) Clone() dynamo.System {
	c := *p
	return &c
}

func (p *PointMass) GetParams() map[string]float64 {
	return map[string]float64{"dim": float64(p.Dim)}
}

func (p *PointMass) SetParam(name string, value float64) error {
	switch name {
	case "dim":
		if value < 1 || value != float64(int(value)) {
			return fmt.Errorf("%w: dim must be a positive integer, got %g", dynamo.ErrParameterBounds, value)
		}
		p.Dim = int(value)
	default:
		return unknownParam(name)
	}
	return nil
}
