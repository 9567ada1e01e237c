package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

const (
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a chain of masses between two walls, the first mass
// driven by an external force. The state holds all positions first,
// then all velocities.
type SpringMass struct {
	NumMasses int
	Masses    []float64
	Stiffness []float64
	Damping   []float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		NumMasses: 1,
		Masses:    []float64{DefaultMass},
		Stiffness: []float64{DefaultStiffness},
		Damping:   []float64{DefaultDamping},
	}
}

func NewSpringMassChain(n int) *SpringMass {
	masses := make([]float64, n)
	stiffness := make([]float64, n+1)
	damping := make([]float64, n)

	for i := 0; i < n; i++ {
		masses[i] = DefaultMass
		stiffness[i] = DefaultStiffness
		damping[i] = 0.2
	}
	stiffness[n] = DefaultStiffness

	return &SpringMass{
		NumMasses: n,
		Masses:    masses,
		Stiffness: stiffness,
		Damping:   damping,
	}
}

func (s *SpringMass) StateDim() int   { return s.NumMasses * 2 }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := s.NumMasses
	dx := make(dynamo.State, n*2)

	for i := 0; i < n; i++ {
		dx[i] = x[n+i]
	}

	for i := 0; i < n; i++ {
		pos, vel := x[i], x[n+i]

		var forceLeft, forceRight float64
		if i == 0 {
			forceLeft = -s.Stiffness[0] * pos
		} else {
			forceLeft = -s.Stiffness[i] * (pos - x[i-1])
		}

		if i == n-1 {
			if len(s.Stiffness) > n {
				forceRight = -s.Stiffness[n] * pos
			}
		} else {
			forceRight = -s.Stiffness[i+1] * (pos - x[i+1])
		}

		totalForce := forceLeft + forceRight - s.Damping[i]*vel
		if i == 0 {
			totalForce += u[0]
		}
		dx[n+i] = totalForce / s.Masses[i]
	}

	return dx
}

// Linearize probes the flow map with unit vectors; the chain is linear,
// so the columns are exact.
func (s *SpringMass) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	dim := s.StateDim()
	zeroX := make(dynamo.State, dim)
	zeroU := dynamo.Control{0}

	a := mat.NewDense(dim, dim, nil)
	for j := 0; j < dim; j++ {
		e := make(dynamo.State, dim)
		e[j] = 1
		a.SetCol(j, s.Derive(e, zeroU, t))
	}
	b := mat.NewDense(dim, 1, nil)
	b.SetCol(0, s.Derive(zeroX, dynamo.Control{1}, t))
	return a, b
}

func (s *SpringMass) Energy(x dynamo.State) float64 {
	n := s.NumMasses
	energy := 0.0

	for i := 0; i < n; i++ {
		v := x[n+i]
		energy += 0.5 * s.Masses[i] * v * v
	}

	for i := 0; i < n; i++ {
		pos := x[i]
		if i == 0 {
			energy += 0.5 * s.Stiffness[0] * pos * pos
		} else {
			stretch := pos - x[i-1]
			energy += 0.5 * s.Stiffness[i] * stretch * stretch
		}
	}

	if len(s.Stiffness) > n {
		energy += 0.5 * s.Stiffness[n] * x[n-1] * x[n-1]
	}

	return energy
}

func (s *SpringMass) Clone() dynamo.System {
	return &SpringMass{
		NumMasses: s.NumMasses,
		Masses:    append([]float64(nil), s.Masses...),
		Stiffness: append([]float64(nil), s.Stiffness...),
		Damping:   append([]float64(nil), s.Damping...),
	}
}

// GetParams reports the chain length and the properties shared by every
// link; SetParam overwrites them uniformly.
func (s *SpringMass) GetParams() map[string]float64 {
	return map[string]float64{
		"masses":    float64(s.NumMasses),
		"mass":      s.Masses[0],
		"stiffness": s.Stiffness[0],
		"damping":   s.Damping[0],
	}
}

func (s *SpringMass) SetParam(name string, value float64) error {
	switch name {
	case "masses":
		if value < 1 || value != float64(int(value)) {
			return fmt.Errorf("%w: masses must be a positive integer, got %g", dynamo.ErrParameterBounds, value)
		}
		c := NewSpringMassChain(int(value))
		fill(c.Masses, s.Masses[0])
		fill(c.Stiffness, s.Stiffness[0])
		fill(c.Damping, s.Damping[0])
		*s = *c
	case "mass":
		if err := positive(name, value); err != nil {
			return err
		}
		fill(s.Masses, value)
	case "stiffness":
		if err := nonNegative(name, value); err != nil {
			return err
		}
		fill(s.Stiffness, value)
	case "damping":
		if err := nonNegative(name, value); err != nil {
			return err
		}
		fill(s.Damping, value)
	default:
		return unknownParam(name)
	}
	return nil
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}
