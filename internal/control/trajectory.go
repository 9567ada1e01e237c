package control

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

// Feedforward replays an input trajectory. Times and Inputs have the same
// length.
type Feedforward struct {
	Times  []float64
	Inputs []dynamo.Control
}

func NewFeedforward(times []float64, inputs []dynamo.Control) *Feedforward {
	return &Feedforward{Times: times, Inputs: inputs}
}

func (f *Feedforward) Compute(x dynamo.State, t float64) dynamo.Control {
	return trajectory.Interpolate(trajectory.Locate(t, f.Times), f.Inputs)
}

// Linear is the affine feedback u = Bias(t) + Gains(t)·x with both terms
// interpolated linearly between nodes.
type Linear struct {
	Times []float64
	Bias  []dynamo.Control
	Gains []*mat.Dense
}

func NewLinear(times []float64, bias []dynamo.Control, gains []*mat.Dense) *Linear {
	return &Linear{Times: times, Bias: bias, Gains: gains}
}

func (l *Linear) Compute(x dynamo.State, t float64) dynamo.Control {
	ia := trajectory.Locate(t, l.Times)
	u := trajectory.Interpolate(ia, l.Bias)
	k := trajectory.InterpolateMatrix(ia, l.Gains)

	var kx mat.VecDense
	kx.MulVec(k, x.Vec())
	for i := range u {
		u[i] += kx.AtVec(i)
	}
	return u
}

// GainAt returns the interpolated feedback gain at t.
func (l *Linear) GainAt(t float64) *mat.Dense {
	return trajectory.InterpolateMatrix(trajectory.Locate(t, l.Times), l.Gains)
}
