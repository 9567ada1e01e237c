package ocp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// LinearConstraint is g(x, u) = C·u + D·x + e. Used as an equality it
// projects the inputs; used as an inequality it is penalized.
type LinearConstraint struct {
	C *mat.Dense
	D *mat.Dense
	E *mat.VecDense
}

// NewLinearConstraint builds C·u + D·x + e. A nil d means no state
// dependency; a nil e means no offset.
func NewLinearConstraint(c, d *mat.Dense, e *mat.VecDense, stateDim int) *LinearConstraint {
	p, _ := c.Dims()
	if d == nil {
		d = mat.NewDense(p, stateDim, nil)
	}
	if e == nil {
		e = mat.NewVecDense(p, nil)
	}
	return &LinearConstraint{C: c, D: d, E: e}
}

func (l *LinearConstraint) Clone() StateInputConstraint {
	cp := *l
	return &cp
}

func (l *LinearConstraint) value(x dynamo.State, u dynamo.Control) *mat.VecDense {
	p, _ := l.C.Dims()
	g := mat.NewVecDense(p, nil)
	var tmp mat.VecDense
	g.MulVec(l.C, u.Vec())
	tmp.MulVec(l.D, x.Vec())
	g.AddVec(g, &tmp)
	g.AddVec(g, l.E)
	return g
}

func (l *LinearConstraint) Value(t float64, x dynamo.State, u dynamo.Control) []float64 {
	return dynamo.StateFromVec(l.value(x, u))
}

func (l *LinearConstraint) LinearApproximation(t float64, x dynamo.State, u dynamo.Control) LinearApproximation {
	return LinearApproximation{
		F:    l.value(x, u),
		Dfdx: mat.DenseCopyOf(l.D),
		Dfdu: mat.DenseCopyOf(l.C),
	}
}

// InputBox keeps every input inside [Lower, Upper] as the inequality
// vector [u - lower; upper - u]. Infinite bounds are dropped.
type InputBox struct {
	Lower, Upper []float64
	stateDim     int
	rows         []boxRow
}

type boxRow struct {
	index int
	sign  float64
	bound float64
}

func NewInputBox(lower, upper []float64, stateDim int) *InputBox {
	b := &InputBox{Lower: lower, Upper: upper, stateDim: stateDim}
	for i, lo := range lower {
		if !math.IsInf(lo, -1) {
			b.rows = append(b.rows, boxRow{index: i, sign: 1, bound: lo})
		}
	}
	for i, hi := range upper {
		if !math.IsInf(hi, 1) {
			b.rows = append(b.rows, boxRow{index: i, sign: -1, bound: hi})
		}
	}
	return b
}

func (b *InputBox) Clone() StateInputConstraint {
	cp := *b
	return &cp
}

func (b *InputBox) NumConstraints() int { return len(b.rows) }

func (b *InputBox) Value(t float64, x dynamo.State, u dynamo.Control) []float64 {
	g := make([]float64, len(b.rows))
	for k, r := range b.rows {
		g[k] = r.sign * (u[r.index] - r.bound)
	}
	return g
}

func (b *InputBox) LinearApproximation(t float64, x dynamo.State, u dynamo.Control) LinearApproximation {
	p := len(b.rows)
	if p == 0 {
		return LinearApproximation{}
	}
	dfdu := mat.NewDense(p, len(u), nil)
	for k, r := range b.rows {
		dfdu.Set(k, r.index, r.sign)
	}
	return LinearApproximation{
		F:    mat.NewVecDense(p, b.Value(t, x, u)),
		Dfdx: mat.NewDense(p, b.stateDim, nil),
		Dfdu: dfdu,
	}
}

// LinearStateConstraint is h(x) = D·x + e. As the terminal equality it
// pins the end of the horizon.
type LinearStateConstraint struct {
	D *mat.Dense
	E *mat.VecDense
}

// NewLinearStateConstraint builds D·x + e. A nil e means no offset.
func NewLinearStateConstraint(d *mat.Dense, e *mat.VecDense) *LinearStateConstraint {
	if e == nil {
		r, _ := d.Dims()
		e = mat.NewVecDense(r, nil)
	}
	return &LinearStateConstraint{D: d, E: e}
}

// PinState returns the constraint x - target = 0.
func PinState(target dynamo.State) *LinearStateConstraint {
	n := len(target)
	e := mat.NewVecDense(n, nil)
	e.ScaleVec(-1, target.Vec())
	return &LinearStateConstraint{D: dynamo.Identity(n), E: e}
}

func (c *LinearStateConstraint) Clone() StateConstraint {
	cp := *c
	return &cp
}

func (c *LinearStateConstraint) value(x dynamo.State) *mat.VecDense {
	r, _ := c.D.Dims()
	g := mat.NewVecDense(r, nil)
	g.MulVec(c.D, x.Vec())
	g.AddVec(g, c.E)
	return g
}

func (c *LinearStateConstraint) Value(t float64, x dynamo.State) []float64 {
	return dynamo.StateFromVec(c.value(x))
}

func (c *LinearStateConstraint) LinearApproximation(t float64, x dynamo.State) LinearApproximation {
	return LinearApproximation{F: c.value(x), Dfdx: mat.DenseCopyOf(c.D)}
}
