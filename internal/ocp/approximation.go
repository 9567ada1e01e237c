package ocp

import (
	"gonum.org/v1/gonum/mat"
)

// LinearApproximation is a first-order model f + Dfdx·dx + Dfdu·du of a
// vector function. Dfdu is nil for state-only functions.
type LinearApproximation struct {
	F    *mat.VecDense
	Dfdx *mat.Dense
	Dfdu *mat.Dense
}

// NumInputs returns the input dimension, zero for state-only models.
func (l LinearApproximation) NumInputs() int {
	if l.Dfdu == nil {
		return 0
	}
	_, m := l.Dfdu.Dims()
	return m
}

func (l LinearApproximation) Rows() int {
	if l.F == nil {
		return 0
	}
	return l.F.Len()
}

// QuadraticApproximation is a second-order model of a scalar function:
//
//	F + Dfdxᵀdx + Dfduᵀdu + ½dxᵀDfdxx·dx + ½duᵀDfduu·du + duᵀDfdux·dx
//
// Input terms are nil for state-only functions. Dfdux is m×n.
type QuadraticApproximation struct {
	F     float64
	Dfdx  *mat.VecDense
	Dfdu  *mat.VecDense
	Dfdxx *mat.Dense
	Dfduu *mat.Dense
	Dfdux *mat.Dense
}

// NewQuadraticApproximation returns a zero model; m == 0 leaves the input
// terms nil.
func NewQuadraticApproximation(n, m int) QuadraticApproximation {
	q := QuadraticApproximation{
		Dfdx:  mat.NewVecDense(n, nil),
		Dfdxx: mat.NewDense(n, n, nil),
	}
	if m > 0 {
		q.Dfdu = mat.NewVecDense(m, nil)
		q.Dfduu = mat.NewDense(m, m, nil)
		q.Dfdux = mat.NewDense(m, n, nil)
	}
	return q
}

func (q QuadraticApproximation) NumInputs() int {
	if q.Dfdu == nil {
		return 0
	}
	return q.Dfdu.Len()
}

// Scale multiplies every term by alpha in place.
func (q *QuadraticApproximation) Scale(alpha float64) {
	q.F *= alpha
	q.Dfdx.ScaleVec(alpha, q.Dfdx)
	q.Dfdxx.Scale(alpha, q.Dfdxx)
	if q.Dfdu != nil {
		q.Dfdu.ScaleVec(alpha, q.Dfdu)
		q.Dfduu.Scale(alpha, q.Dfduu)
		q.Dfdux.Scale(alpha, q.Dfdux)
	}
}

// AddScaled adds alpha·o in place. Input terms of o are ignored when q has
// none.
func (q *QuadraticApproximation) AddScaled(alpha float64, o QuadraticApproximation) {
	q.F += alpha * o.F
	q.Dfdx.AddScaledVec(q.Dfdx, alpha, o.Dfdx)
	addScaled(q.Dfdxx, alpha, o.Dfdxx)
	if q.Dfdu != nil && o.Dfdu != nil {
		q.Dfdu.AddScaledVec(q.Dfdu, alpha, o.Dfdu)
		addScaled(q.Dfduu, alpha, o.Dfduu)
		addScaled(q.Dfdux, alpha, o.Dfdux)
	}
}

func addScaled(dst *mat.Dense, alpha float64, m mat.Matrix) {
	var tmp mat.Dense
	tmp.Scale(alpha, m)
	dst.Add(dst, &tmp)
}

// Evaluate returns the model value at the deviation (dx, du); du may be
// nil for state-only models.
func (q QuadraticApproximation) Evaluate(dx, du mat.Vector) float64 {
	v := q.F + mat.Dot(q.Dfdx, dx) + 0.5*mat.Inner(dx, q.Dfdxx, dx)
	if du != nil && q.Dfdu != nil {
		v += mat.Dot(q.Dfdu, du) + 0.5*mat.Inner(du, q.Dfduu, du) + mat.Inner(du, q.Dfdux, dx)
	}
	return v
}
