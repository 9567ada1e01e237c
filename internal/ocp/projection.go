package ocp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// rankTol is the relative size below which a diagonal entry of R marks
// the equality jacobian as rank deficient.
const rankTol = 1e-10

// ProjectEquality parameterizes every input deviation that satisfies the
// linearized equality C·du + D·dx + e = 0 as
//
//	du = Pu·ũ + Px·dx + u0
//
// using a QR factorization of Cᵀ = [Q1 Q2]·[R1; 0]: Pu = Q2 spans the
// null space of C and Px, u0 = -Q1·R1⁻ᵀ·(D, e) is the minimum-norm
// particular solution. The result is returned as a LinearApproximation
// with F = u0, Dfdx = Px and Dfdu = Pu.
func ProjectEquality(c LinearApproximation) (LinearApproximation, error) {
	p, m := c.Dfdu.Dims()
	_, n := c.Dfdx.Dims()
	if p >= m {
		return LinearApproximation{}, fmt.Errorf("%w: %d constraints on %d inputs", ErrOverconstrained, p, m)
	}

	var qr mat.QR
	qr.Factorize(c.Dfdu.T())
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	scale := 0.0
	for i := 0; i < p; i++ {
		scale = math.Max(scale, math.Abs(r.At(i, i)))
	}
	for i := 0; i < p; i++ {
		if math.Abs(r.At(i, i)) <= rankTol*math.Max(scale, 1) {
			return LinearApproximation{}, ErrSingular
		}
	}
	r1 := r.Slice(0, p, 0, p)

	rhs := mat.NewDense(p, n+1, nil)
	rhs.Slice(0, p, 0, n).(*mat.Dense).Copy(c.Dfdx)
	rhs.Slice(0, p, n, n+1).(*mat.Dense).Copy(c.F)

	var y mat.Dense
	if err := y.Solve(r1.T(), rhs); err != nil {
		return LinearApproximation{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var particular mat.Dense
	particular.Mul(q.Slice(0, m, 0, p), &y)
	particular.Scale(-1, &particular)

	u0 := mat.NewVecDense(m, nil)
	u0.CopyVec(particular.ColView(n))
	return LinearApproximation{
		F:    u0,
		Dfdx: mat.DenseCopyOf(particular.Slice(0, m, 0, n)),
		Dfdu: mat.DenseCopyOf(q.Slice(0, m, p, m)),
	}, nil
}

// ProjectDynamics rewrites dx⁺ = A·dx + B·du + b in the projected inputs.
func ProjectDynamics(dyn, proj LinearApproximation) LinearApproximation {
	out := LinearApproximation{
		F:    mat.VecDenseCopyOf(dyn.F),
		Dfdx: mat.DenseCopyOf(dyn.Dfdx),
		Dfdu: &mat.Dense{},
	}
	var tmp mat.Dense
	tmp.Mul(dyn.Dfdu, proj.Dfdx)
	out.Dfdx.Add(out.Dfdx, &tmp)
	out.Dfdu.Mul(dyn.Dfdu, proj.Dfdu)

	var bu0 mat.VecDense
	bu0.MulVec(dyn.Dfdu, proj.F)
	out.F.AddVec(out.F, &bu0)
	return out
}

// ProjectCost rewrites a quadratic cost model in the projected inputs.
func ProjectCost(cost QuadraticApproximation, proj LinearApproximation) QuadraticApproximation {
	pu, px, u0 := proj.Dfdu, proj.Dfdx, proj.F
	r, pux := cost.Dfduu, cost.Dfdux

	var rpu, rpx mat.Dense
	rpu.Mul(r, pu)
	rpx.Mul(r, px)

	out := QuadraticApproximation{
		Dfdx:  mat.VecDenseCopyOf(cost.Dfdx),
		Dfdu:  &mat.VecDense{},
		Dfdxx: mat.DenseCopyOf(cost.Dfdxx),
		Dfduu: &mat.Dense{},
		Dfdux: &mat.Dense{},
	}

	out.Dfduu.Mul(pu.T(), &rpu)

	var mixed mat.Dense
	mixed.Add(pux, &rpx)
	out.Dfdux.Mul(pu.T(), &mixed)

	var tmp mat.Dense
	tmp.Mul(px.T(), &rpx)
	out.Dfdxx.Add(out.Dfdxx, &tmp)
	tmp.Reset()
	tmp.Mul(px.T(), pux)
	out.Dfdxx.Add(out.Dfdxx, &tmp)
	out.Dfdxx.Add(out.Dfdxx, tmp.T())

	// r + R·u0 is the input gradient at the particular solution.
	var grad mat.VecDense
	grad.MulVec(r, u0)
	grad.AddVec(&grad, cost.Dfdu)

	out.Dfdu.MulVec(pu.T(), &grad)

	var vtmp mat.VecDense
	vtmp.MulVec(px.T(), &grad)
	out.Dfdx.AddVec(out.Dfdx, &vtmp)
	vtmp.Reset()
	vtmp.MulVec(pux.T(), u0)
	out.Dfdx.AddVec(out.Dfdx, &vtmp)

	out.F = cost.F + mat.Dot(cost.Dfdu, u0) + 0.5*mat.Inner(u0, r, u0)
	return out
}
