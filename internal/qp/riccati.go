package qp

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/ocp"
)

var ErrConstrained = errors.New("qp: riccati backend does not accept explicit constraints")

// Riccati solves unconstrained subproblems by a backward Riccati sweep
// followed by a forward rollout of duᵢ = Kᵢ·dxᵢ + kᵢ. It is exact for
// problems whose input hessians stay positive definite.
type Riccati struct {
	k []*mat.VecDense
	K []*mat.Dense
}

func NewRiccati() *Riccati {
	return &Riccati{}
}

func (r *Riccati) Resize(size OcpSize) {
	if cap(r.K) < size.N {
		r.K = make([]*mat.Dense, size.N)
		r.k = make([]*mat.VecDense, size.N)
	}
	r.K = r.K[:size.N]
	r.k = r.k[:size.N]
}

func (r *Riccati) Solve(dx0 *mat.VecDense, dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) (Solution, Status) {
	if hasConstraints(constraints) {
		return Solution{}, Unsupported
	}
	if len(r.K) != len(dynamics) {
		r.Resize(OcpSize{N: len(dynamics)})
	}
	if status := r.backward(dynamics, cost); status != Success {
		return Solution{}, status
	}

	n := len(dynamics)
	sol := Solution{
		StateDeltas: make([]*mat.VecDense, n+1),
		InputDeltas: make([]*mat.VecDense, n),
	}
	sol.StateDeltas[0] = mat.VecDenseCopyOf(dx0)
	for i := 0; i < n; i++ {
		du := &mat.VecDense{}
		du.MulVec(r.K[i], sol.StateDeltas[i])
		du.AddVec(du, r.k[i])
		sol.InputDeltas[i] = du

		next := mat.VecDenseCopyOf(dynamics[i].F)
		var tmp mat.VecDense
		tmp.MulVec(dynamics[i].Dfdx, sol.StateDeltas[i])
		next.AddVec(next, &tmp)
		tmp.Reset()
		tmp.MulVec(dynamics[i].Dfdu, du)
		next.AddVec(next, &tmp)
		sol.StateDeltas[i+1] = next
	}

	if hasNonFinite(sol) {
		return sol, NaNSolution
	}
	return sol, Success
}

// FeedbackGains returns the Kᵢ of the unconstrained problem.
func (r *Riccati) FeedbackGains(dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) ([]*mat.Dense, error) {
	if hasConstraints(constraints) {
		return nil, ErrConstrained
	}
	if len(r.K) != len(dynamics) {
		r.Resize(OcpSize{N: len(dynamics)})
	}
	if status := r.backward(dynamics, cost); status != Success {
		return nil, &StatusError{Status: status}
	}
	gains := make([]*mat.Dense, len(r.K))
	for i, k := range r.K {
		gains[i] = mat.DenseCopyOf(k)
	}
	return gains, nil
}

// backward runs the Riccati recursion
//
//	H = R + BᵀSB,  G = P + BᵀSA,  g = r + Bᵀ(s + Sb)
//	K = -H⁻¹G,     k = -H⁻¹g
//	S ← Q + AᵀSA + GᵀK,  s ← q + Aᵀ(s + Sb) + Gᵀk
func (r *Riccati) backward(dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation) Status {
	n := len(dynamics)
	S := mat.DenseCopyOf(cost[n].Dfdxx)
	s := mat.VecDenseCopyOf(cost[n].Dfdx)

	for i := n - 1; i >= 0; i-- {
		a, b, gap := dynamics[i].Dfdx, dynamics[i].Dfdu, dynamics[i].F
		c := cost[i]

		var sb mat.VecDense
		sb.MulVec(S, gap)
		sb.AddVec(&sb, s)

		var sa, sB mat.Dense
		sa.Mul(S, a)
		sB.Mul(S, b)

		var h, g mat.Dense
		h.Mul(b.T(), &sB)
		h.Add(&h, c.Dfduu)
		g.Mul(b.T(), &sa)
		g.Add(&g, c.Dfdux)

		var grad mat.VecDense
		grad.MulVec(b.T(), &sb)
		grad.AddVec(&grad, c.Dfdu)

		var chol mat.Cholesky
		if ok := chol.Factorize(symmetric(&h)); !ok {
			return Indefinite
		}

		K := &mat.Dense{}
		if err := chol.SolveTo(K, &g); err != nil {
			return Indefinite
		}
		K.Scale(-1, K)
		k := &mat.VecDense{}
		if err := chol.SolveVecTo(k, &grad); err != nil {
			return Indefinite
		}
		k.ScaleVec(-1, k)
		r.K[i], r.k[i] = K, k

		nextS := mat.DenseCopyOf(c.Dfdxx)
		var tmp mat.Dense
		tmp.Mul(a.T(), &sa)
		nextS.Add(nextS, &tmp)
		tmp.Reset()
		tmp.Mul(g.T(), K)
		nextS.Add(nextS, &tmp)
		S = symmetrize(nextS)

		nextSv := mat.VecDenseCopyOf(c.Dfdx)
		var vtmp mat.VecDense
		vtmp.MulVec(a.T(), &sb)
		nextSv.AddVec(nextSv, &vtmp)
		vtmp.Reset()
		vtmp.MulVec(g.T(), k)
		nextSv.AddVec(nextSv, &vtmp)
		s = nextSv
	}
	return Success
}

// symmetric returns ½(m + mᵀ) as a symmetric matrix.
func symmetric(m *mat.Dense) mat.Symmetric {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return sym
}

func symmetrize(m *mat.Dense) *mat.Dense {
	n, _ := m.Dims()
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return out
}

// StatusError reports a subproblem that did not end in Success.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "qp: subproblem failed: " + e.Status.String()
}
