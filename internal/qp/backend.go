// Package qp solves the linear-quadratic subproblem of one SQP iteration.
//
// The subproblem is
//
//	min  Σᵢ qᵢ(dxᵢ, duᵢ) + q_N(dx_N)
//	s.t. dx₀ = dx0
//	     dxᵢ₊₁ = Aᵢ·dxᵢ + Bᵢ·duᵢ + bᵢ
//	     Cᵢ·duᵢ + Dᵢ·dxᵢ + eᵢ = 0   (optional, per node)
//
// A [Backend] returns the primal deviations and, on request, the
// time-varying feedback gains of the unconstrained problem.
package qp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/ocp"
)

type Status int

const (
	Success Status = iota
	MaxIterations
	MinStep
	NaNSolution
	Inconsistent
	Indefinite
	Unsupported
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case MaxIterations:
		return "max_iterations"
	case MinStep:
		return "min_step"
	case NaNSolution:
		return "nan_solution"
	case Inconsistent:
		return "inconsistent"
	case Indefinite:
		return "indefinite"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// OcpSize describes the dimensions of a subproblem with N intervals.
// NumStates has N+1 entries, NumInputs and NumEquality have N (terminal
// equality constraints are counted in NumTerminalEquality).
type OcpSize struct {
	N                   int
	NumStates           []int
	NumInputs           []int
	NumEquality         []int
	NumTerminalEquality int
}

// Solution holds the primal deviations: N+1 state and N input vectors.
type Solution struct {
	StateDeltas []*mat.VecDense
	InputDeltas []*mat.VecDense
}

// Backend solves one subproblem. dynamics and constraints have one entry
// per interval, cost has N+1; constraints may be nil or contain nil
// entries, its optional entry N constrains the terminal state.
type Backend interface {
	Resize(size OcpSize)
	Solve(dx0 *mat.VecDense, dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) (Solution, Status)
	FeedbackGains(dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) ([]*mat.Dense, error)
}

func hasConstraints(constraints []*ocp.LinearApproximation) bool {
	for _, c := range constraints {
		if c != nil {
			return true
		}
	}
	return false
}

func hasNonFinite(sol Solution) bool {
	for _, vs := range [][]*mat.VecDense{sol.StateDeltas, sol.InputDeltas} {
		for _, v := range vs {
			if s := mat.Sum(v); math.IsNaN(s) || math.IsInf(s, 0) {
				return true
			}
		}
	}
	return false
}
