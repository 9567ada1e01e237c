package metrics

import (
	"fmt"
	"math"
)

// PerformanceIndex summarizes a trajectory for the line search. All fields
// are sums over nodes, so indices computed on disjoint node sets combine
// with Add in any order.
type PerformanceIndex struct {
	// Merit is TotalCost + InequalityPenalty.
	Merit float64
	// TotalCost is the time-integrated running cost plus the terminal cost.
	TotalCost float64
	// DynamicsISE is Σ dt·‖φ(xᵢ,uᵢ) - xᵢ₊₁‖² plus the initial state gap.
	DynamicsISE float64
	// StateInputISE is the squared violation of the equality constraints.
	StateInputISE float64
	// InequalityISE is the squared violation of the inequality constraints.
	InequalityISE float64
	// InequalityPenalty is the time-integrated barrier penalty.
	InequalityPenalty float64
}

func (p PerformanceIndex) Add(o PerformanceIndex) PerformanceIndex {
	return PerformanceIndex{
		Merit:             p.Merit + o.Merit,
		TotalCost:         p.TotalCost + o.TotalCost,
		DynamicsISE:       p.DynamicsISE + o.DynamicsISE,
		StateInputISE:     p.StateInputISE + o.StateInputISE,
		InequalityISE:     p.InequalityISE + o.InequalityISE,
		InequalityPenalty: p.InequalityPenalty + o.InequalityPenalty,
	}
}

// Violation is the constraint violation measure used by the filter.
func (p PerformanceIndex) Violation() float64 {
	return math.Sqrt(p.DynamicsISE + p.StateInputISE + p.InequalityISE)
}

func (p PerformanceIndex) String() string {
	return fmt.Sprintf("merit=%.6g cost=%.6g dynamicsISE=%.3e stateInputISE=%.3e inequalityISE=%.3e penalty=%.6g",
		p.Merit, p.TotalCost, p.DynamicsISE, p.StateInputISE, p.InequalityISE, p.InequalityPenalty)
}
