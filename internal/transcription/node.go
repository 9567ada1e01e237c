// Package transcription turns one interval of the multiple-shooting
// discretization into the linear-quadratic data of the SQP subproblem,
// and evaluates the true nonlinear performance of a trajectory.
package transcription

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/metrics"
	"github.com/san-kum/mpcsqp/internal/ocp"
)

// IntermediateNode is the subproblem data of interval [t, t+dt].
//
// When the equality constraint is projected, Dynamics and Cost are
// expressed in the reduced input ũ, Projection holds du = Pu·ũ + Px·dx + u0
// and Constraint is nil. Otherwise Constraint holds the linearized
// equality, if any.
type IntermediateNode struct {
	Dynamics    ocp.LinearApproximation
	Cost        ocp.QuadraticApproximation
	Constraint  *ocp.LinearApproximation
	Projection  *ocp.LinearApproximation
	Performance metrics.PerformanceIndex
}

// SetupIntermediateNode linearizes the dynamics, approximates the cost and
// the penalized inequalities to second order and handles the equality
// constraint of one interval. The dynamics offset is the shooting gap
// φ(x, u) - xNext.
func SetupIntermediateNode(p ocp.Problem, integ integrators.Sensitivity, project bool, t, dt float64, x, xNext dynamo.State, u dynamo.Control) (IntermediateNode, error) {
	var node IntermediateNode

	next, a, b := integ.StepSensitivity(p.Dynamics, x, u, t, dt)
	gap := next.Sub(xNext)
	node.Dynamics = ocp.LinearApproximation{F: gap.Vec(), Dfdx: a, Dfdu: b}
	node.Performance.DynamicsISE = dt * gap.SquaredNorm()

	node.Cost = p.Cost.QuadraticApproximation(t, x, u)
	node.Cost.Scale(dt)
	node.Performance.TotalCost = node.Cost.F

	if p.Inequality != nil && p.Penalty != nil {
		h := p.Inequality.LinearApproximation(t, x, u)
		if h.Rows() > 0 {
			penalty := p.Penalty.QuadraticApproximation(h)
			node.Cost.AddScaled(dt, penalty)
			node.Performance.InequalityPenalty = dt * penalty.F
			node.Performance.InequalityISE = dt * ocp.Violation(dynamo.StateFromVec(h.F))
		}
	}

	if p.Equality != nil {
		c := p.Equality.LinearApproximation(t, x, u)
		if c.Rows() > 0 {
			node.Performance.StateInputISE = dt * mat.Dot(c.F, c.F)
			if project {
				proj, err := ocp.ProjectEquality(c)
				if err != nil {
					return node, fmt.Errorf("transcription: projecting equality at t=%g: %w", t, err)
				}
				node.Dynamics = ocp.ProjectDynamics(node.Dynamics, proj)
				node.Cost = ocp.ProjectCost(node.Cost, proj)
				node.Projection = &proj
			} else {
				node.Constraint = &c
			}
		}
	}

	node.Performance.Merit = node.Performance.TotalCost + node.Performance.InequalityPenalty
	return node, nil
}

// IntermediatePerformance evaluates one interval on the nonlinear models
// without linearizing.
func IntermediatePerformance(p ocp.Problem, integ dynamo.Integrator, t, dt float64, x, xNext dynamo.State, u dynamo.Control) metrics.PerformanceIndex {
	var perf metrics.PerformanceIndex

	gap := integ.Step(p.Dynamics, x, u, t, dt).Sub(xNext)
	perf.DynamicsISE = dt * gap.SquaredNorm()
	perf.TotalCost = dt * p.Cost.Value(t, x, u)

	if p.Equality != nil {
		perf.StateInputISE = dt * squaredNorm(p.Equality.Value(t, x, u))
	}
	if p.Inequality != nil && p.Penalty != nil {
		h := p.Inequality.Value(t, x, u)
		perf.InequalityPenalty = dt * p.Penalty.Total(h)
		perf.InequalityISE = dt * ocp.Violation(h)
	}

	perf.Merit = perf.TotalCost + perf.InequalityPenalty
	return perf
}

// TerminalNode holds the terminal cost model and the optional terminal
// state equality.
type TerminalNode struct {
	Cost        ocp.QuadraticApproximation
	Constraint  *ocp.LinearApproximation
	Performance metrics.PerformanceIndex
}

func SetupTerminalNode(p ocp.Problem, t float64, x dynamo.State) TerminalNode {
	var node TerminalNode
	if p.TerminalCost != nil {
		node.Cost = p.TerminalCost.QuadraticApproximation(t, x)
	} else {
		node.Cost = ocp.NewQuadraticApproximation(len(x), 0)
	}
	node.Performance.TotalCost = node.Cost.F

	if p.TerminalEquality != nil {
		c := p.TerminalEquality.LinearApproximation(t, x)
		if c.Rows() > 0 {
			node.Constraint = &c
			node.Performance.StateInputISE = mat.Dot(c.F, c.F)
		}
	}
	node.Performance.Merit = node.Performance.TotalCost
	return node
}

func TerminalPerformance(p ocp.Problem, t float64, x dynamo.State) metrics.PerformanceIndex {
	var perf metrics.PerformanceIndex
	if p.TerminalCost != nil {
		perf.TotalCost = p.TerminalCost.Value(t, x)
	}
	if p.TerminalEquality != nil {
		perf.StateInputISE = squaredNorm(p.TerminalEquality.Value(t, x))
	}
	perf.Merit = perf.TotalCost
	return perf
}

func squaredNorm(v []float64) float64 {
	sum := 0.0
	for _, e := range v {
		sum += e * e
	}
	return sum
}
