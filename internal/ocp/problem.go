// Package ocp describes the continuous-time optimal control problem the
// solver transcribes: dynamics, running and terminal costs, equality and
// inequality constraints, a penalty for the inequalities and an optional
// operating-trajectory heuristic.
//
// Every model is cloned once per worker, so implementations may keep
// scratch state as long as Clone returns an independent copy.
package ocp

import (
	"errors"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

var (
	ErrMissingDynamics = errors.New("ocp: problem has no dynamics")
	ErrMissingCost     = errors.New("ocp: problem has no cost")
	ErrNoPenalty       = errors.New("ocp: inequality constraints need a penalty")
	ErrOverconstrained = errors.New("ocp: equality constraints leave no free input")
	ErrSingular        = errors.New("ocp: equality constraint jacobian is rank deficient")
)

type Dynamics interface {
	dynamo.Linearizer
	Clone() Dynamics
}

type Cost interface {
	Clone() Cost
	Value(t float64, x dynamo.State, u dynamo.Control) float64
	QuadraticApproximation(t float64, x dynamo.State, u dynamo.Control) QuadraticApproximation
}

type TerminalCost interface {
	Clone() TerminalCost
	Value(t float64, x dynamo.State) float64
	QuadraticApproximation(t float64, x dynamo.State) QuadraticApproximation
}

// TargetTracker is implemented by costs that follow a reference.
type TargetTracker interface {
	SetTargetTrajectories(trajectory.TargetTrajectories)
}

// StateInputConstraint is a vector function g(t, x, u). Used as an
// equality it must vanish; used as an inequality it must be non-negative.
type StateInputConstraint interface {
	Clone() StateInputConstraint
	Value(t float64, x dynamo.State, u dynamo.Control) []float64
	LinearApproximation(t float64, x dynamo.State, u dynamo.Control) LinearApproximation
}

type StateConstraint interface {
	Clone() StateConstraint
	Value(t float64, x dynamo.State) []float64
	LinearApproximation(t float64, x dynamo.State) LinearApproximation
}

// OperatingTrajectories guesses states and inputs for a time span no
// previous solution covers.
type OperatingTrajectories interface {
	Clone() OperatingTrajectories
	Query(x dynamo.State, t0, t1 float64) (times []float64, states []dynamo.State, inputs []dynamo.Control)
}

// Problem bundles the models of one optimal control problem. Only Dynamics
// and Cost are required.
type Problem struct {
	Dynamics         Dynamics
	Cost             Cost
	TerminalCost     TerminalCost
	Equality         StateInputConstraint
	Inequality       StateInputConstraint
	TerminalEquality StateConstraint
	Penalty          *RelaxedBarrierPenalty
	Operating        OperatingTrajectories
}

// Clone deep-copies every model so the copy can be used by another worker.
func (p Problem) Clone() Problem {
	c := Problem{Penalty: p.Penalty}
	if p.Dynamics != nil {
		c.Dynamics = p.Dynamics.Clone()
	}
	if p.Cost != nil {
		c.Cost = p.Cost.Clone()
	}
	if p.TerminalCost != nil {
		c.TerminalCost = p.TerminalCost.Clone()
	}
	if p.Equality != nil {
		c.Equality = p.Equality.Clone()
	}
	if p.Inequality != nil {
		c.Inequality = p.Inequality.Clone()
	}
	if p.TerminalEquality != nil {
		c.TerminalEquality = p.TerminalEquality.Clone()
	}
	if p.Operating != nil {
		c.Operating = p.Operating.Clone()
	}
	return c
}

func (p Problem) Validate() error {
	var errs []error
	if p.Dynamics == nil {
		errs = append(errs, ErrMissingDynamics)
	}
	if p.Cost == nil {
		errs = append(errs, ErrMissingCost)
	}
	if p.Inequality != nil && p.Penalty == nil {
		errs = append(errs, ErrNoPenalty)
	}
	if p.Penalty != nil {
		if err := p.Penalty.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetTargetTrajectories forwards targets to every cost that tracks them.
func (p Problem) SetTargetTrajectories(targets trajectory.TargetTrajectories) {
	if tr, ok := p.Cost.(TargetTracker); ok {
		tr.SetTargetTrajectories(targets)
	}
	if tr, ok := p.TerminalCost.(TargetTracker); ok {
		tr.SetTargetTrajectories(targets)
	}
}
