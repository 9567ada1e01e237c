package transcription

import (
	"errors"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/metrics"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/parallel"
	"github.com/san-kum/mpcsqp/internal/qp"
)

// Worker is the model set owned by one executor thread.
type Worker struct {
	Problem    ocp.Problem
	Integrator integrators.Sensitivity
}

// Transcriber sets up the subproblem of a whole trajectory on a
// parallel.Executor. Worker w only ever touches Workers[w].
type Transcriber struct {
	exec    *parallel.Executor
	workers []Worker
	project bool
}

// New needs one worker per executor thread.
func New(exec *parallel.Executor, workers []Worker, project bool) *Transcriber {
	if len(workers) != exec.Threads() {
		panic("transcription: need one worker per executor thread")
	}
	return &Transcriber{exec: exec, workers: workers, project: project}
}

// Result is the subproblem of one SQP iteration. Dynamics, Projections
// and Constraints[:N] are per interval, Cost has N+1 entries and
// Constraints[N] is the terminal equality.
type Result struct {
	Dynamics    []ocp.LinearApproximation
	Cost        []ocp.QuadraticApproximation
	Constraints []*ocp.LinearApproximation
	Projections []*ocp.LinearApproximation
	Performance metrics.PerformanceIndex
}

// HasConstraints reports whether any node hands an explicit constraint to
// the QP.
func (r Result) HasConstraints() bool {
	for _, c := range r.Constraints {
		if c != nil {
			return true
		}
	}
	return false
}

// Size derives the QP dimensions, counting reduced inputs under
// projection.
func (r Result) Size() qp.OcpSize {
	n := len(r.Dynamics)
	size := qp.OcpSize{
		N:           n,
		NumStates:   make([]int, n+1),
		NumInputs:   make([]int, n),
		NumEquality: make([]int, n),
	}
	for i, d := range r.Dynamics {
		_, size.NumStates[i] = d.Dfdx.Dims()
		size.NumInputs[i] = d.NumInputs()
		if c := r.Constraints[i]; c != nil {
			size.NumEquality[i] = c.Rows()
		}
	}
	size.NumStates[n], _ = r.Dynamics[n-1].Dfdx.Dims()
	if c := r.Constraints[n]; c != nil {
		size.NumTerminalEquality = c.Rows()
	}
	return size
}

// Transcribe linearizes every interval of (grid, x, u) around the current
// iterate. len(x) == len(grid) and len(u) >= len(grid)-1. The gap between
// initState and x[0] is added to the dynamics ISE once.
func (tr *Transcriber) Transcribe(grid []float64, initState dynamo.State, x []dynamo.State, u []dynamo.Control) (Result, error) {
	n := len(grid) - 1
	res := Result{
		Dynamics:    make([]ocp.LinearApproximation, n),
		Cost:        make([]ocp.QuadraticApproximation, n+1),
		Constraints: make([]*ocp.LinearApproximation, n+1),
		Projections: make([]*ocp.LinearApproximation, n),
	}
	perf := make([]metrics.PerformanceIndex, n+1)
	errs := make([]error, n)

	tr.exec.ForEach(n+1, func(worker, i int) {
		w := &tr.workers[worker]
		if i == n {
			term := SetupTerminalNode(w.Problem, grid[n], x[n])
			res.Cost[n] = term.Cost
			res.Constraints[n] = term.Constraint
			perf[n] = term.Performance
			return
		}
		node, err := SetupIntermediateNode(w.Problem, w.Integrator, tr.project, grid[i], grid[i+1]-grid[i], x[i], x[i+1], u[i])
		if err != nil {
			errs[i] = err
			return
		}
		res.Dynamics[i] = node.Dynamics
		res.Cost[i] = node.Cost
		res.Constraints[i] = node.Constraint
		res.Projections[i] = node.Projection
		perf[i] = node.Performance
	})

	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}
	res.Performance = sum(perf, initState, x[0])
	return res, nil
}

// Evaluate computes the performance of (grid, x, u) on the nonlinear
// models.
func (tr *Transcriber) Evaluate(grid []float64, initState dynamo.State, x []dynamo.State, u []dynamo.Control) metrics.PerformanceIndex {
	n := len(grid) - 1
	perf := make([]metrics.PerformanceIndex, n+1)

	tr.exec.ForEach(n+1, func(worker, i int) {
		w := &tr.workers[worker]
		if i == n {
			perf[n] = TerminalPerformance(w.Problem, grid[n], x[n])
			return
		}
		perf[i] = IntermediatePerformance(w.Problem, w.Integrator, grid[i], grid[i+1]-grid[i], x[i], x[i+1], u[i])
	})
	return sum(perf, initState, x[0])
}

// sum adds the node contributions in index order so the total does not
// depend on which worker evaluated which node.
func sum(perf []metrics.PerformanceIndex, initState, x0 dynamo.State) metrics.PerformanceIndex {
	total := metrics.PerformanceIndex{DynamicsISE: initState.Sub(x0).SquaredNorm()}
	for _, p := range perf {
		total = total.Add(p)
	}
	return total
}
