// Package sqp implements a multiple-shooting SQP solver for nonlinear
// model predictive control.
//
// Every call to [Solver.Run] discretizes the horizon, warm-starts from the
// previous solution and iterates
//
//	transcribe → solve QP → filter line search
//
// until the step or the merit improvement is small, then stores the
// trajectories together with a feedforward or linear feedback controller.
//
// # Usage
//
//	solver, err := sqp.New(problem, sqp.DefaultSettings(), sqp.WithLogger(log))
//	defer solver.Close()
//	err = solver.Run(t, x, t+horizon, nil)
//	sol, _ := solver.PrimalSolution()
//	u := sol.Controller.Compute(x, t)
package sqp

import (
	"fmt"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/logging"
	"github.com/san-kum/mpcsqp/internal/metrics"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/parallel"
	"github.com/san-kum/mpcsqp/internal/qp"
	"github.com/san-kum/mpcsqp/internal/timegrid"
	"github.com/san-kum/mpcsqp/internal/trajectory"
	"github.com/san-kum/mpcsqp/internal/transcription"
)

// PrimalSolution is the result of one solve. Inputs is padded to the
// length of Times by repeating the last input.
type PrimalSolution struct {
	Times        []float64
	States       []dynamo.State
	Inputs       []dynamo.Control
	ModeSchedule trajectory.ModeSchedule
	Controller   dynamo.Controller
}

type Option func(*Solver)

func WithLogger(log logr.Logger) Option {
	return func(s *Solver) { s.log = log }
}

// WithBackend replaces the QP backend picked from the problem structure.
func WithBackend(b qp.Backend) Option {
	return func(s *Solver) { s.backend = b }
}

// Solver is not safe for concurrent use; it parallelizes internally.
type Solver struct {
	settings Settings
	log      logr.Logger

	exec        *parallel.Executor
	workers     []transcription.Worker
	transcriber *transcription.Transcriber
	backend     qp.Backend

	stateDim, inputDim int
	modeSchedule       trajectory.ModeSchedule

	primal          PrimalSolution
	hasPrimal       bool
	performance     []metrics.PerformanceIndex
	totalIterations int

	lqTimer, qpTimer, linesearchTimer, controllerTimer *metrics.RepeatedTimer
}

// New validates settings and problem and clones the models once per
// thread. A penalty is created from the settings when the problem has
// inequality constraints but no penalty of its own.
func New(problem ocp.Problem, settings Settings, opts ...Option) (*Solver, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if problem.Inequality != nil && problem.Penalty == nil && settings.InequalityConstraintMu > 0 {
		problem.Penalty = &ocp.RelaxedBarrierPenalty{
			Mu:    settings.InequalityConstraintMu,
			Delta: settings.InequalityConstraintDelta,
		}
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		settings:        settings,
		log:             logr.Discard(),
		stateDim:        problem.Dynamics.StateDim(),
		inputDim:        problem.Dynamics.ControlDim(),
		modeSchedule:    trajectory.DefaultModeSchedule(),
		lqTimer:         metrics.PhaseTimer(metrics.PhaseLQApproximation),
		qpTimer:         metrics.PhaseTimer(metrics.PhaseQPSolve),
		linesearchTimer: metrics.PhaseTimer(metrics.PhaseLineSearch),
		controllerTimer: metrics.PhaseTimer(metrics.PhaseController),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = defaultBackend(problem, settings)
	}

	s.workers = make([]transcription.Worker, settings.NThreads)
	for w := range s.workers {
		integ, err := integrators.NewSensitivity(settings.Integrator)
		if err != nil {
			return nil, err
		}
		s.workers[w] = transcription.Worker{Problem: problem.Clone(), Integrator: integ}
	}
	s.exec = parallel.New(settings.NThreads)
	s.transcriber = transcription.New(s.exec, s.workers, settings.ProjectStateInputEqualityConstraints)

	s.log.V(logging.VERBOSE).Info("SQP solver created",
		"threads", settings.NThreads, "integrator", settings.Integrator,
		"states", s.stateDim, "inputs", s.inputDim,
		"projection", settings.ProjectStateInputEqualityConstraints,
		"feedback", settings.ControllerFeedback)
	return s, nil
}

// defaultBackend uses the Riccati recursion whenever the QP is
// unconstrained and the dense KKT solve otherwise.
func defaultBackend(problem ocp.Problem, settings Settings) qp.Backend {
	explicitStage := problem.Equality != nil && !settings.ProjectStateInputEqualityConstraints
	if explicitStage || problem.TerminalEquality != nil {
		return qp.NewKKT()
	}
	return qp.NewRiccati()
}

func (s *Solver) Settings() Settings {
	return s.settings
}

func (s *Solver) StateDim() int { return s.stateDim }
func (s *Solver) InputDim() int { return s.inputDim }

func (s *Solver) SetModeSchedule(m trajectory.ModeSchedule) {
	s.modeSchedule = m
}

func (s *Solver) ModeSchedule() trajectory.ModeSchedule {
	return s.modeSchedule
}

// SetTargetTrajectories hands the reference to every worker's costs.
func (s *Solver) SetTargetTrajectories(targets trajectory.TargetTrajectories) error {
	if err := targets.Validate(); err != nil {
		return err
	}
	for i := range s.workers {
		s.workers[i].Problem.SetTargetTrajectories(targets)
	}
	return nil
}

// PrimalSolution returns the result of the last successful Run.
func (s *Solver) PrimalSolution() (PrimalSolution, error) {
	if !s.hasPrimal {
		return PrimalSolution{}, ErrNoSolution
	}
	return s.primal, nil
}

// IterationsLog returns the baseline performance of every iteration of
// the last Run that completed. A Run that fails leaves it unchanged.
func (s *Solver) IterationsLog() ([]metrics.PerformanceIndex, error) {
	if len(s.performance) == 0 {
		return nil, ErrNoSolution
	}
	return s.performance, nil
}

func (s *Solver) TotalIterations() int {
	return s.totalIterations
}

// Reset forgets the stored solution, the iterations log and all timers.
func (s *Solver) Reset() {
	s.primal = PrimalSolution{}
	s.hasPrimal = false
	s.performance = nil
	s.totalIterations = 0
	s.lqTimer.Reset()
	s.qpTimer.Reset()
	s.linesearchTimer.Reset()
	s.controllerTimer.Reset()
}

// Close stops the worker pool.
func (s *Solver) Close() {
	if s.settings.PrintSolverStatistics {
		s.log.Info(s.BenchmarkingInformation())
	}
	s.exec.Close()
}

// Run solves the problem on [initTime, finalTime] from initState and
// replaces the stored solution. partitioningTimes is accepted for
// compatibility with partitioned solvers and not used.
func (s *Solver) Run(initTime float64, initState dynamo.State, finalTime float64, partitioningTimes []float64) error {
	if len(initState) != s.stateDim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(initState), s.stateDim)
	}
	status := s.log.V(logging.DEBUG)
	if s.settings.PrintSolverStatus || s.settings.PrintLinesearch {
		status = s.log
	}
	status.Info("SQP solver is initialized", "initTime", initTime, "finalTime", finalTime)

	grid, err := timegrid.Build(initTime, finalTime, s.settings.Dt, s.modeSchedule.EventTimes, s.settings.EventEpsilon)
	if err != nil {
		return err
	}

	x := s.initializeStates(initState, grid)
	u := s.initializeInputs(grid, x)

	var performance []metrics.PerformanceIndex
	var sub transcription.Result
	var dx, du []*mat.VecDense
	converged := false
	for iter := 0; iter < s.settings.SqpIteration && !converged; iter++ {
		status.Info("SQP iteration", "iteration", iter)

		s.lqTimer.Start()
		sub, err = s.transcriber.Transcribe(grid, initState, x, u)
		s.lqTimer.End()
		if err != nil {
			return err
		}
		performance = append(performance, sub.Performance)

		s.qpTimer.Start()
		dx, du, err = s.solveQP(iter, initState.Sub(x[0]), sub)
		s.qpTimer.End()
		if err != nil {
			metrics.Solves.WithLabelValues("qp_failure").Inc()
			return err
		}

		s.linesearchTimer.Start()
		x, u, converged = s.takeStep(sub.Performance, grid, initState, dx, du, x, u)
		s.linesearchTimer.End()

		s.totalIterations++
		metrics.Iterations.Inc()
	}
	if converged {
		metrics.Solves.WithLabelValues("converged").Inc()
	} else {
		metrics.Solves.WithLabelValues("max_iterations").Inc()
	}

	s.controllerTimer.Start()
	sol := PrimalSolution{
		Times:        grid,
		States:       x,
		Inputs:       append(u, u[len(u)-1].Clone()),
		ModeSchedule: s.modeSchedule,
	}
	sol.Controller, err = s.computeController(sol, sub)
	s.controllerTimer.End()
	if err != nil {
		return err
	}

	s.primal = sol
	s.hasPrimal = true
	s.performance = performance
	status.Info("SQP solver has terminated", "iterations", len(performance), "converged", converged,
		"performance", performance[len(performance)-1].String())
	return nil
}

// solveQP solves the subproblem and maps projected input steps back to
// the full input: du = Pu·dũ + Px·dx + u0.
func (s *Solver) solveQP(iter int, dx0 dynamo.State, sub transcription.Result) ([]*mat.VecDense, []*mat.VecDense, error) {
	var constraints []*ocp.LinearApproximation
	if sub.HasConstraints() {
		constraints = sub.Constraints
	}
	s.backend.Resize(sub.Size())

	sol, status := s.backend.Solve(dx0.Vec(), sub.Dynamics, sub.Cost, constraints)
	if status != qp.Success {
		return nil, nil, &QPError{Iteration: iter, Status: status}
	}

	du := sol.InputDeltas
	for i, proj := range sub.Projections {
		if proj == nil {
			continue
		}
		full := mat.VecDenseCopyOf(proj.F)
		var tmp mat.VecDense
		tmp.MulVec(proj.Dfdu, du[i])
		full.AddVec(full, &tmp)
		tmp.Reset()
		tmp.MulVec(proj.Dfdx, sol.StateDeltas[i])
		full.AddVec(full, &tmp)
		du[i] = full
	}
	return sol.StateDeltas, du, nil
}
