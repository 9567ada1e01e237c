// Package mpc closes the loop around the SQP solver: it re-solves the
// optimal control problem from the measured state once per period and
// serves inputs from the latest policy in between.
package mpc

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/mpcsqp/internal/control"
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/logging"
	"github.com/san-kum/mpcsqp/internal/metrics"
	"github.com/san-kum/mpcsqp/internal/sqp"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

var ErrInvalidSettings = errors.New("mpc: invalid settings")

// periodEpsilon absorbs the rounding of accumulated simulation time.
const periodEpsilon = 1e-9

type Settings struct {
	// Horizon is the length of every optimal control problem.
	Horizon float64 `yaml:"horizon"`
	// Period is the time between two solves.
	Period float64 `yaml:"period"`
}

func DefaultSettings() Settings {
	return Settings{Horizon: 1.0, Period: 0.05}
}

func (s Settings) Validate() error {
	var errs []error
	if s.Horizon <= 0 {
		errs = append(errs, fmt.Errorf("horizon must be positive, got %g", s.Horizon))
	}
	if s.Period <= 0 || s.Period > s.Horizon {
		errs = append(errs, fmt.Errorf("period must be in (0, horizon], got %g", s.Period))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

type Option func(*MPC)

func WithLogger(log logr.Logger) Option {
	return func(m *MPC) { m.log = log }
}

// WithFallback sets the policy used while no solve has succeeded yet.
// The default applies zero input.
func WithFallback(c dynamo.Controller) Option {
	return func(m *MPC) {
		if c != nil {
			m.fallback = c
		}
	}
}

// MPC implements dynamo.Controller. A failed solve keeps the previous
// policy, which the solver's controllers extend past their horizon by
// holding the last input.
type MPC struct {
	solver   *sqp.Solver
	settings Settings
	log      logr.Logger

	fallback   dynamo.Controller
	controller dynamo.Controller
	lastUpdate float64
	started    bool

	updates, failures int
}

func New(solver *sqp.Solver, settings Settings, opts ...Option) (*MPC, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	m := &MPC{
		solver:   solver,
		settings: settings,
		log:      logr.Discard(),
		fallback: control.NewNone(solver.InputDim()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *MPC) Solver() *sqp.Solver {
	return m.solver
}

func (m *MPC) SetTargetTrajectories(targets trajectory.TargetTrajectories) error {
	return m.solver.SetTargetTrajectories(targets)
}

// Update solves from x at time t. On failure the current policy is kept
// and the error is returned.
func (m *MPC) Update(x dynamo.State, t float64) error {
	m.lastUpdate = t
	m.started = true
	m.updates++

	if err := m.solver.Run(t, x, t+m.settings.Horizon, nil); err != nil {
		m.failures++
		metrics.ControllerFallbacks.Inc()
		m.log.Error(err, "MPC update failed, keeping the previous controller", "time", t)
		return err
	}
	sol, err := m.solver.PrimalSolution()
	if err != nil {
		return err
	}
	m.controller = sol.Controller
	m.log.V(logging.DEBUG).Info("MPC updated", "time", t, "nodes", len(sol.Times))
	return nil
}

// Compute re-solves when a period has elapsed since the last update.
func (m *MPC) Compute(x dynamo.State, t float64) dynamo.Control {
	if !m.started || t-m.lastUpdate >= m.settings.Period-periodEpsilon {
		// Update has logged and counted a failure; the current policy stays.
		_ = m.Update(x, t)
	}
	if m.controller != nil {
		return m.controller.Compute(x, t)
	}
	return m.fallback.Compute(x, t)
}

// Stats reports the number of updates and how many of them failed.
func (m *MPC) Stats() (updates, failures int) {
	return m.updates, m.failures
}

func (m *MPC) Reset() {
	m.solver.Reset()
	m.controller = nil
	m.started = false
	m.updates, m.failures = 0, 0
}
