package sqp

import (
	"errors"
	"fmt"

	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/timegrid"
)

const (
	DefaultSqpIteration = 10
	DefaultDeltaTol     = 1e-6
	DefaultGMax         = 1e6
	DefaultGMin         = 1e-6
	DefaultGammaC       = 1e-6
	DefaultAlphaDecay   = 0.5
	DefaultAlphaMin     = 1e-4
	DefaultCostTol      = 1e-4
	DefaultDt           = 0.01
	DefaultThreads      = 4
)

// Settings configures one solver instance. It is read once by New.
type Settings struct {
	// SqpIteration bounds the number of outer iterations per Run.
	SqpIteration int `yaml:"sqpIteration"`

	// Line search
	DeltaTol   float64 `yaml:"deltaTol"`
	GMax       float64 `yaml:"g_max"`
	GMin       float64 `yaml:"g_min"`
	GammaC     float64 `yaml:"gamma_c"`
	AlphaDecay float64 `yaml:"alpha_decay"`
	AlphaMin   float64 `yaml:"alpha_min"`
	CostTol    float64 `yaml:"costTol"`

	// Discretization
	Dt           float64 `yaml:"dt"`
	EventEpsilon float64 `yaml:"eventEpsilon"`
	Integrator   string  `yaml:"integratorType"`

	NThreads int `yaml:"nThreads"`

	ProjectStateInputEqualityConstraints bool `yaml:"projectStateInputEqualityConstraints"`
	ControllerFeedback                   bool `yaml:"useFeedbackPolicy"`

	// Relaxed barrier for inequality constraints; Mu == 0 disables it.
	InequalityConstraintMu    float64 `yaml:"inequalityConstraintMu"`
	InequalityConstraintDelta float64 `yaml:"inequalityConstraintDelta"`

	PrintSolverStatus     bool `yaml:"printSolverStatus"`
	PrintSolverStatistics bool `yaml:"printSolverStatistics"`
	PrintLinesearch       bool `yaml:"printLinesearch"`
}

func DefaultSettings() Settings {
	return Settings{
		SqpIteration:                         DefaultSqpIteration,
		DeltaTol:                             DefaultDeltaTol,
		GMax:                                 DefaultGMax,
		GMin:                                 DefaultGMin,
		GammaC:                               DefaultGammaC,
		AlphaDecay:                           DefaultAlphaDecay,
		AlphaMin:                             DefaultAlphaMin,
		CostTol:                              DefaultCostTol,
		Dt:                                   DefaultDt,
		EventEpsilon:                         timegrid.DefaultEpsilon,
		Integrator:                           "rk4",
		NThreads:                             DefaultThreads,
		ProjectStateInputEqualityConstraints: true,
		ControllerFeedback:                   true,
		InequalityConstraintMu:               0,
		InequalityConstraintDelta:            1e-6,
	}
}

func (s Settings) Validate() error {
	var errs []error
	if s.SqpIteration < 1 {
		errs = append(errs, fmt.Errorf("sqpIteration must be positive, got %d", s.SqpIteration))
	}
	if s.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", s.Dt))
	}
	if s.EventEpsilon <= 0 || s.EventEpsilon >= s.Dt {
		errs = append(errs, fmt.Errorf("eventEpsilon must lie in (0, dt), got %g", s.EventEpsilon))
	}
	if s.NThreads < 1 {
		errs = append(errs, fmt.Errorf("nThreads must be positive, got %d", s.NThreads))
	}
	if s.AlphaDecay <= 0 || s.AlphaDecay >= 1 {
		errs = append(errs, fmt.Errorf("alpha_decay must lie in (0, 1), got %g", s.AlphaDecay))
	}
	if s.AlphaMin <= 0 || s.AlphaMin >= 1 {
		errs = append(errs, fmt.Errorf("alpha_min must lie in (0, 1), got %g", s.AlphaMin))
	}
	if s.GMin < 0 || s.GMax <= s.GMin {
		errs = append(errs, fmt.Errorf("need 0 <= g_min < g_max, got g_min=%g g_max=%g", s.GMin, s.GMax))
	}
	if s.GammaC < 0 || s.GammaC >= 1 {
		errs = append(errs, fmt.Errorf("gamma_c must lie in [0, 1), got %g", s.GammaC))
	}
	if s.InequalityConstraintMu < 0 {
		errs = append(errs, fmt.Errorf("inequalityConstraintMu must not be negative, got %g", s.InequalityConstraintMu))
	}
	if s.InequalityConstraintMu > 0 && s.InequalityConstraintDelta <= 0 {
		errs = append(errs, fmt.Errorf("inequalityConstraintDelta must be positive, got %g", s.InequalityConstraintDelta))
	}
	if _, err := integrators.NewSensitivity(s.Integrator); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}
