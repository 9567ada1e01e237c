// Package config reads and writes the yaml task files of the command line
// tool and turns them into a plant, an optimal control problem and the
// solver, MPC and simulation settings.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/mpc"
	"github.com/san-kum/mpcsqp/internal/sqp"
)

var ErrInvalidConfig = errors.New("config: invalid config")

const (
	DefaultDt       = 0.01
	DefaultDuration = 5.0
	DefaultTheta    = 0.5
)

// Config is one task. TerminalState, when set, is enforced as an
// equality at the end of every horizon.
type Config struct {
	Model         string             `yaml:"model"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	InitState     []float64          `yaml:"init_state"`
	Target        []float64          `yaml:"target,omitempty"`
	TerminalState []float64          `yaml:"terminal_state,omitempty"`
	Cost          CostConfig         `yaml:"cost"`
	InputBounds   *BoundsConfig      `yaml:"input_bounds,omitempty"`
	Sim           SimConfig          `yaml:"sim"`
	MPC           mpc.Settings       `yaml:"mpc"`
	SQP           sqp.Settings       `yaml:"sqp"`
}

// CostConfig holds the diagonals of the running state weight Q, the input
// weight R and the terminal weight QFinal.
type CostConfig struct {
	Q      []float64 `yaml:"q"`
	R      []float64 `yaml:"r"`
	QFinal []float64 `yaml:"q_final,omitempty"`
}

type BoundsConfig struct {
	Lower []float64 `yaml:"lower"`
	Upper []float64 `yaml:"upper"`
}

// SimConfig drives the plant integration. A positive Tolerance turns on
// error-controlled substeps inside every sampling interval.
type SimConfig struct {
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Tolerance  float64 `yaml:"tolerance,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     "pendulum",
		InitState: []float64{DefaultTheta, 0},
		Cost: CostConfig{
			Q:      []float64{10, 1},
			R:      []float64{0.1},
			QFinal: []float64{50, 5},
		},
		Sim: SimConfig{
			Integrator: "rk4",
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
		},
		MPC: mpc.DefaultSettings(),
		SQP: sqp.DefaultSettings(),
	}
}

// Load overlays the file on DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Plant returns the configured model with its parameters applied.
func (c *Config) Plant() (models.Model, error) {
	m, err := models.New(c.Model)
	if err != nil {
		return nil, err
	}
	if err := models.SetParams(m, c.Params); err != nil {
		return nil, fmt.Errorf("config: model %s: %w", c.Model, err)
	}
	return m, nil
}

func (c *Config) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Sim.Dt
	cfg.Duration = c.Sim.Duration
	if c.Sim.Tolerance > 0 {
		cfg.Adaptive = true
		cfg.Tolerance = c.Sim.Tolerance
	}
	return cfg
}

func (c *Config) Validate() error {
	m, err := c.Plant()
	if err != nil {
		return err
	}
	n, nu := m.StateDim(), m.ControlDim()

	var errs []error
	checkLen := func(name string, v []float64, want int, optional bool) {
		if optional && len(v) == 0 {
			return
		}
		if len(v) != want {
			errs = append(errs, fmt.Errorf("%s has %d entries, %s needs %d", name, len(v), c.Model, want))
		}
	}
	checkLen("init_state", c.InitState, n, false)
	checkLen("target", c.Target, n, true)
	checkLen("terminal_state", c.TerminalState, n, true)
	checkLen("cost.q", c.Cost.Q, n, false)
	checkLen("cost.r", c.Cost.R, nu, false)
	checkLen("cost.q_final", c.Cost.QFinal, n, true)
	for i, r := range c.Cost.R {
		if r <= 0 {
			errs = append(errs, fmt.Errorf("cost.r[%d] must be positive, got %g", i, r))
		}
	}
	if b := c.InputBounds; b != nil {
		checkLen("input_bounds.lower", b.Lower, nu, false)
		checkLen("input_bounds.upper", b.Upper, nu, false)
		if c.SQP.InequalityConstraintMu <= 0 {
			errs = append(errs, errors.New("input_bounds need sqp.inequalityConstraintMu > 0"))
		}
	}
	if c.Sim.Dt <= 0 || c.Sim.Duration <= 0 {
		errs = append(errs, fmt.Errorf("sim dt and duration must be positive, got %g and %g", c.Sim.Dt, c.Sim.Duration))
	}
	if c.Sim.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("sim tolerance must not be negative, got %g", c.Sim.Tolerance))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return errors.Join(c.SQP.Validate(), c.MPC.Validate())
}
