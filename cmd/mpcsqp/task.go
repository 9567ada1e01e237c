package main

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/san-kum/mpcsqp/internal/config"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/sqp"
)

// loadTask resolves the task for model: a task file wins over a preset,
// and without either the first preset of the model is used.
func loadTask(model string) (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Model != model {
			return nil, fmt.Errorf("task file is for model %s, not %s", cfg.Model, model)
		}
		return cfg, nil
	}

	if _, err := models.New(model); err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, models.Names())
	}
	name := preset
	if name == "" {
		name = config.ListPresets(model)[0]
	}
	cfg := config.GetPreset(model, name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(model))
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if nThreads > 0 {
		cfg.SQP.NThreads = nThreads
	}
	if horizon > 0 {
		cfg.MPC.Horizon = horizon
	}
	if duration > 0 {
		cfg.Sim.Duration = duration
	}
}

// newSolver builds the plant and a solver for the task's problem.
func newSolver(cfg *config.Config, log logr.Logger) (models.Model, *sqp.Solver, error) {
	plant, err := cfg.Plant()
	if err != nil {
		return nil, nil, err
	}
	solver, err := sqp.New(cfg.Problem(plant), cfg.SQP, sqp.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return plant, solver, nil
}
