package config

import "sort"

var presets = map[string]map[string]func() *Config{
	"pendulum": {
		"small": func() *Config {
			c := DefaultConfig()
			c.InitState = []float64{0.2, 0}
			return c
		},
		"large": func() *Config {
			c := DefaultConfig()
			c.InitState = []float64{1.2, 0}
			c.InputBounds = &BoundsConfig{Lower: []float64{-4}, Upper: []float64{4}}
			c.SQP.InequalityConstraintMu = 0.01
			c.SQP.InequalityConstraintDelta = 1e-3
			return c
		},
	},
	"cartpole": {
		"balance": func() *Config {
			return cartpole(0.1)
		},
		"recover": func() *Config {
			return cartpole(0.4)
		},
	},
	"drone": {
		"hover": func() *Config {
			c := drone()
			c.InitState = []float64{0, 4, 0, 0, 0, 0}
			return c
		},
		"tilt": func() *Config {
			c := drone()
			c.InitState = []float64{-0.5, 5, 0.3, 0, 0, 0}
			return c
		},
	},
	"springmass": {
		"settle": func() *Config {
			c := DefaultConfig()
			c.Model = "springmass"
			c.InitState = []float64{0.5, 0, -0.3, 0, 0, 0}
			c.Cost = CostConfig{
				Q:      []float64{10, 10, 10, 1, 1, 1},
				R:      []float64{0.05},
				QFinal: []float64{50, 50, 50, 5, 5, 5},
			}
			c.Sim.Integrator = "rk45"
			c.Sim.Tolerance = 1e-8
			return c
		},
	},
	"pointmass": {
		"goto": func() *Config {
			c := DefaultConfig()
			c.Model = "pointmass"
			c.InitState = []float64{0, 0}
			c.Target = []float64{1, -2}
			c.Cost = CostConfig{Q: []float64{1, 1}, R: []float64{0.1, 0.1}, QFinal: []float64{10, 10}}
			return c
		},
		"pinned": func() *Config {
			c := DefaultConfig()
			c.Model = "pointmass"
			c.InitState = []float64{0, 0}
			c.Target = []float64{1, -2}
			c.TerminalState = []float64{1, -2}
			c.Cost = CostConfig{Q: []float64{1, 1}, R: []float64{0.1, 0.1}}
			return c
		},
	},
}

func cartpole(theta float64) *Config {
	c := DefaultConfig()
	c.Model = "cartpole"
	c.InitState = []float64{0, 0, theta, 0}
	c.Cost = CostConfig{
		Q:      []float64{1, 0.5, 20, 1},
		R:      []float64{0.05},
		QFinal: []float64{10, 5, 100, 10},
	}
	c.MPC.Horizon = 1.5
	return c
}

func drone() *Config {
	c := DefaultConfig()
	c.Model = "drone"
	c.Target = []float64{0, 5, 0, 0, 0, 0}
	c.Cost = CostConfig{
		Q:      []float64{5, 5, 5, 1, 1, 1},
		R:      []float64{0.1, 0.1},
		QFinal: []float64{50, 50, 50, 5, 5, 5},
	}
	c.InputBounds = &BoundsConfig{Lower: []float64{0, 0}, Upper: []float64{10, 10}}
	c.SQP.InequalityConstraintMu = 0.01
	c.SQP.InequalityConstraintDelta = 1e-3
	return c
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := presets[model]
	if !ok {
		return nil
	}
	fn, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the preset names of model in lexical order.
func ListPresets(model string) []string {
	modelPresets, ok := presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
