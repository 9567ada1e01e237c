package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/ocp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", cfg.Model)
	}
	if cfg.Sim.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Sim.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.InitState[0] != 0.2 {
		t.Errorf("expected theta 0.2, got %f", cfg.InitState[0])
	}

	cfg.InitState[0] = 9
	if again := GetPreset("pendulum", "small"); again.InitState[0] != 0.2 {
		t.Error("presets share state between calls")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("pendulum", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "small")
	if cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("pendulum")
	if diff := cmp.Diff([]string{"large", "small"}, presets); diff != "" {
		t.Errorf("pendulum presets (-want +got):\n%s", diff)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestEveryModelHasValidPresets(t *testing.T) {
	for _, model := range models.Names() {
		names := ListPresets(model)
		if len(names) == 0 {
			t.Errorf("model %s has no presets", model)
		}
		for _, name := range names {
			cfg := GetPreset(model, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
				continue
			}
			plant, err := cfg.Plant()
			if err != nil {
				t.Fatal(err)
			}
			if err := cfg.Problem(plant).Validate(); err != nil && cfg.InputBounds == nil {
				t.Errorf("%s/%s: problem: %v", model, name, err)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	want := GetPreset("drone", "tilt")

	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	data := []byte("model: pendulum\ninit_state: [0.3, 0.1]\nsqp:\n  nThreads: 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SQP.NThreads != 2 {
		t.Errorf("expected 2 threads, got %d", cfg.SQP.NThreads)
	}
	if cfg.SQP.SqpIteration != DefaultConfig().SQP.SqpIteration {
		t.Errorf("default sqp iterations lost: %d", cfg.SQP.SqpIteration)
	}
	if diff := cmp.Diff([]float64{0.3, 0.1}, cfg.InitState); diff != "" {
		t.Errorf("init state (-want +got):\n%s", diff)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"unknown model", func(c *Config) { c.Model = "lorenz" }, models.ErrUnknownModel},
		{"short init state", func(c *Config) { c.InitState = []float64{1} }, ErrInvalidConfig},
		{"wrong target", func(c *Config) { c.Target = []float64{1, 2, 3} }, ErrInvalidConfig},
		{"wrong terminal state", func(c *Config) { c.TerminalState = []float64{0} }, ErrInvalidConfig},
		{"zero input weight", func(c *Config) { c.Cost.R = []float64{0} }, ErrInvalidConfig},
		{"bounds without penalty", func(c *Config) {
			c.InputBounds = &BoundsConfig{Lower: []float64{-1}, Upper: []float64{1}}
		}, ErrInvalidConfig},
		{"negative duration", func(c *Config) { c.Sim.Duration = -1 }, ErrInvalidConfig},
		{"negative tolerance", func(c *Config) { c.Sim.Tolerance = -1e-6 }, ErrInvalidConfig},
		{"bad param", func(c *Config) { c.Params = map[string]float64{"mass": -2} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestProblemWithTerminalState(t *testing.T) {
	if DefaultConfig().Problem(mustPlant(t, DefaultConfig())).TerminalEquality != nil {
		t.Error("default task should not pin the terminal state")
	}

	cfg := GetPreset("pointmass", "pinned")
	p := cfg.Problem(mustPlant(t, cfg))
	if p.TerminalEquality == nil {
		t.Fatal("expected a terminal equality")
	}
	got := p.TerminalEquality.Value(0, []float64{1, -2})
	if diff := cmp.Diff([]float64{0, 0}, got); diff != "" {
		t.Errorf("constraint at the terminal state (-want +got):\n%s", diff)
	}
	got = p.TerminalEquality.Value(0, []float64{0, 0})
	if diff := cmp.Diff([]float64{-1, 2}, got); diff != "" {
		t.Errorf("constraint at the origin (-want +got):\n%s", diff)
	}
}

func mustPlant(t *testing.T, cfg *Config) models.Model {
	t.Helper()
	plant, err := cfg.Plant()
	if err != nil {
		t.Fatal(err)
	}
	return plant
}

func TestSimConfigAdaptive(t *testing.T) {
	if DefaultConfig().SimConfig().Adaptive {
		t.Error("default task should use fixed steps")
	}

	cfg := GetPreset("springmass", "settle")
	sc := cfg.SimConfig()
	if !sc.Adaptive || sc.Tolerance != 1e-8 {
		t.Errorf("expected adaptive stepping with tolerance 1e-8, got %+v", sc)
	}
	if sc.Dt != cfg.Sim.Dt {
		t.Errorf("expected dt %g, got %g", cfg.Sim.Dt, sc.Dt)
	}
}

func TestProblemFromConfig(t *testing.T) {
	cfg := GetPreset("drone", "hover")
	plant, err := cfg.Plant()
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Problem(plant)

	box, ok := p.Inequality.(*ocp.InputBox)
	if !ok {
		t.Fatalf("expected an input box, got %T", p.Inequality)
	}
	if box.NumConstraints() != 4 {
		t.Errorf("expected 4 bound rows, got %d", box.NumConstraints())
	}
	if p.TerminalCost == nil {
		t.Error("expected a terminal cost")
	}

	targets := cfg.Targets(plant)
	hover := plant.(*models.Drone).HoverThrust()
	if diff := cmp.Diff([]float64{hover, hover}, []float64(targets.InputAt(0))); diff != "" {
		t.Errorf("target input (-want +got):\n%s", diff)
	}
	if targets.StateAt(0)[1] != 5 {
		t.Errorf("expected target altitude 5, got %v", targets.StateAt(0))
	}
}
