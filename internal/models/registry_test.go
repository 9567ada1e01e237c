package models

import (
	"errors"
	"testing"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func TestRegistry(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Fatalf("expected 5 models, got %v", names)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			m, err := New(name)
			if err != nil {
				t.Fatal(err)
			}
			x := make(dynamo.State, m.StateDim())
			u := make(dynamo.Control, m.ControlDim())
			dx := m.Derive(x, u, 0)
			if len(dx) != m.StateDim() {
				t.Errorf("derivative has %d entries, want %d", len(dx), m.StateDim())
			}
			if !dx.IsValid() {
				t.Errorf("invalid derivative %v", dx)
			}

			for param, value := range m.GetParams() {
				if err := m.SetParam(param, value); err != nil {
					t.Errorf("round trip of %s: %v", param, err)
				}
			}
			if err := m.SetParam("nope", 1); !errors.Is(err, dynamo.ErrUnknownParameter) {
				t.Errorf("expected ErrUnknownParameter, got %v", err)
			}

			if c := m.Clone(); c == dynamo.System(m) {
				t.Error("clone returned the same pointer")
			}
		})
	}

	if _, err := New("lorenz"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}
