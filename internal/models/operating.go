package models

import (
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/ocp"
)

// StaticOperatingPoint guesses that the system holds its current state
// under a constant input.
type StaticOperatingPoint struct {
	Input dynamo.Control
}

// NewStaticOperatingPoint uses the model's trim input when it has one and
// zero otherwise.
func NewStaticOperatingPoint(sys dynamo.System) *StaticOperatingPoint {
	if op, ok := sys.(OperatingPoint); ok {
		return &StaticOperatingPoint{Input: op.OperatingInput()}
	}
	return &StaticOperatingPoint{Input: make(dynamo.Control, sys.ControlDim())}
}

func (s *StaticOperatingPoint) Clone() ocp.OperatingTrajectories {
	return &StaticOperatingPoint{Input: s.Input.Clone()}
}

func (s *StaticOperatingPoint) Query(x dynamo.State, t0, t1 float64) ([]float64, []dynamo.State, []dynamo.Control) {
	return []float64{t0, t1},
		[]dynamo.State{x.Clone(), x.Clone()},
		[]dynamo.Control{s.Input.Clone(), s.Input.Clone()}
}
