// Package models provides the plant models the solver and the closed-loop
// harness run on.
//
// Each model implements [dynamo.System] and [dynamo.Configurable] and
// returns an independent copy from Clone, so the solver can hand one copy
// to every worker:
//
//   - [PointMass]: x' = u, any dimension, analytic Jacobians
//   - [Pendulum]: torque-driven pendulum, analytic Jacobians
//   - [CartPole]: force on a cart carrying a free pole
//   - [Drone]: planar quadrotor with two thrusters
//   - [SpringMass]: chain of masses driven at the first mass
//
// Models without a Linearize method are differentiated numerically by
// ocp.SystemDynamics.
//
// # Registry
//
//	m, err := models.New("pendulum")
//	if h, ok := m.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package models

import "github.com/san-kum/mpcsqp/internal/dynamo"

const (
	DefaultMass    = 1.0
	DefaultGravity = 9.81
)

// Model is what the registry hands out.
type Model interface {
	dynamo.System
	dynamo.Configurable
	Clone() dynamo.System
}

// OperatingPoint is implemented by models with a natural trim input,
// such as the hover thrust of a drone.
type OperatingPoint interface {
	OperatingInput() dynamo.Control
}
