// Package dynamo provides the shared vocabulary for dynamical systems,
// optimal control and closed-loop simulation.
//
// The package defines the fundamental interfaces and types:
//
//   - [State], [Control]: plain float vectors with gonum conversions
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Linearizer]: a [System] that also returns its Jacobians
//   - [Integrator]: numerical integrator interface
//   - [Controller]: time-varying feedback policy
//
// # Example
//
//	dyn := models.NewPendulum()
//	integ := integrators.NewRK4()
//	x1 := integ.Step(dyn, dynamo.State{0.1, 0}, dynamo.Control{0}, 0, 0.01)
//
// # Thread Safety
//
// Models are expected to be free of hidden state in Derive. Integrators
// that keep scratch buffers (see integrators.RK4) must not be shared
// between goroutines.
package dynamo
