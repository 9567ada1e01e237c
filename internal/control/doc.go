// Package control provides the controllers produced by and compared with
// the SQP solver.
//
// Controllers implement the [dynamo.Controller] interface to compute
// control inputs based on system state and time:
//
//   - [Feedforward]: open-loop input trajectory, interpolated in time
//   - [Linear]: time-varying affine feedback u = uff(t) + K(t)·x
//   - [LQR]: constant-gain regulator around a set point
//   - [None]: zero control
//
// # Usage
//
//	ctrl := control.NewFeedforward(solution.Times, solution.Inputs)
//	u := ctrl.Compute(x, t)
//
// Trajectory controllers clamp to their first and last node outside the
// stored time span.
package control
