package models

import (
	"math"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// Drone is a planar quadrotor with state (x, y, θ, vx, vy, ω) and the
// left and right thrusts as inputs. Thrust bounds are left to the
// problem's inequality constraints so the flow map stays smooth.
type Drone struct {
	Mass, Inertia, ArmLength float64
	Gravity, DragCoeff       float64
	AngDrag                  float64
}

func NewDrone() *Drone {
	return &Drone{
		Mass:      DefaultMass,
		Inertia:   0.1,
		ArmLength: 0.25,
		Gravity:   DefaultGravity,
		DragCoeff: 0.1,
		AngDrag:   0.05,
	}
}

func (d *Drone) StateDim() int   { return 6 }
func (d *Drone) ControlDim() int { return 2 }

func (d *Drone) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vx, vy, omega := x[2], x[3], x[4], x[5]
	thrustL, thrustR := u[0], u[1]

	totalThrust := thrustL + thrustR
	torque := (thrustR - thrustL) * d.ArmLength

	sin, cos := math.Sin(theta), math.Cos(theta)
	fx := -totalThrust*sin - d.DragCoeff*vx
	fy := totalThrust*cos - d.Mass*d.Gravity - d.DragCoeff*vy

	ax := fx / d.Mass
	ay := fy / d.Mass
	alpha := (torque - d.AngDrag*omega) / d.Inertia

	return dynamo.State{vx, vy, omega, ax, ay, alpha}
}

func (d *Drone) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

func (d *Drone) OperatingInput() dynamo.Control {
	h := d.HoverThrust()
	return dynamo.Control{h, h}
}

func (d *Drone) Energy(x dynamo.State) float64 {
	y, vx, vy, omega := x[1], x[3], x[4], x[5]
	ke := 0.5 * d.Mass * (vx*vx + vy*vy)
	keRot := 0.5 * d.Inertia * omega * omega
	pe := d.Mass * d.Gravity * y
	return ke + keRot + pe
}

func (d *Drone) Clone() dynamo.System {
	c := *d
	return &c
}

func (d *Drone) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"gravity":    d.Gravity,
		"drag":       d.DragCoeff,
		"ang_drag":   d.AngDrag,
		"arm_length": d.ArmLength,
		"inertia":    d.Inertia,
	}
}

func (d *Drone) SetParam(name string, value float64) error {
	var err error
	switch name {
	case "mass":
		if err = positive(name, value); err == nil {
			d.Mass = value
		}
	case "gravity":
		d.Gravity = value
	case "drag":
		if err = nonNegative(name, value); err == nil {
			d.DragCoeff = value
		}
	case "ang_drag":
		if err = nonNegative(name, value); err == nil {
			d.AngDrag = value
		}
	case "arm_length":
		if err = positive(name, value); err == nil {
			d.ArmLength = value
		}
	case "inertia":
		if err = positive(name, value); err == nil {
			d.Inertia = value
		}
	default:
		err = unknownParam(name)
	}
	return err
}
