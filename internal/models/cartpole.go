package models

import (
	"math"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// CartPole has state (position, velocity, angle, angular velocity) with
// the angle measured from upright, and a horizontal force on the cart.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   DefaultMass,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    DefaultGravity,
	}
}

func (c *CartPole) StateDim() int {
	return 4
}

func (c *CartPole) ControlDim() int {
	return 1
}

func (c *CartPole) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vel := x[1]
	theta := x[2]
	omega := x[3]
	force := u[0]

	mc := c.CartMass
	mp := c.PoleMass
	l := c.PoleLength
	g := c.Gravity

	sint := math.Sin(theta)
	cost := math.Cos(theta)

	temp := (force + mp*l*omega*omega*sint) / (mc + mp)
	thetaacc := (g*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/(mc+mp)))
	xacc := temp - mp*l*thetaacc*cost/(mc+mp)

	return dynamo.State{vel, xacc, omega, thetaacc}
}

func (c *CartPole) Energy(x dynamo.State) float64 {
	vel, theta, omega := x[1], x[2], x[3]
	mp, l := c.PoleMass, c.PoleLength
	// pole as a uniform rod of length 2l pivoting on the cart
	ke := 0.5*c.CartMass*vel*vel +
		0.5*mp*(vel*vel+2*vel*l*omega*math.Cos(theta)+l*l*omega*omega) +
		0.5*(mp*l*l/3)*omega*omega
	pe := mp * c.Gravity * l * math.Cos(theta)
	return ke + pe
}

func (c *CartPole) Clone() dynamo.System {
	cp := *c
	return &cp
}

func (c *CartPole) GetParams() map[string]float64 {
	return map[string]float64{
		"cart_mass":   c.CartMass,
		"pole_mass":   c.PoleMass,
		"pole_length": c.PoleLength,
		"gravity":     c.Gravity,
	}
}

func (c *CartPole) SetParam(name string, value float64) error {
	var err error
	switch name {
	case "cart_mass":
		if err = positive(name, value); err == nil {
			c.CartMass = value
		}
	case "pole_mass":
		if err = positive(name, value); err == nil {
			c.PoleMass = value
		}
	case "pole_length":
		if err = positive(name, value); err == nil {
			c.PoleLength = value
		}
	case "gravity":
		c.Gravity = value
	default:
		err = unknownParam(name)
	}
	return err
}
