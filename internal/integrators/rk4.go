package integrators

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	k1 := dyn.Derive(x, u, t)
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2 := dyn.Derive(r.scratch, u, t+dt*0.5)
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3 := dyn.Derive(r.scratch, u, t+dt*0.5)
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4 := dyn.Derive(r.scratch, u, t+dt)
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}

// rk4Stage holds one slope evaluation and its derivatives with respect to
// the step's initial state and input.
type rk4Stage struct {
	k      dynamo.State
	dx, du *mat.Dense
}

func evalStage(dyn dynamo.Linearizer, x dynamo.State, u dynamo.Control, t, h float64, prev *rk4Stage) rk4Stage {
	xs := x
	dxs := dynamo.Identity(len(x))
	var dus *mat.Dense
	if prev != nil {
		xs = x.Add(prev.k.Scale(h))
		var tmp mat.Dense
		tmp.Scale(h, prev.dx)
		dxs.Add(dxs, &tmp)
		dus = mat.NewDense(len(x), len(u), nil)
		dus.Scale(h, prev.du)
	}

	a, b := dyn.Linearize(xs, u, t)
	st := rk4Stage{k: dyn.Derive(xs, u, t), dx: &mat.Dense{}, du: mat.DenseCopyOf(b)}
	st.dx.Mul(a, dxs)
	if dus != nil {
		var tmp mat.Dense
		tmp.Mul(a, dus)
		st.du.Add(st.du, &tmp)
	}
	return st
}

// StepSensitivity propagates one RK4 step and differentiates it through
// every stage, so the returned A and B are the exact Jacobians of the
// discrete map rather than a first-order approximation.
func (r *RK4) StepSensitivity(dyn dynamo.Linearizer, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, *mat.Dense, *mat.Dense) {
	s1 := evalStage(dyn, x, u, t, 0, nil)
	s2 := evalStage(dyn, x, u, t+0.5*dt, 0.5*dt, &s1)
	s3 := evalStage(dyn, x, u, t+0.5*dt, 0.5*dt, &s2)
	s4 := evalStage(dyn, x, u, t+dt, dt, &s3)

	n := len(x)
	dt6 := dt / 6.0
	next := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		next[i] = x[i] + dt6*(s1.k[i]+2*s2.k[i]+2*s3.k[i]+s4.k[i])
	}

	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, len(u), nil)
	for _, s := range []struct {
		w  float64
		st *rk4Stage
	}{{1, &s1}, {2, &s2}, {2, &s3}, {1, &s4}} {
		var tmp mat.Dense
		tmp.Scale(dt6*s.w, s.st.dx)
		a.Add(a, &tmp)
		tmp.Reset()
		tmp.Scale(dt6*s.w, s.st.du)
		b.Add(b, &tmp)
	}
	a.Add(a, dynamo.Identity(n))
	return next, a, b
}
