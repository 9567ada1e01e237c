package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// ErrStepSize is returned when error control drives the internal step
// below the minimum before the interval is covered.
var ErrStepSize = errors.New("integrators: step size underflow")

// dormandPrince is the Butcher tableau of the 5(4) pair. The last row of
// a equals b, so the seventh stage is the derivative at the new point.
var dormandPrince = struct {
	c [7]float64
	a [7][6]float64
	b [7]float64
	e [7]float64
}{
	c: [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	a: [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	b: [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	e: [7]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	},
}

// RK45 is an embedded Dormand-Prince integrator. StepAdaptive covers a
// whole sampling interval with as many error-controlled substeps as the
// tolerance needs, so the caller's time grid is never changed.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	minStep  float64

	// hint is the last accepted substep, reused by the next interval.
	hint float64
	k    [7]dynamo.State
	tmp  dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
		minStep:  1e-10,
	}
}

// Step integrates over dt with the default tolerance of 1e-6.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	xNew, _, _ := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return xNew
}

// StepAdaptive returns the state at t+dt and the substep suggested for
// the next interval. tol is used both as absolute and relative tolerance.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	r.ensureScratch(len(x))

	h := dt
	if r.hint > 0 {
		h = math.Min(r.hint, dt)
	}
	end := t + dt
	cur := x.Clone()
	r.k[0] = dyn.Derive(cur, u, t)

	for done := false; !done; {
		last := false
		if h >= end-t-r.minStep {
			h = end - t
			last = true
		}
		xNew := r.attempt(dyn, cur, u, t, h)
		errNorm := r.errorNorm(cur, xNew, h, tol)

		if errNorm > 1 {
			h *= math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.2))
			if h < r.minStep {
				return cur, h, fmt.Errorf("%w at t=%g", ErrStepSize, t)
			}
			continue
		}

		cur = xNew
		r.k[0] = r.k[6]
		if last {
			t, done = end, true
		} else {
			t += h
		}
		scale := r.maxScale
		if errNorm > 0 {
			scale = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
		}
		h *= scale
	}
	r.hint = h
	return cur, h, nil
}

func (r *RK45) ensureScratch(n int) {
	if len(r.tmp) != n {
		r.tmp = make(dynamo.State, n)
		r.hint = 0
	}
}

// attempt evaluates stages 2..7 from k[0] and returns the fifth order
// solution after h.
func (r *RK45) attempt(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, h float64) dynamo.State {
	tab := &dormandPrince
	for s := 1; s < 7; s++ {
		for i := range x {
			sum := 0.0
			for j := 0; j < s; j++ {
				sum += tab.a[s][j] * r.k[j][i]
			}
			r.tmp[i] = x[i] + h*sum
		}
		r.k[s] = dyn.Derive(r.tmp, u, t+tab.c[s]*h)
	}
	return r.tmp.Clone()
}

// errorNorm is the RMS of the embedded error estimate scaled by
// tol·(1 + max(|x|, |xNew|)).
func (r *RK45) errorNorm(x, xNew dynamo.State, h, tol float64) float64 {
	tab := &dormandPrince
	sum := 0.0
	for i := range x {
		est := 0.0
		for s := 0; s < 7; s++ {
			est += tab.e[s] * r.k[s][i]
		}
		sc := tol * (1 + math.Max(math.Abs(x[i]), math.Abs(xNew[i])))
		v := h * est / sc
		sum += v * v
	}
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(x)))
}
