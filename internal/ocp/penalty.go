package ocp

import (
	"fmt"
	"math"
)

// RelaxedBarrierPenalty turns h ≥ 0 into a smooth cost: -μ·ln(h) for h > δ
// and a quadratic extension below δ that keeps the function finite and
// twice differentiable for infeasible h.
type RelaxedBarrierPenalty struct {
	Mu    float64
	Delta float64
}

func (p *RelaxedBarrierPenalty) Validate() error {
	if p.Mu <= 0 || p.Delta <= 0 {
		return fmt.Errorf("ocp: relaxed barrier needs mu > 0 and delta > 0, got mu=%g delta=%g", p.Mu, p.Delta)
	}
	return nil
}

func (p *RelaxedBarrierPenalty) Value(h float64) float64 {
	if h > p.Delta {
		return -p.Mu * math.Log(h)
	}
	z := (h - 2*p.Delta) / p.Delta
	return p.Mu * (-math.Log(p.Delta) + 0.5*z*z - 0.5)
}

func (p *RelaxedBarrierPenalty) Derivative(h float64) float64 {
	if h > p.Delta {
		return -p.Mu / h
	}
	return p.Mu * (h - 2*p.Delta) / (p.Delta * p.Delta)
}

func (p *RelaxedBarrierPenalty) SecondDerivative(h float64) float64 {
	if h > p.Delta {
		return p.Mu / (h * h)
	}
	return p.Mu / (p.Delta * p.Delta)
}

// Total sums the penalty over a constraint vector.
func (p *RelaxedBarrierPenalty) Total(h []float64) float64 {
	sum := 0.0
	for _, v := range h {
		sum += p.Value(v)
	}
	return sum
}

// QuadraticApproximation composes the penalty with a linearized
// constraint, dropping the constraint curvature (Gauss-Newton).
func (p *RelaxedBarrierPenalty) QuadraticApproximation(h LinearApproximation) QuadraticApproximation {
	rows, n := h.Dfdx.Dims()
	m := h.NumInputs()
	q := NewQuadraticApproximation(n, m)

	for i := 0; i < rows; i++ {
		hi := h.F.AtVec(i)
		d1 := p.Derivative(hi)
		d2 := p.SecondDerivative(hi)
		q.F += p.Value(hi)

		gx := h.Dfdx.RawRowView(i)
		for a := 0; a < n; a++ {
			q.Dfdx.SetVec(a, q.Dfdx.AtVec(a)+d1*gx[a])
			for b := 0; b < n; b++ {
				q.Dfdxx.Set(a, b, q.Dfdxx.At(a, b)+d2*gx[a]*gx[b])
			}
		}
		if m == 0 {
			continue
		}
		gu := h.Dfdu.RawRowView(i)
		for a := 0; a < m; a++ {
			q.Dfdu.SetVec(a, q.Dfdu.AtVec(a)+d1*gu[a])
			for b := 0; b < m; b++ {
				q.Dfduu.Set(a, b, q.Dfduu.At(a, b)+d2*gu[a]*gu[b])
			}
			for b := 0; b < n; b++ {
				q.Dfdux.Set(a, b, q.Dfdux.At(a, b)+d2*gu[a]*gx[b])
			}
		}
	}
	return q
}

// Violation returns Σ min(h, 0)².
func Violation(h []float64) float64 {
	sum := 0.0
	for _, v := range h {
		if v < 0 {
			sum += v * v
		}
	}
	return sum
}
