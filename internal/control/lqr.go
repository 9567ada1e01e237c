package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/qp"
)

// LQR regulates around a set point with a constant gain:
// u = Input - K·(x - Target).
type LQR struct {
	K      *mat.Dense
	Target dynamo.State
	Input  dynamo.Control
}

func NewLQR(k *mat.Dense, target dynamo.State, input dynamo.Control) *LQR {
	return &LQR{K: k, Target: target, Input: input}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	var kx mat.VecDense
	kx.MulVec(l.K, x.Sub(l.Target).Vec())

	r, _ := l.K.Dims()
	u := make(dynamo.Control, r)
	for i := range u {
		if i < len(l.Input) {
			u[i] = l.Input[i]
		}
		u[i] -= kx.AtVec(i)
	}
	return u
}

// lqrHorizon is the number of backward Riccati steps used to approach
// the stationary gain.
const lqrHorizon = 1000

// DiscreteLQR linearizes dyn at (target, input), discretizes with step dt
// and runs the Riccati recursion over a long horizon; the first gain of
// that horizon approximates the infinite-horizon LQR gain.
func DiscreteLQR(dyn dynamo.Linearizer, target dynamo.State, input dynamo.Control, q, r *mat.Dense, dt float64) (*LQR, error) {
	ac, bc := dyn.Linearize(target, input, 0)
	n, m := len(target), len(input)

	a := dynamo.Identity(n)
	var tmp mat.Dense
	tmp.Scale(dt, ac)
	a.Add(a, &tmp)
	var b mat.Dense
	b.Scale(dt, bc)

	stage := ocp.NewQuadraticApproximation(n, m)
	stage.Dfdxx.Scale(dt, q)
	stage.Dfduu.Scale(dt, r)
	lin := ocp.LinearApproximation{F: mat.NewVecDense(n, nil), Dfdx: a, Dfdu: &b}

	dynamics := make([]ocp.LinearApproximation, lqrHorizon)
	cost := make([]ocp.QuadraticApproximation, lqrHorizon+1)
	for i := range dynamics {
		dynamics[i] = lin
		cost[i] = stage
	}
	cost[lqrHorizon] = ocp.NewQuadraticApproximation(n, 0)
	cost[lqrHorizon].Dfdxx.Scale(dt, q)

	gains, err := qp.NewRiccati().FeedbackGains(dynamics, cost, nil)
	if err != nil {
		return nil, fmt.Errorf("control: lqr: %w", err)
	}

	var gain mat.Dense
	gain.Scale(-1, gains[0])
	return NewLQR(&gain, target.Clone(), input.Clone()), nil
}
