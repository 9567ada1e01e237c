package sqp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/control"
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/transcription"
)

// computeController builds the policy stored with a solution. Without
// feedback it replays the inputs. With feedback it asks the backend for
// the gains of the last subproblem; on projected nodes the gain lives in
// the reduced input and is mapped back as Px + Pu·K̃. Linear controllers
// use u = uff + K·x, so uff = u - K·x.
func (s *Solver) computeController(sol PrimalSolution, sub transcription.Result) (dynamo.Controller, error) {
	if !s.settings.ControllerFeedback {
		return control.NewFeedforward(sol.Times, sol.Inputs), nil
	}

	n := len(sub.Dynamics)
	gains, err := s.backend.FeedbackGains(sub.Dynamics, sub.Cost, sub.Constraints[:n])
	if err != nil {
		return nil, fmt.Errorf("sqp: feedback gains: %w", err)
	}

	bias := make([]dynamo.Control, 0, n+1)
	full := make([]*mat.Dense, 0, n+1)
	for i := 0; i < n; i++ {
		k := gains[i]
		if proj := sub.Projections[i]; proj != nil {
			var tmp mat.Dense
			tmp.Mul(proj.Dfdu, gains[i])
			k = mat.DenseCopyOf(proj.Dfdx)
			k.Add(k, &tmp)
		}

		var kx mat.VecDense
		kx.MulVec(k, sol.States[i].Vec())
		uff := sol.Inputs[i].Clone()
		for j := range uff {
			uff[j] -= kx.AtVec(j)
		}
		bias = append(bias, uff)
		full = append(full, k)
	}
	bias = append(bias, bias[n-1])
	full = append(full, full[n-1])
	return control.NewLinear(sol.Times, bias, full), nil
}
