package sqp

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/logging"
	"github.com/san-kum/mpcsqp/internal/metrics"
)

// filter holds the acceptance thresholds of the line search.
type filter struct {
	gMax, gMin, gammaC float64
}

func newFilter(s Settings) filter {
	return filter{gMax: s.GMax, gMin: s.GMin, gammaC: s.GammaC}
}

// accept decides whether trial may replace baseline. Above gMax the trial
// is too infeasible; below gMin only the merit counts; in between the
// trial must reduce either the merit or the violation by a margin scaled
// with gammaC.
func (f filter) accept(baseline, trial metrics.PerformanceIndex) bool {
	g := trial.Violation()
	switch {
	case g > f.gMax:
		return false
	case g < f.gMin:
		return trial.Merit < baseline.Merit
	default:
		gBase := baseline.Violation()
		return trial.Merit < baseline.Merit-f.gammaC*gBase || g < (1-f.gammaC)*gBase
	}
}

func trajectoryNorm(v []*mat.VecDense) float64 {
	sum := 0.0
	for _, vi := range v {
		sum += mat.Dot(vi, vi)
	}
	return math.Sqrt(sum)
}

func addScaled(x []float64, alpha float64, d *mat.VecDense) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + alpha*d.AtVec(i)
	}
	return out
}

// takeStep runs the filter line search along (dx, du) from (x, u). It
// returns the accepted trajectories, or the inputs unchanged when no step
// size was accepted, and whether the outer loop has converged.
func (s *Solver) takeStep(baseline metrics.PerformanceIndex, grid []float64, initState dynamo.State, dx, du []*mat.VecDense, x []dynamo.State, u []dynamo.Control) ([]dynamo.State, []dynamo.Control, bool) {
	log := s.log.V(logging.TRACE)
	if s.settings.PrintLinesearch {
		log = s.log
	}
	log.Info("Line search baseline", "performance", baseline.String())

	f := newFilter(s.settings)
	dxNorm, duNorm := trajectoryNorm(dx), trajectoryNorm(du)

	xNew := make([]dynamo.State, len(x))
	uNew := make([]dynamo.Control, len(u))
	for alpha := 1.0; alpha > s.settings.AlphaMin; alpha *= s.settings.AlphaDecay {
		for i := range u {
			uNew[i] = addScaled(u[i], alpha, du[i])
		}
		for i := range x {
			xNew[i] = addScaled(x[i], alpha, dx[i])
		}

		trial := s.transcriber.Evaluate(grid, initState, xNew, uNew)
		accepted := f.accept(baseline, trial)
		log.Info("Line search trial",
			"alpha", alpha, "accepted", accepted,
			"dx", alpha*dxNorm, "du", alpha*duNorm,
			"performance", trial.String())

		stepBelowTol := alpha*duNorm < s.settings.DeltaTol && alpha*dxNorm < s.settings.DeltaTol
		if accepted {
			improvementBelowTol := math.Abs(baseline.Merit-trial.Merit) < s.settings.CostTol && trial.Violation() < s.settings.GMin
			return xNew, uNew, stepBelowTol || improvementBelowTol
		}
		metrics.RejectedSteps.Inc()
		if stepBelowTol {
			log.Info("Step size below deltaTol, converged")
			return x, u, true
		}
	}

	log.Info("Step size below alpha_min, converged")
	return x, u, true
}
