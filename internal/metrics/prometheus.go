package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Solver phase labels.
const (
	PhaseLQApproximation = "lq_approximation"
	PhaseQPSolve         = "qp_solve"
	PhaseLineSearch      = "linesearch"
	PhaseController      = "controller"
)

var (
	// PhaseDuration measures each solver phase per SQP iteration.
	// Labels: phase
	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mpcsqp",
		Subsystem: "solver",
		Name:      "phase_duration_seconds",
		Help:      "Duration of SQP solver phases in seconds",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
	}, []string{"phase"})

	// Iterations counts SQP iterations across all solves.
	Iterations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpcsqp",
		Subsystem: "solver",
		Name:      "iterations_total",
		Help:      "Total SQP iterations",
	})

	// Solves counts finished solves.
	// Labels: status (converged, max_iterations, qp_failure)
	Solves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mpcsqp",
		Subsystem: "solver",
		Name:      "solves_total",
		Help:      "Total solver runs by outcome",
	}, []string{"status"})

	// RejectedSteps counts line search trial points that were rejected.
	RejectedSteps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpcsqp",
		Subsystem: "linesearch",
		Name:      "rejected_steps_total",
		Help:      "Total rejected line search trial steps",
	})

	// ControllerFallbacks counts MPC updates that kept the previous policy.
	ControllerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpcsqp",
		Subsystem: "mpc",
		Name:      "controller_fallbacks_total",
		Help:      "Total MPC updates that reused the previous controller after a failed solve",
	})
)

// PhaseTimer returns a RepeatedTimer exporting into PhaseDuration.
func PhaseTimer(phase string) *RepeatedTimer {
	return NewRepeatedTimer(PhaseDuration.WithLabelValues(phase))
}
