package mpc

import (
	"context"
	"errors"
	"math"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/control"
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/logging"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/qp"
	"github.com/san-kum/mpcsqp/internal/sim"
	"github.com/san-kum/mpcsqp/internal/sqp"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

// flakyBackend fails every solve while fail is set.
type flakyBackend struct {
	*qp.Riccati
	fail bool
}

func (b *flakyBackend) Solve(dx0 *mat.VecDense, dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) (qp.Solution, qp.Status) {
	if b.fail {
		return qp.Solution{}, qp.Indefinite
	}
	return b.Riccati.Solve(dx0, dynamics, cost, constraints)
}

type constant dynamo.Control

func (c constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control(c).Clone()
}

func diag(v ...float64) *mat.Dense {
	d := mat.NewDense(len(v), len(v), nil)
	for i, vi := range v {
		d.Set(i, i, vi)
	}
	return d
}

func pendulumProblem() ocp.Problem {
	return ocp.Problem{
		Dynamics:     ocp.NewSystemDynamics(models.NewPendulum()),
		Cost:         ocp.NewQuadraticCost(diag(10, 1), diag(0.1), trajectory.TargetTrajectories{}),
		TerminalCost: ocp.NewQuadraticTerminalCost(diag(50, 5), trajectory.TargetTrajectories{}),
	}
}

func newSolver(opts ...sqp.Option) *sqp.Solver {
	settings := sqp.DefaultSettings()
	settings.Dt = 0.05
	settings.NThreads = 2
	opts = append([]sqp.Option{sqp.WithLogger(logging.NewTestLogger())}, opts...)
	s, err := sqp.New(pendulumProblem(), settings, opts...)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	ginkgo.DeferCleanup(s.Close)
	return s
}

func simConfig(duration float64) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.01
	cfg.Duration = duration
	return cfg
}

var _ = ginkgo.Describe("MPC", func() {
	ginkgo.Context("in closed loop with a pendulum", func() {
		var (
			loop *MPC
			res  *dynamo.Result
		)

		ginkgo.BeforeEach(func() {
			var err error
			loop, err = New(newSolver(), Settings{Horizon: 1.0, Period: 0.05}, WithLogger(logging.NewTestLogger()))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			s := sim.New(models.NewPendulum(), integrators.NewRK4(), loop)
			res, err = s.Run(context.Background(), dynamo.State{0.5, 0}, simConfig(2.0))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("re-solves once per period", func() {
			updates, failures := loop.Stats()
			gomega.Expect(updates).To(gomega.Equal(40))
			gomega.Expect(failures).To(gomega.BeZero())
		})

		ginkgo.It("brings the pendulum to rest faster than damping alone", func() {
			open := sim.New(models.NewPendulum(), integrators.NewRK4(), control.NewNone(1))
			free, err := open.Run(context.Background(), dynamo.State{0.5, 0}, simConfig(2.0))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			final := res.States[len(res.States)-1]
			gomega.Expect(math.Abs(final[0])).To(gomega.BeNumerically("<", 0.1))
			gomega.Expect(final.Norm()).To(gomega.BeNumerically("<", free.States[len(free.States)-1].Norm()))
		})

		ginkgo.It("forgets everything on Reset", func() {
			loop.Reset()
			updates, _ := loop.Stats()
			gomega.Expect(updates).To(gomega.BeZero())
			_, err := loop.Solver().PrimalSolution()
			gomega.Expect(err).To(gomega.MatchError(sqp.ErrNoSolution))
		})
	})

	ginkgo.Context("when the solver fails", func() {
		var backend *flakyBackend

		ginkgo.BeforeEach(func() {
			backend = &flakyBackend{Riccati: qp.NewRiccati()}
		})

		ginkgo.It("uses the fallback before any solve succeeded", func() {
			backend.fail = true
			loop, err := New(newSolver(sqp.WithBackend(backend)), DefaultSettings(), WithFallback(constant{3}))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(loop.Compute(dynamo.State{0.2, 0}, 0)).To(gomega.Equal(dynamo.Control{3}))
			_, failures := loop.Stats()
			gomega.Expect(failures).To(gomega.Equal(1))
		})

		ginkgo.It("returns zero input without a fallback", func() {
			backend.fail = true
			loop, err := New(newSolver(sqp.WithBackend(backend)), DefaultSettings())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(loop.Compute(dynamo.State{0.2, 0}, 0)).To(gomega.Equal(dynamo.Control{0}))
		})

		ginkgo.It("keeps the previous controller", func() {
			loop, err := New(newSolver(sqp.WithBackend(backend)), Settings{Horizon: 1.0, Period: 0.1})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			x := dynamo.State{0.3, -0.1}
			gomega.Expect(loop.Update(x, 0)).To(gomega.Succeed())
			sol, err := loop.Solver().PrimalSolution()
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			want := sol.Controller.Compute(x, 0.1)

			backend.fail = true
			err = loop.Update(x, 0.1)
			var qpErr *sqp.QPError
			gomega.Expect(errors.As(err, &qpErr)).To(gomega.BeTrue())
			gomega.Expect(qpErr.Status).To(gomega.Equal(qp.Indefinite))

			gomega.Expect(loop.Compute(x, 0.1)).To(gomega.Equal(want))
			updates, failures := loop.Stats()
			gomega.Expect(updates).To(gomega.Equal(2))
			gomega.Expect(failures).To(gomega.Equal(1))
		})

		ginkgo.It("serves the previous policy when a periodic re-solve fails", func() {
			loop, err := New(newSolver(sqp.WithBackend(backend)), Settings{Horizon: 1.0, Period: 0.1})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			x := dynamo.State{0.3, -0.1}
			loop.Compute(x, 0)
			sol, err := loop.Solver().PrimalSolution()
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			want := sol.Controller.Compute(x, 0.1)

			backend.fail = true
			gomega.Expect(loop.Compute(x, 0.1)).To(gomega.Equal(want))
			updates, failures := loop.Stats()
			gomega.Expect(updates).To(gomega.Equal(2))
			gomega.Expect(failures).To(gomega.Equal(1))

			backend.fail = false
			loop.Compute(x, 0.2)
			updates, failures = loop.Stats()
			gomega.Expect(updates).To(gomega.Equal(3))
			gomega.Expect(failures).To(gomega.Equal(1))
		})
	})

	ginkgo.DescribeTable("settings validation",
		func(s Settings, valid bool) {
			err := s.Validate()
			if valid {
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			} else {
				gomega.Expect(err).To(gomega.MatchError(ErrInvalidSettings))
			}
		},
		ginkgo.Entry("defaults", DefaultSettings(), true),
		ginkgo.Entry("zero horizon", Settings{Horizon: 0, Period: 0.1}, false),
		ginkgo.Entry("zero period", Settings{Horizon: 1, Period: 0}, false),
		ginkgo.Entry("period beyond horizon", Settings{Horizon: 1, Period: 2}, false),
	)
})
