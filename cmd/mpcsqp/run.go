package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/config"
	"github.com/san-kum/mpcsqp/internal/control"
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/integrators"
	"github.com/san-kum/mpcsqp/internal/metrics"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/mpc"
	"github.com/san-kum/mpcsqp/internal/ocp"
	"github.com/san-kum/mpcsqp/internal/sim"
	"github.com/san-kum/mpcsqp/internal/sqp"
	"github.com/san-kum/mpcsqp/internal/storage"
)

// stabilityThreshold is the distance from the target that still counts
// as stable.
const stabilityThreshold = 0.1

// closedLoop wires plant, MPC and metrics into a simulator. The caller
// closes the returned solver.
func closedLoop(cfg *config.Config, loopOpts ...mpc.Option) (*sim.Simulator, *mpc.MPC, *sqp.Solver, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	plant, solver, err := newSolver(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := append([]mpc.Option{
		mpc.WithLogger(log),
		mpc.WithFallback(control.NewFeedforward([]float64{0}, []dynamo.Control{models.NewStaticOperatingPoint(plant).Input})),
	}, loopOpts...)
	loop, err := mpc.New(solver, cfg.MPC, opts...)
	if err != nil {
		solver.Close()
		return nil, nil, nil, err
	}

	integ, err := integrators.New(cfg.Sim.Integrator)
	if err != nil {
		solver.Close()
		return nil, nil, nil, err
	}

	targets := cfg.Targets(plant)
	s := sim.New(plant, integ, loop)
	s.SetLogger(log)
	s.AddMetric(metrics.NewControlEffort())
	s.AddMetric(metrics.NewStability(stabilityThreshold, targets.StateAt(0)))
	s.AddMetric(metrics.NewTrackingError(targets.StateAt))
	return s, loop, solver, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Println(status(false, fmt.Sprintf("metrics server: %v", err)))
		}
	}()
	return srv
}

func runClosedLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadTask(args[0])
	if err != nil {
		return err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr)
		defer srv.Close()
	}

	s, loop, solver, err := closedLoop(cfg)
	if err != nil {
		return err
	}
	defer solver.Close()

	fmt.Println(title(fmt.Sprintf("running %s under MPC for %.2fs", cfg.Model, cfg.Sim.Duration)))
	start := time.Now()
	result, err := s.Run(cmd.Context(), dynamo.State(cfg.InitState), cfg.SimConfig())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	elapsed := time.Since(start)

	updates, failures := loop.Stats()
	fmt.Println(field("completed in", elapsed))
	fmt.Println(field("steps", result.StepsTaken))
	fmt.Println(field("mpc updates", updates))
	fmt.Println(field("failed updates", status(failures == 0, fmt.Sprint(failures))))
	if updates > 0 {
		fmt.Println(field("time per update", elapsed/time.Duration(updates)))
	}
	for _, e := range result.Errors {
		fmt.Println(field("error", status(false, e.Error())))
	}
	fmt.Println()
	fmt.Println(title("metrics"))
	for _, name := range []string{"control_effort", "stability", "tracking_error"} {
		fmt.Println(field(name, fmt.Sprintf("%.6f", result.Metrics[name])))
	}
	fmt.Println()
	fmt.Println(plot(column(result.States, 0), "x0"))
	fmt.Println()
	fmt.Println(plot(column(result.Controls, 0), "u0"))

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, result, updates, failures)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(field("saved", runID))
	}

	if compareLQR {
		return runBaseline(cmd.Context(), cfg, result)
	}
	return nil
}

// runBaseline repeats the run under an LQR designed at the target and
// prints both sets of metrics.
func runBaseline(ctx context.Context, cfg *config.Config, mpcResult *dynamo.Result) error {
	plant, err := cfg.Plant()
	if err != nil {
		return err
	}
	targets := cfg.Targets(plant)
	q, r := cfg.Weights()
	lqr, err := control.DiscreteLQR(ocp.NewSystemDynamics(plant.Clone()), targets.StateAt(0), targets.InputAt(0), q, r, cfg.Sim.Dt)
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Sim.Integrator)
	if err != nil {
		return err
	}

	s := sim.New(plant, integ, lqr)
	s.AddMetric(metrics.NewControlEffort())
	s.AddMetric(metrics.NewStability(stabilityThreshold, targets.StateAt(0)))
	s.AddMetric(metrics.NewTrackingError(targets.StateAt))
	res, err := s.Run(ctx, dynamo.State(cfg.InitState), cfg.SimConfig())
	if err != nil {
		return err
	}

	names := []string{"control_effort", "stability", "tracking_error"}
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, fmt.Sprintf("%.6f", mpcResult.Metrics[name]), fmt.Sprintf("%.6f", res.Metrics[name])}
	}
	fmt.Println()
	fmt.Println(title("mpc vs lqr"))
	fmt.Println(table([]string{"METRIC", "MPC", "LQR"}, rows))
	return nil
}
