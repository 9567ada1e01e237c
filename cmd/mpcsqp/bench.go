package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/config"
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/models"
	"github.com/san-kum/mpcsqp/internal/mpc"
	"github.com/san-kum/mpcsqp/internal/sim"
	"github.com/san-kum/mpcsqp/internal/sqp"
)

type benchCase struct {
	model, preset string
	cfg           *config.Config
	loop          *mpc.MPC
	solver        *sqp.Solver
}

func benchPresets(cmd *cobra.Command, args []string) error {
	var cases []*benchCase
	for _, model := range models.Names() {
		for _, name := range config.ListPresets(model) {
			cfg := config.GetPreset(model, name)
			cfg.Sim.Duration = duration
			// presets run side by side, so each solver stays single threaded
			cfg.SQP.NThreads = 1
			cases = append(cases, &benchCase{model: model, preset: name, cfg: cfg})
		}
	}

	scenarios := make([]sim.Scenario, len(cases))
	for i, c := range cases {
		c := c
		scenarios[i] = sim.Scenario{
			Name:    c.model + "/" + c.preset,
			Initial: dynamo.State(c.cfg.InitState),
			Config:  c.cfg.SimConfig(),
			Build: func() (*sim.Simulator, error) {
				s, loop, solver, err := closedLoop(c.cfg)
				if err != nil {
					return nil, err
				}
				c.loop, c.solver = loop, solver
				return s, nil
			},
		}
	}
	defer func() {
		for _, c := range cases {
			if c.solver != nil {
				c.solver.Close()
			}
		}
	}()

	fmt.Println(title(fmt.Sprintf("benchmarking %d presets, %.1fs each", len(cases), duration)))
	start := time.Now()
	results, err := sim.RunEnsemble(context.Background(), scenarios, parallelism)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	rows := make([][]string, len(cases))
	for i, c := range cases {
		updates, failures := c.loop.Stats()
		iters := c.solver.TotalIterations()
		rows[i] = []string{
			c.model,
			c.preset,
			fmt.Sprint(updates),
			status(failures == 0, fmt.Sprint(failures)),
			fmt.Sprintf("%.2f", float64(iters)/float64(max(updates, 1))),
			fmt.Sprintf("%.4g", results[i].Metrics["tracking_error"]),
			fmt.Sprintf("%.2f", results[i].Metrics["stability"]),
		}
	}
	fmt.Println(table([]string{"MODEL", "PRESET", "UPDATES", "FAILED", "ITERS/UPDATE", "TRACKING", "STABILITY"}, rows))
	fmt.Println(field("wall time", elapsed))
	return nil
}
