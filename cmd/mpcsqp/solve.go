package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func solveProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadTask(args[0])
	if err != nil {
		return err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	_, solver, err := newSolver(cfg, log)
	if err != nil {
		return err
	}
	defer solver.Close()

	fmt.Println(title(fmt.Sprintf("solving %s over %.2fs", cfg.Model, cfg.MPC.Horizon)))
	start := time.Now()
	runErr := solver.Run(0, dynamo.State(cfg.InitState), cfg.MPC.Horizon, nil)
	elapsed := time.Since(start)

	iterations, logErr := solver.IterationsLog()
	if logErr == nil {
		rows := make([][]string, len(iterations))
		for i, p := range iterations {
			rows[i] = []string{
				strconv.Itoa(i),
				fmt.Sprintf("%.6g", p.Merit),
				fmt.Sprintf("%.6g", p.TotalCost),
				fmt.Sprintf("%.3g", p.DynamicsISE),
				fmt.Sprintf("%.3g", p.StateInputISE),
				fmt.Sprintf("%.3g", p.InequalityISE),
			}
		}
		fmt.Println(table([]string{"ITER", "MERIT", "COST", "DYN ISE", "EQ ISE", "INEQ ISE"}, rows))
	}
	if runErr != nil {
		fmt.Println(field("status", status(false, runErr.Error())))
		return runErr
	}

	sol, err := solver.PrimalSolution()
	if err != nil {
		return err
	}
	final := iterations[len(iterations)-1]
	fmt.Println(field("status", status(final.Violation() < cfg.SQP.GMin, "solved")))
	fmt.Println(field("nodes", len(sol.Times)))
	fmt.Println(field("iterations", len(iterations)))
	fmt.Println(field("wall time", elapsed))
	fmt.Println(field("controller", fmt.Sprintf("%T", sol.Controller)))
	fmt.Println()
	fmt.Println(plot(column(sol.States, 0), "x0 over the horizon"))
	fmt.Println()
	fmt.Println(plot(column(sol.Inputs, 0), "u0 over the horizon"))
	fmt.Println()
	fmt.Println(solver.BenchmarkingInformation())
	return nil
}
