package main

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/logging"
)

var (
	configFile  string
	preset      string
	verbosity   int
	development bool
	nThreads    int
	horizon     float64
	duration    float64
	metricsAddr string
	parallelism int
	outFile     string
	compareLQR  bool
	saveRun     bool
	dataDir     string
)

// main registers the solve, run, bench, presets, init, list and show commands and
// exits with status 1 when the selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "mpcsqp",
		Short:        "multiple-shooting SQP solver for nonlinear MPC",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity (2 default, 3 verbose, 4 debug, 5 trace)")
	rootCmd.PersistentFlags().BoolVar(&development, "dev", false, "human readable logs")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./data", "directory for saved runs")

	taskFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "task file (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use preset task")
		cmd.Flags().IntVar(&nThreads, "threads", 0, "solver threads (0 keeps the task setting)")
	}

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "solve one optimal control problem and report the iterations",
		Args:  cobra.ExactArgs(1),
		RunE:  solveProblem,
	}
	taskFlags(solveCmd)
	solveCmd.Flags().Float64Var(&horizon, "horizon", 0, "horizon (0 keeps the task setting)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "simulate the plant under MPC",
		Args:  cobra.ExactArgs(1),
		RunE:  runClosedLoop,
	}
	taskFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration (0 keeps the task setting)")
	runCmd.Flags().BoolVar(&compareLQR, "compare-lqr", false, "repeat the run under an LQR around the target")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run every preset in closed loop concurrently",
		Args:  cobra.NoArgs,
		RunE:  benchPresets,
	}
	benchCmd.Flags().IntVar(&parallelism, "parallel", 0, "presets in flight (0 means all)")
	benchCmd.Flags().Float64Var(&duration, "time", 2.0, "simulated time per preset")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [model]",
		Short: "write a task file to start from",
		Args:  cobra.ExactArgs(1),
		RunE:  writeTask,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")
	initCmd.Flags().StringVarP(&outFile, "out", "o", "task.yaml", "output path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	rootCmd.AddCommand(solveCmd, runCmd, benchCmd, presetsCmd, initCmd, listCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (logr.Logger, error) {
	if verbosity == 0 {
		return logging.New(logging.DEFAULT, development)
	}
	return logging.New(verbosity, development)
}
