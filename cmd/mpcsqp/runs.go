package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/mpcsqp/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.Model,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2fs", r.Duration),
			fmt.Sprintf("%d/%d", r.Failures, r.Updates),
			fmt.Sprintf("%.4f", r.Metrics["tracking_error"]),
		}
	}
	fmt.Println(table([]string{"ID", "MODEL", "TIME", "DURATION", "FAILED", "TRACKING"}, rows))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	task, err := st.LoadTask(args[0])
	if err != nil {
		return err
	}

	fmt.Println(title(meta.ID))
	fmt.Println(field("model", meta.Model))
	fmt.Println(field("horizon", meta.Horizon))
	fmt.Println(field("period", meta.Period))
	fmt.Println(field("integrator", meta.Integrator))
	fmt.Println(field("mpc updates", meta.Updates))
	fmt.Println(field("failed updates", status(meta.Failures == 0, fmt.Sprint(meta.Failures))))
	for _, name := range []string{"control_effort", "stability", "tracking_error"} {
		fmt.Println(field(name, fmt.Sprintf("%.6f", meta.Metrics[name])))
	}

	stateDim := len(task.InitState)
	for i := 0; i < stateDim; i++ {
		fmt.Println()
		fmt.Println(plot(column(rows, i), fmt.Sprintf("x%d", i)))
	}
	if len(rows) > 0 && len(rows[0]) > stateDim {
		fmt.Println()
		fmt.Println(plot(column(rows, stateDim), "u0"))
	}
	return nil
}
