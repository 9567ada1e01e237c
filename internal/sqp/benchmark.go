package sqp

import (
	"fmt"
	"strings"
	"time"
)

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// BenchmarkingInformation reports the average time of each solver phase
// and its share of the total. It is empty before the first iteration.
func (s *Solver) BenchmarkingInformation() string {
	phases := []struct {
		name  string
		avg   time.Duration
		total time.Duration
	}{
		{"LQ Approximation", s.lqTimer.Average(), s.lqTimer.Total()},
		{"Solve QP", s.qpTimer.Average(), s.qpTimer.Total()},
		{"Linesearch", s.linesearchTimer.Average(), s.linesearchTimer.Total()},
		{"Compute Controller", s.controllerTimer.Average(), s.controllerTimer.Total()},
	}

	var total time.Duration
	for _, p := range phases {
		total += p.total
	}
	if total <= 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The benchmarking is computed over %d iterations.\n", s.totalIterations)
	fmt.Fprintf(&b, "SQP Benchmarking      : Average time [ms]   (%% of total runtime)\n")
	for _, p := range phases {
		fmt.Fprintf(&b, "  %-20s: %10.4f [ms]   (%5.2f%%)\n", p.name, milliseconds(p.avg), 100*float64(p.total)/float64(total))
	}
	return b.String()
}
