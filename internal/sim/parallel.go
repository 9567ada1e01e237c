package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// Scenario is one closed-loop run of an ensemble. Build is called on the
// run's own goroutine, so simulators with stateful controllers or
// integrators are never shared.
type Scenario struct {
	Name    string
	Initial dynamo.State
	Config  dynamo.Config
	Build   func() (*Simulator, error)
}

// RunEnsemble runs the scenarios with at most limit of them in flight
// (no limit when limit <= 0). Results keep the order of scenarios. The
// first failure cancels the remaining runs.
func RunEnsemble(ctx context.Context, scenarios []Scenario, limit int) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			s, err := sc.Build()
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			res, err := s.Run(ctx, sc.Initial, sc.Config)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
