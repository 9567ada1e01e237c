package sqp

import (
	"github.com/san-kum/mpcsqp/internal/dynamo"
	"github.com/san-kum/mpcsqp/internal/trajectory"
)

// initializeStates repeats initState on the first solve. Later solves pin
// node 0 to initState and interpolate the previous solution elsewhere,
// holding its last value past its end.
func (s *Solver) initializeStates(initState dynamo.State, grid []float64) []dynamo.State {
	x := make([]dynamo.State, len(grid))
	x[0] = initState.Clone()
	for i := 1; i < len(grid); i++ {
		if !s.hasPrimal {
			x[i] = initState.Clone()
			continue
		}
		x[i] = trajectory.Interpolate(trajectory.Locate(grid[i], s.primal.Times), s.primal.States)
	}
	return x
}

// initializeInputs interpolates the previous inputs where they exist and
// otherwise asks the operating-trajectory heuristic for the input at the
// start of each interval. Without a heuristic unknown inputs are zero.
func (s *Solver) initializeInputs(grid []float64, x []dynamo.State) []dynamo.Control {
	n := len(grid) - 1
	interpolateTill := grid[0]
	if s.hasPrimal {
		interpolateTill = s.primal.Times[len(s.primal.Times)-1]
	}

	operating := s.workers[0].Problem.Operating
	u := make([]dynamo.Control, n)
	for i := 0; i < n; i++ {
		switch {
		case grid[i] < interpolateTill:
			u[i] = trajectory.Interpolate(trajectory.Locate(grid[i], s.primal.Times), s.primal.Inputs)
		case operating != nil:
			_, _, inputs := operating.Query(x[i], grid[i], grid[i+1])
			if len(inputs) > 0 {
				u[i] = inputs[0].Clone()
			} else {
				u[i] = make(dynamo.Control, s.inputDim)
			}
		default:
			u[i] = make(dynamo.Control, s.inputDim)
		}
	}
	return u
}
