package trajectory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

var (
	ErrInvalidSchedule = errors.New("trajectory: mode sequence must have one more entry than event times")
	ErrEmptyTargets    = errors.New("trajectory: target trajectories are empty")
)

// ModeSchedule splits the time axis into phases: mode ModeSequence[i] is
// active between EventTimes[i-1] and EventTimes[i].
type ModeSchedule struct {
	EventTimes   []float64
	ModeSequence []int
}

func DefaultModeSchedule() ModeSchedule {
	return ModeSchedule{ModeSequence: []int{0}}
}

func NewModeSchedule(events []float64, modes []int) (ModeSchedule, error) {
	if len(modes) != len(events)+1 {
		return ModeSchedule{}, fmt.Errorf("%w: %d events, %d modes", ErrInvalidSchedule, len(events), len(modes))
	}
	if !sort.Float64sAreSorted(events) {
		return ModeSchedule{}, fmt.Errorf("%w: event times not sorted", ErrInvalidSchedule)
	}
	return ModeSchedule{
		EventTimes:   append([]float64(nil), events...),
		ModeSequence: append([]int(nil), modes...),
	}, nil
}

// ModeAt returns the mode active at t. An event time belongs to the phase
// that ends there.
func (m ModeSchedule) ModeAt(t float64) int {
	if len(m.ModeSequence) == 0 {
		return 0
	}
	i := sort.SearchFloat64s(m.EventTimes, t)
	return m.ModeSequence[i]
}

// TargetTrajectories is the reference the tracking costs pull towards.
type TargetTrajectories struct {
	Times  []float64
	States []dynamo.State
	Inputs []dynamo.Control
}

// ConstantTarget holds a single set point over all time.
func ConstantTarget(x dynamo.State, u dynamo.Control) TargetTrajectories {
	return TargetTrajectories{
		Times:  []float64{0},
		States: []dynamo.State{x.Clone()},
		Inputs: []dynamo.Control{u.Clone()},
	}
}

func (tt TargetTrajectories) Empty() bool {
	return len(tt.Times) == 0
}

func (tt TargetTrajectories) Validate() error {
	if tt.Empty() {
		return ErrEmptyTargets
	}
	if len(tt.States) != len(tt.Times) {
		return fmt.Errorf("%w: %d times, %d states", dynamo.ErrDimensionMismatch, len(tt.Times), len(tt.States))
	}
	if len(tt.Inputs) != 0 && len(tt.Inputs) != len(tt.Times) {
		return fmt.Errorf("%w: %d times, %d inputs", dynamo.ErrDimensionMismatch, len(tt.Times), len(tt.Inputs))
	}
	return nil
}

func (tt TargetTrajectories) StateAt(t float64) dynamo.State {
	return Interpolate(Locate(t, tt.Times), tt.States)
}

// InputAt returns the reference input, or nil when the target carries none.
func (tt TargetTrajectories) InputAt(t float64) dynamo.Control {
	if len(tt.Inputs) == 0 {
		return nil
	}
	return Interpolate(Locate(t, tt.Times), tt.Inputs)
}
