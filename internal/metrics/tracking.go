package metrics

import (
	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// TrackingError is the mean squared distance between the state and a
// time-varying reference.
type TrackingError struct {
	name      string
	reference func(t float64) dynamo.State
	sum       float64
	samples   int
}

func NewTrackingError(reference func(t float64) dynamo.State) *TrackingError {
	return &TrackingError{
		name:      "tracking_error",
		reference: reference,
	}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.sum += x.Sub(e.reference(t)).SquaredNorm()
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.samples = 0
}
