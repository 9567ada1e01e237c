package metrics

import (
	"github.com/san-kum/mpcsqp/internal/dynamo"
)

// Stability is the fraction of samples whose state stayed within
// threshold of the reference. Invalid states always count as violations.
type Stability struct {
	name       string
	threshold  float64
	reference  dynamo.State
	violations int
	samples    int
}

func NewStability(threshold float64, reference dynamo.State) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
		reference: reference,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if !x.IsValid() || x.Sub(s.reference).Norm() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
