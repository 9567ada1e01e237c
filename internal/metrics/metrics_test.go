package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func TestPerformanceIndexAdditivity(t *testing.T) {
	parts := []PerformanceIndex{
		{Merit: 1, TotalCost: 0.5, DynamicsISE: 0.1, StateInputISE: 0.01, InequalityISE: 0.2, InequalityPenalty: 0.5},
		{Merit: 2, TotalCost: 2, DynamicsISE: 0.3},
		{Merit: -1, TotalCost: -1.5, InequalityISE: 0.05, InequalityPenalty: 0.5},
	}

	forward := PerformanceIndex{}
	for _, p := range parts {
		forward = forward.Add(p)
	}
	backward := PerformanceIndex{}
	for i := len(parts) - 1; i >= 0; i-- {
		backward = parts[i].Add(backward)
	}
	grouped := parts[0].Add(parts[1].Add(parts[2]))

	for _, got := range []PerformanceIndex{backward, grouped} {
		if math.Abs(got.Merit-forward.Merit) > 1e-12 ||
			math.Abs(got.DynamicsISE-forward.DynamicsISE) > 1e-12 ||
			math.Abs(got.InequalityPenalty-forward.InequalityPenalty) > 1e-12 {
			t.Errorf("sum depends on order: %v vs %v", got, forward)
		}
	}

	if want := math.Sqrt(0.4 + 0.01 + 0.25); math.Abs(forward.Violation()-want) > 1e-12 {
		t.Errorf("violation = %f, want %f", forward.Violation(), want)
	}
}

func TestRepeatedTimer(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_timer_seconds", Help: "test"})
	timer := NewRepeatedTimer(h)

	for i := 0; i < 3; i++ {
		timer.Start()
		time.Sleep(time.Millisecond)
		timer.End()
	}

	if timer.Count() != 3 {
		t.Errorf("expected 3 intervals, got %d", timer.Count())
	}
	if timer.Total() < 3*time.Millisecond {
		t.Errorf("total %v shorter than the sleeps", timer.Total())
	}
	if timer.Max() < timer.Average() {
		t.Errorf("max %v below average %v", timer.Max(), timer.Average())
	}
	if got := testutil.CollectAndCount(h); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}

	timer.Reset()
	if timer.Count() != 0 || timer.Total() != 0 || timer.Average() != 0 {
		t.Error("reset did not clear the timer")
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(nil, dynamo.Control{3, -4}, 0)
	m.Observe(nil, dynamo.Control{0, 1}, 0.1)

	if math.Abs(m.Value()-13) > 1e-12 {
		t.Errorf("expected mean squared effort 13, got %f", m.Value())
	}
	if m.Peak() != 4 {
		t.Errorf("expected peak 4, got %f", m.Peak())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear effort")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(1.0, dynamo.State{1, 0})
	if m.Value() != 1 {
		t.Error("empty stability should be 1")
	}
	m.Observe(dynamo.State{1.5, 0}, nil, 0)
	m.Observe(dynamo.State{3, 0}, nil, 0)
	m.Observe(dynamo.State{math.NaN(), 0}, nil, 0)
	m.Observe(dynamo.State{1, 0.2}, nil, 0)

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError(func(t float64) dynamo.State { return dynamo.State{t, 0} })
	m.Observe(dynamo.State{0, 1}, nil, 0)
	m.Observe(dynamo.State{1, 0}, nil, 2)

	if math.Abs(m.Value()-1) > 1e-12 {
		t.Errorf("expected 1, got %f", m.Value())
	}
	if m.Name() != "tracking_error" {
		t.Errorf("unexpected name %s", m.Name())
	}
}
