package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RepeatedTimer accumulates the duration of a code section that runs many
// times. When an observer is attached every interval is also exported.
type RepeatedTimer struct {
	observer prometheus.Observer
	count    int
	total    time.Duration
	max      time.Duration
	started  time.Time
}

func NewRepeatedTimer(observer prometheus.Observer) *RepeatedTimer {
	return &RepeatedTimer{observer: observer}
}

func (r *RepeatedTimer) Start() {
	r.started = time.Now()
}

func (r *RepeatedTimer) End() {
	d := time.Since(r.started)
	r.total += d
	r.count++
	if d > r.max {
		r.max = d
	}
	if r.observer != nil {
		r.observer.Observe(d.Seconds())
	}
}

func (r *RepeatedTimer) Reset() {
	r.count = 0
	r.total = 0
	r.max = 0
}

func (r *RepeatedTimer) Count() int           { return r.count }
func (r *RepeatedTimer) Total() time.Duration { return r.total }
func (r *RepeatedTimer) Max() time.Duration   { return r.max }

func (r *RepeatedTimer) Average() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.total / time.Duration(r.count)
}
