// Package timegrid builds the shooting grid of a receding-horizon problem.
//
// A grid starts at the initial time, steps forward by dt, lands exactly on
// every event time inside the horizon and ends exactly on the final time.
// Consecutive points are never closer than the merge tolerance.
package timegrid

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultEpsilon is the merge tolerance used when none is configured.
const DefaultEpsilon = 1e-6

var ErrInvalidHorizon = errors.New("timegrid: invalid horizon")

// Build returns the grid times for [initTime, finalTime]. Regular points
// are counted from the most recent event so that rounding does not drift
// across phases.
func Build(initTime, finalTime, dt float64, eventTimes []float64, eps float64) ([]float64, error) {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidHorizon, dt)
	}
	if finalTime-initTime <= eps {
		return nil, fmt.Errorf("%w: final time %g is not after initial time %g", ErrInvalidHorizon, finalTime, initTime)
	}

	events := make([]float64, 0, len(eventTimes))
	for _, e := range eventTimes {
		if e > initTime && e < finalTime {
			events = append(events, e)
		}
	}
	sort.Float64s(events)

	g := &grid{eps: eps}
	g.times = append(g.times, initTime)
	g.pinned = append(g.pinned, true)

	anchor := initTime
	for _, e := range append(events, finalTime) {
		for k := 1; ; k++ {
			t := anchor + float64(k)*dt
			if t >= e-eps {
				break
			}
			g.push(t, false)
		}
		g.push(e, true)
		anchor = e
	}
	g.forceLast(finalTime)

	return g.times, nil
}

type grid struct {
	eps    float64
	times  []float64
	pinned []bool
}

// push appends t unless it is within eps of the previous point. A close
// pinned point (the initial time or an event) wins; a close regular point
// is replaced.
func (g *grid) push(t float64, pinned bool) {
	last := len(g.times) - 1
	if t-g.times[last] >= g.eps {
		g.times = append(g.times, t)
		g.pinned = append(g.pinned, pinned)
		return
	}
	if g.pinned[last] || !pinned {
		return
	}
	g.times[last] = t
	g.pinned[last] = true
}

// forceLast makes sure the grid ends exactly on finalTime.
func (g *grid) forceLast(finalTime float64) {
	last := len(g.times) - 1
	if g.times[last] == finalTime {
		return
	}
	if last == 0 || finalTime-g.times[last] >= g.eps {
		g.times = append(g.times, finalTime)
		g.pinned = append(g.pinned, true)
		return
	}
	g.times[last] = finalTime
}
