// Package parallel provides the fork-join worker pool used by the solver.
//
// An [Executor] owns threads-1 long-lived helper goroutines. Every call to
// [Executor.Run] hands the same task to each helper, runs one more copy on
// the calling goroutine as worker 0 and returns once all copies finished.
// Tasks split work among themselves through a shared counter, see
// [Executor.ForEach].
package parallel

import (
	"sync"
	"sync/atomic"
)

type job struct {
	task func(worker int)
	done chan<- any
}

type Executor struct {
	mu      sync.Mutex
	helpers []chan job
	closed  bool
}

// New starts an executor with the given total number of threads,
// including the caller. Values below one are treated as one.
func New(threads int) *Executor {
	if threads < 1 {
		threads = 1
	}
	e := &Executor{helpers: make([]chan job, threads-1)}
	for i := range e.helpers {
		ch := make(chan job)
		e.helpers[i] = ch
		go helperLoop(i+1, ch)
	}
	return e
}

func helperLoop(worker int, jobs <-chan job) {
	for j := range jobs {
		j.run(worker)
	}
}

func (j job) run(worker int) {
	defer func() {
		j.done <- recover()
	}()
	j.task(worker)
}

// Threads reports the number of workers a task runs on.
func (e *Executor) Threads() int {
	return len(e.helpers) + 1
}

// Run executes task on every worker and blocks until all return. A panic
// in any worker is re-raised on the caller after the others have joined.
// Calls are serialized.
func (e *Executor) Run(task func(worker int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		panic("parallel: Run on closed executor")
	}

	done := make(chan any, e.Threads())
	for _, ch := range e.helpers {
		ch <- job{task: task, done: done}
	}
	job{task: task, done: done}.run(0)

	var first any
	for i := 0; i < e.Threads(); i++ {
		if p := <-done; p != nil && first == nil {
			first = p
		}
	}
	if first != nil {
		panic(first)
	}
}

// ForEach calls fn exactly once for every index in [0, n). Indices are
// claimed by whichever worker is free next, so callers must only write to
// per-index or per-worker storage.
func (e *Executor) ForEach(n int, fn func(worker, i int)) {
	if n <= 0 {
		return
	}
	var next atomic.Int64
	e.Run(func(worker int) {
		for {
			i := int(next.Add(1) - 1)
			if i >= n {
				return
			}
			fn(worker, i)
		}
	})
}

// Close stops the helper goroutines. The executor must not be used after.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.helpers {
		close(ch)
	}
}
