package fanout

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// Task is one unit of work run by a Runner. Tasks must return promptly once
// ctx is cancelled.
type Task func(ctx context.Context) (any, error)

// Result is the outcome of a single task.
type Result struct {
	ID    string
	Index int
	Value any
	Err   error
	// Finished is false for tasks that were never started because the run
	// had already been cancelled or timed out.
	Finished bool
	Duration time.Duration
}

// ProgressFunc is called each time a task finishes. Calls may happen
// concurrently from different task goroutines.
type ProgressFunc func(completed, total int, result Result)

// Report summarises a run. Results are ordered by task index.
type Report struct {
	ID        string
	Name      string
	Total     int
	Completed int
	TimedOut  bool
	Duration  time.Duration
	Results   []Result
}

// Succeeded returns the results of tasks that finished without error.
func (r *Report) Succeeded() []Result {
	return lo.Filter(r.Results, func(res Result, _ int) bool {
		return res.Finished && res.Err == nil
	})
}

// Failed returns the results of tasks that errored or never ran.
func (r *Report) Failed() []Result {
	return lo.Filter(r.Results, func(res Result, _ int) bool {
		return res.Err != nil
	})
}

// Err combines the errors of every failed task, or returns nil.
func (r *Report) Err() error {
	return multierr.Combine(lo.Map(r.Failed(), func(res Result, _ int) error {
		return res.Err
	})...)
}
