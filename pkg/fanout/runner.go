package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/barrier"
	"github.com/bacalhau-project/eventcollector/pkg/lib/math"
	"github.com/bacalhau-project/eventcollector/pkg/lib/validate"
	"github.com/bacalhau-project/eventcollector/pkg/telemetry"
)

// Runner runs a batch of tasks with bounded concurrency and joins them on a
// barrier.
type Runner struct {
	concurrency int
	timeout     time.Duration
	name        string
	clock       clock.Clock
	logger      zerolog.Logger
	progress    []ProgressFunc

	runDuration metric.Int64Histogram
	taskCount   *telemetry.Counter
	skipCount   *telemetry.Counter
}

func NewRunner(opts ...Option) (*Runner, error) {
	r := defaultRunner()
	for _, opt := range opts {
		opt(r)
	}

	err := multierr.Combine(
		validate.IsGreaterThanZero(r.concurrency, "concurrency must be greater than zero, got %d", r.concurrency),
		validate.IsGreaterOrEqualToZero(r.timeout, "timeout must not be negative, got %s", r.timeout),
		wholeMillis(r.timeout),
	)
	if err != nil {
		return nil, bacerrors.Wrap(err, "invalid fanout runner").WithCode(bacerrors.InvalidArgument)
	}

	meter := telemetry.GetMeter()
	r.runDuration, err = telemetry.NewDurationHistogram(meter,
		"eventcollector.fanout.duration", "Duration of a fan-out run.")
	if err != nil {
		return nil, err
	}
	r.taskCount, err = telemetry.NewCounter(meter,
		"eventcollector.fanout.tasks", "Number of fan-out tasks that finished.")
	if err != nil {
		return nil, err
	}
	r.skipCount, err = telemetry.NewCounter(meter,
		"eventcollector.fanout.skipped", "Number of fan-out tasks never started because the run ended first.")
	if err != nil {
		return nil, err
	}
	return r, nil
}

// wholeMillis rejects timeouts the barrier deadline cannot represent.
func wholeMillis(d time.Duration) error {
	if d%time.Millisecond != 0 {
		return fmt.Errorf("timeout must be a whole number of milliseconds, got %s", d)
	}
	return nil
}

// Run executes tasks and returns once every started task has returned. A
// timed out run cancels the context passed to outstanding tasks, skips the
// ones not yet started and returns an error with code TimedOut together with
// the partial report. Task failures do not fail the run; see Report.Err.
func (r *Runner) Run(ctx context.Context, tasks []Task) (*Report, error) {
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "fanout.Runner.Run",
		oteltrace.WithAttributes(
			attribute.String("fanout.name", r.name),
			attribute.Int("fanout.tasks", len(tasks)),
		))
	defer span.End()

	report := &Report{
		Name:    r.name,
		Total:   len(tasks),
		Results: make([]Result, len(tasks)),
	}
	if len(tasks) == 0 {
		return report, nil
	}
	for i, task := range tasks {
		if err := validate.NotNil(task, "task %d is nil", i); err != nil {
			return nil, telemetry.RecordErrorOnSpan(span)(
				bacerrors.Wrap(err, "invalid fan-out tasks").WithCode(bacerrors.InvalidArgument))
		}
	}

	stopTimer := telemetry.Timer(ctx, r.runDuration, attribute.String("fanout.name", r.name))
	start := r.clock.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []barrier.Option{
		barrier.WithName(r.name),
		barrier.WithClock(r.clock),
		barrier.WithLogger(r.logger),
	}
	if r.timeout > 0 {
		opts = append(opts, barrier.WithTimeout(r.timeout))
	}
	b, err := barrier.New(len(tasks), opts...)
	if err != nil {
		return nil, telemetry.RecordErrorOnSpan(span)(err)
	}
	defer b.Destroy()
	report.ID = b.ID()

	logger := r.logger.With().Str("fanout_id", b.ID()).Str("fanout_name", r.name).Logger()

	b.OnTimeout(func(fired, total int) {
		logger.Warn().
			Int("completed", fired).
			Int("total", total).
			Dur("timeout", r.timeout).
			Msg("fan-out timed out, cancelling outstanding tasks")
		cancel()
	})
	for _, fn := range r.progress {
		fn := fn
		b.OnDone(func(fired, total int, data any) {
			fn(fired, total, data.(Result))
		})
	}

	var group errgroup.Group
	group.SetLimit(math.Min(r.concurrency, len(tasks)))
	for i, task := range tasks {
		i, task := i, task
		report.Results[i] = Result{ID: uuid.NewString(), Index: i}
		group.Go(func() error {
			res := &report.Results[i]
			if err := runCtx.Err(); err != nil {
				res.Err = bacerrors.Wrap(err, "task %d was not started", i).WithCode(bacerrors.TaskFailed)
				return nil
			}
			r.runTask(runCtx, task, res)
			r.taskCount.Inc(ctx, attribute.Bool("fanout.task.failed", res.Err != nil))
			b.ReportDone(*res)
			return nil
		})
	}

	waitErr := b.Wait(ctx)
	if waitErr != nil {
		cancel()
	}
	_ = group.Wait()

	report.Completed = b.Fired()
	if skipped := lo.CountBy(report.Results, func(res Result) bool { return !res.Finished }); skipped > 0 {
		r.skipCount.Add(ctx, int64(skipped), attribute.String("fanout.name", r.name))
	}
	report.Duration = r.clock.Since(start)
	stopTimer()

	logger.Debug().
		Int("completed", report.Completed).
		Int("total", report.Total).
		Int("failed", len(report.Failed())).
		Dur("duration", report.Duration).
		Msg("fan-out finished")

	switch {
	case waitErr == nil:
		return report, nil
	case errors.Is(waitErr, barrier.ErrTimedOut):
		report.TimedOut = true
		err = bacerrors.Wrap(waitErr, "fan-out %s timed out after %s with %d of %d tasks completed",
			r.name, r.timeout, report.Completed, report.Total).
			WithCode(bacerrors.TimedOut)
	default:
		err = waitErr
	}
	span.SetAttributes(attribute.Bool("fanout.timed_out", report.TimedOut))
	return report, telemetry.RecordErrorOnSpan(span)(err)
}

func (r *Runner) runTask(ctx context.Context, task Task, res *Result) {
	started := r.clock.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Err = bacerrors.New("task %d panicked: %v", res.Index, p).WithCode(bacerrors.TaskFailed)
		}
		res.Duration = r.clock.Since(started)
		res.Finished = true
	}()

	value, err := task(ctx)
	res.Value = value
	if err != nil {
		res.Err = bacerrors.Wrap(err, "task %d failed", res.Index).WithCode(bacerrors.TaskFailed)
	}
}
