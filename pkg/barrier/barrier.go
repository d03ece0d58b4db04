package barrier

import (
	"errors"
	stdmath "math"
	"sync/atomic"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/lib/math"
	"github.com/bacalhau-project/eventcollector/pkg/lib/validate"
)

// Barrier counts completion reports towards a fixed total and notifies
// observers along the way. It is safe for concurrent use.
type Barrier struct {
	id        string
	name      string
	total     int
	timeout   time.Duration
	clock     clock.Clock
	logger    zerolog.Logger
	metrics   *metrics
	createdAt time.Time

	// mu guards every field below except destroyed, which is also read
	// without the lock before each observer invocation.
	mu           sync.Mutex
	fired        int
	state        State
	deadline     *clock.Timer
	deadlineDone bool
	destroyed    atomic.Bool

	completed chan struct{}
	settled   chan struct{}
	outcome   error

	observers observers
}

// New creates a barrier that completes after total calls to ReportDone.
// total must be positive. With WithTimeout a deadline is armed immediately.
func New(total int, opts ...Option) (*Barrier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validate.IsGreaterThanZero(total, "total must be a positive integer, got %d", total); err != nil {
		return nil, newInvalidArgument(err)
	}
	if cfg.hasTimeout {
		if err := validateTimeout(cfg.timeout); err != nil {
			return nil, newInvalidArgument(err)
		}
	}
	cfg.applyDefaults()

	id := uuid.NewString()
	logger := cfg.logger.With().
		Str("barrier_id", id).
		Str("barrier_name", cfg.name).
		Logger()

	b := &Barrier{
		id:        id,
		name:      cfg.name,
		total:     total,
		timeout:   cfg.timeout,
		clock:     cfg.clock,
		logger:    logger,
		metrics:   newMetrics(cfg.meter, cfg.name, logger),
		createdAt: cfg.clock.Now(),
		state:     Active,
		completed: make(chan struct{}),
		settled:   make(chan struct{}),
	}
	b.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "Barrier.mu",
	})

	if cfg.hasTimeout {
		b.deadline = b.clock.AfterFunc(cfg.timeout, b.onTimeout)
	}

	b.logger.Debug().
		Int("total", total).
		Dur("timeout", cfg.timeout).
		Msg("barrier created")
	return b, nil
}

// NewNumeric creates a barrier from loosely typed numbers, such as values
// decoded from configuration files. total must be a positive whole number.
// timeoutMillis of zero means no deadline, otherwise it must be a positive
// whole number of milliseconds.
func NewNumeric[T math.Number](total T, timeoutMillis T, opts ...Option) (*Barrier, error) {
	if err := validate.IsPositiveInteger(total, "total must be a positive integer, got %v", total); err != nil {
		return nil, newInvalidArgument(err)
	}
	if float64(total) > stdmath.MaxInt {
		return nil, newInvalidArgument(errors.New("total is out of range"))
	}
	if timeoutMillis != 0 {
		if err := validate.IsPositiveInteger(timeoutMillis,
			"timeout must be a positive integer number of milliseconds, got %v", timeoutMillis); err != nil {
			return nil, newInvalidArgument(err)
		}
		if float64(timeoutMillis) > float64(stdmath.MaxInt64/int64(time.Millisecond)) {
			return nil, newInvalidArgument(errors.New("timeout is out of range"))
		}
		opts = append(opts, WithTimeout(time.Duration(timeoutMillis)*time.Millisecond))
	}
	return New(int(total), opts...)
}

func validateTimeout(d time.Duration) error {
	if err := validate.IsGreaterThanZero(d, "timeout must be positive, got %s", d); err != nil {
		return err
	}
	if d%time.Millisecond != 0 {
		return errors.New("timeout must be a whole number of milliseconds, got " + d.String())
	}
	return nil
}

// ReportDone records that one of the awaited operations finished. data is
// passed to done observers unchanged. Reports on a destroyed barrier are
// ignored. It returns the barrier to allow chaining.
func (b *Barrier) ReportDone(data any) *Barrier {
	b.mu.Lock()
	if b.destroyed.Load() {
		b.mu.Unlock()
		return b
	}

	b.fired++
	fired := b.fired
	overCompleted := fired > b.total
	completed := fired == b.total
	if completed {
		b.cancelDeadlineLocked()
		b.state = Complete
		close(b.completed)
		b.settleLocked(nil)
	}
	b.mu.Unlock()

	b.metrics.inc(b.metrics.reports)

	if overCompleted {
		b.metrics.inc(b.metrics.overCompletions)
		err := newOverCompletion(b.id, fired, b.total)
		b.logger.Warn().Int("fired", fired).Int("total", b.total).Msg(err.Error())
		b.emitError(err)
	}

	b.emitDone(fired, data)

	if completed {
		b.metrics.recordCompletion(b.clock.Since(b.createdAt))
		b.logger.Debug().Int("total", b.total).Msg("all completions reported")
		b.emitAllDone()
	}
	return b
}

// Destroy silences the barrier: the deadline is cancelled and later reports
// are ignored. It is idempotent and safe to call from observers.
func (b *Barrier) Destroy() {
	b.mu.Lock()
	if b.destroyed.Load() {
		b.mu.Unlock()
		return
	}
	b.destroyed.Store(true)
	b.cancelDeadlineLocked()
	b.state = Destroyed
	b.settleLocked(ErrDestroyed)
	fired := b.fired
	b.mu.Unlock()

	b.metrics.inc(b.metrics.destroys)
	b.logger.Debug().Int("fired", fired).Int("total", b.total).Msg("barrier destroyed")
}

// onTimeout runs on the deadline timer's goroutine.
func (b *Barrier) onTimeout() {
	b.mu.Lock()
	if b.destroyed.Load() || b.deadlineDone {
		b.mu.Unlock()
		return
	}
	b.deadlineDone = true
	b.state = TimedOut
	b.settleLocked(ErrTimedOut)
	fired := b.fired
	b.mu.Unlock()

	b.metrics.inc(b.metrics.timeouts)
	b.logger.Debug().
		Int("fired", fired).
		Int("total", b.total).
		Dur("timeout", b.timeout).
		Msg("barrier deadline elapsed")
	b.emitTimeout(fired)
}

// cancelDeadlineLocked stops the deadline at most once.
func (b *Barrier) cancelDeadlineLocked() {
	if b.deadline == nil || b.deadlineDone {
		return
	}
	b.deadline.Stop()
	b.deadlineDone = true
}

// settleLocked records the first terminal outcome for Wait.
func (b *Barrier) settleLocked(outcome error) {
	select {
	case <-b.settled:
		return
	default:
	}
	b.outcome = outcome
	close(b.settled)
}

// ID returns the unique identifier assigned at construction.
func (b *Barrier) ID() string {
	return b.id
}

// Name returns the name set with WithName.
func (b *Barrier) Name() string {
	return b.name
}

// Total returns the number of reports required for completion.
func (b *Barrier) Total() int {
	return b.total
}

// Fired returns the number of reports received so far. It may exceed Total.
func (b *Barrier) Fired() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired
}

// State returns the current lifecycle state.
func (b *Barrier) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsDestroyed reports whether Destroy has been called.
func (b *Barrier) IsDestroyed() bool {
	return b.destroyed.Load()
}

func (b *Barrier) emitDone(fired int, data any) {
	for _, sub := range b.observers.done.snapshot() {
		if b.destroyed.Load() {
			return
		}
		if !sub.claim() {
			continue
		}
		if sub.once {
			b.observers.done.remove(sub.id)
		}
		fn := sub.fn
		b.invoke("done", func() { fn(fired, b.total, data) })
	}
}

func (b *Barrier) emitAllDone() {
	for _, sub := range b.observers.allDone.snapshot() {
		if b.destroyed.Load() {
			return
		}
		if !sub.claim() {
			continue
		}
		if sub.once {
			b.observers.allDone.remove(sub.id)
		}
		fn := sub.fn
		b.invoke("alldone", func() { fn(b.total) })
	}
}

func (b *Barrier) emitTimeout(fired int) {
	for _, sub := range b.observers.timeout.snapshot() {
		if b.destroyed.Load() {
			return
		}
		if !sub.claim() {
			continue
		}
		if sub.once {
			b.observers.timeout.remove(sub.id)
		}
		fn := sub.fn
		b.invoke("timeout", func() { fn(fired, b.total) })
	}
}

// emitError delivers err to error observers. With none registered the error
// is dropped after being logged by the caller.
func (b *Barrier) emitError(err bacerrors.Error) {
	for _, sub := range b.observers.err.snapshot() {
		if b.destroyed.Load() {
			return
		}
		if !sub.claim() {
			continue
		}
		if sub.once {
			b.observers.err.remove(sub.id)
		}
		fn := sub.fn
		b.invokeErrorHandler(func() { fn(err) })
	}
}

// invoke runs an observer and turns a panic into an ObserverPanic error for
// the error observers.
func (b *Barrier) invoke(kind string, fn func()) {
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	if recovered == nil {
		return
	}
	err := newObserverPanic(b.id, kind, recovered)
	b.logger.Error().Str("observer", kind).Interface("panic", recovered).Msg(err.Error())
	b.emitError(err)
}

// invokeErrorHandler recovers panics in error observers without re-emitting
// them, which could recurse.
func (b *Barrier) invokeErrorHandler(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("observer", "error").Interface("panic", r).Msg("error observer panicked")
		}
	}()
	fn()
}
