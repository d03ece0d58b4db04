package system

import (
	"context"
	"errors"
	realsync "sync"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/barrier"
	"github.com/bacalhau-project/eventcollector/pkg/telemetry"
)

const defaultCleanupTimeout = 10 * time.Second

// CleanupManager provides utilities for ensuring that sub-goroutines can
// clean up their resources before the main goroutine exits. Can be used to
// register callbacks for long-running system processes.
type CleanupManager struct {
	timeout time.Duration
	clock   clock.Clock

	fnsMutex sync.Mutex
	fns      []func(context.Context) error
	fnsDone  bool
}

// CleanupOption configures a CleanupManager.
type CleanupOption func(*CleanupManager)

// WithCleanupTimeout bounds how long Cleanup waits for callbacks.
func WithCleanupTimeout(timeout time.Duration) CleanupOption {
	return func(cm *CleanupManager) { cm.timeout = timeout }
}

// WithCleanupClock sets the time source for the cleanup deadline.
func WithCleanupClock(clk clock.Clock) CleanupOption {
	return func(cm *CleanupManager) { cm.clock = clk }
}

// NewCleanupManager returns a new CleanupManager instance.
func NewCleanupManager(opts ...CleanupOption) *CleanupManager {
	c := &CleanupManager{
		timeout: defaultCleanupTimeout,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fnsMutex.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "CleanupManager.fnsMutex",
	})
	return c
}

// RegisterCallback registers a clean-up function.
func (cm *CleanupManager) RegisterCallback(fn func() error) {
	cm.RegisterCallbackWithContext(func(context.Context) error {
		return fn()
	})
}

// RegisterCallbackWithContext registers a clean-up function that receives
// the context passed to Cleanup.
func (cm *CleanupManager) RegisterCallbackWithContext(fn func(context.Context) error) {
	cm.fnsMutex.Lock()
	defer cm.fnsMutex.Unlock()

	if cm.fnsDone {
		log.Error().Msg("CleanupManager: RegisterCallback called after Cleanup")
		return
	}
	cm.fns = append(cm.fns, fn)
}

// Cleanup runs all registered clean-up functions in sub-goroutines and waits
// for them to complete or for the cleanup timeout to elapse. Callbacks receive
// a detached copy of ctx, so cancelling ctx neither stops them nor shortens
// the wait. It returns the callbacks' errors, context cancellation excluded.
func (cm *CleanupManager) Cleanup(ctx context.Context) error {
	cm.fnsMutex.Lock()
	defer cm.fnsMutex.Unlock()

	if cm.fnsDone {
		log.Ctx(ctx).Warn().Msg("CleanupManager: Cleanup called again after already called")
		return nil
	}
	cm.fnsDone = true

	if len(cm.fns) == 0 {
		return nil
	}

	ctx = telemetry.NewDetachedContext(ctx)
	join, err := barrier.New(len(cm.fns),
		barrier.WithName("cleanup"),
		barrier.WithTimeout(cm.timeout),
		barrier.WithClock(cm.clock),
	)
	if err != nil {
		return err
	}
	defer join.Destroy()

	join.OnTimeout(func(fired, total int) {
		log.Ctx(ctx).Warn().
			Int("completed", fired).
			Int("total", total).
			Dur("timeout", cm.timeout).
			Msg("CleanupManager: clean-up callbacks did not finish in time")
	})

	var errsMu realsync.Mutex
	var errs error
	for i := 0; i < len(cm.fns); i++ {
		go func(fn func(context.Context) error) {
			err := fn(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Ctx(ctx).Error().Err(err).Msg("Error during clean-up callback")
				errsMu.Lock()
				errs = multierr.Append(errs, err)
				errsMu.Unlock()
			}
			join.ReportDone(err)
		}(cm.fns[i])
	}

	waitErr := join.Wait(ctx)

	errsMu.Lock()
	defer errsMu.Unlock()
	if errors.Is(waitErr, barrier.ErrTimedOut) {
		errs = multierr.Append(errs, bacerrors.Wrap(waitErr, "clean-up did not complete").WithCode(bacerrors.TimedOut))
	} else if waitErr != nil {
		errs = multierr.Append(errs, bacerrors.Wrap(waitErr, "clean-up did not complete"))
	}
	return errs
}
