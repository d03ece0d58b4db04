package fanout

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultConcurrency = 8
	defaultName        = "fanout"
)

type Option func(*Runner)

// WithConcurrency limits how many tasks run at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithTimeout bounds each run. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

func WithName(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.name = name
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(r *Runner) { r.clock = clk }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithProgress registers fn to be called as tasks finish.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.progress = append(r.progress, fn)
		}
	}
}

func defaultRunner() *Runner {
	return &Runner{
		concurrency: defaultConcurrency,
		name:        defaultName,
		clock:       clock.New(),
		logger:      log.Logger,
	}
}
