package barrier

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/metric"

	"github.com/bacalhau-project/eventcollector/pkg/telemetry"
)

const defaultName = "barrier"

type config struct {
	name string

	timeout    time.Duration
	hasTimeout bool

	clock  clock.Clock
	logger *zerolog.Logger
	meter  metric.Meter
}

// Option configures a Barrier at construction.
type Option func(*config)

func defaultConfig() config {
	return config{
		name: defaultName,
	}
}

// WithTimeout arms a deadline. If fewer than total reports arrive within d,
// timeout observers are notified. d must be positive and a whole number of
// milliseconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// WithName sets a human-friendly name used in logs and metric attributes.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithClock sets the time source for the deadline. Tests use clock.NewMock().
func WithClock(clk clock.Clock) Option {
	return func(c *config) { c.clock = clk }
}

// WithLogger sets the logger. Defaults to the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = &logger }
}

// WithMeter sets the meter used to create the barrier's instruments.
func WithMeter(meter metric.Meter) Option {
	return func(c *config) { c.meter = meter }
}

func (c *config) applyDefaults() {
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.logger == nil {
		c.logger = &log.Logger
	}
	if c.meter == nil {
		c.meter = telemetry.GetMeter()
	}
}
