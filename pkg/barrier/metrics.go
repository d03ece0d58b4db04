package barrier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bacalhau-project/eventcollector/pkg/telemetry"
)

const metricPrefix = "eventcollector.barrier."

// metrics records barrier activity. Instruments that fail to register are
// left nil and skipped, metrics never fail a barrier operation.
type metrics struct {
	attrs []attribute.KeyValue

	reports         *telemetry.Counter
	overCompletions *telemetry.Counter
	completions     *telemetry.Counter
	timeouts        *telemetry.Counter
	destroys        *telemetry.Counter
	duration        metric.Int64Histogram
}

func newMetrics(meter metric.Meter, name string, logger zerolog.Logger) *metrics {
	m := &metrics{
		attrs: []attribute.KeyValue{attribute.String("barrier.name", name)},
	}

	counter := func(suffix, description string) *telemetry.Counter {
		c, err := telemetry.NewCounter(meter, metricPrefix+suffix, description)
		if err != nil {
			logger.Debug().Err(err).Str("instrument", metricPrefix+suffix).Msg("failed to create counter")
			return nil
		}
		return c
	}

	m.reports = counter("reports", "Number of completion reports received")
	m.overCompletions = counter("overcompletions", "Number of completion reports beyond the required total")
	m.completions = counter("completions", "Number of barriers that received all required reports")
	m.timeouts = counter("timeouts", "Number of barriers whose deadline elapsed first")
	m.destroys = counter("destroys", "Number of barriers destroyed")

	histogram, err := telemetry.NewDurationHistogram(meter, metricPrefix+"completion.duration",
		"Time from barrier creation to the final required report")
	if err != nil {
		logger.Debug().Err(err).Msg("failed to create completion duration histogram")
	} else {
		m.duration = histogram
	}
	return m
}

func (m *metrics) inc(c *telemetry.Counter) {
	if c != nil {
		c.Inc(context.Background(), m.attrs...)
	}
}

func (m *metrics) recordCompletion(elapsed time.Duration) {
	m.inc(m.completions)
	if m.duration != nil {
		m.duration.Record(context.Background(), elapsed.Milliseconds(), metric.WithAttributes(m.attrs...))
	}
}
