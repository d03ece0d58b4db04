//go:build unit || !integration

package barrier_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bacalhau-project/eventcollector/pkg/barrier"
)

func collectSums(t *testing.T, reader sdkmetric.Reader) map[string]int64 {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestBarrierMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mock := clock.NewMock()
	meter := provider.Meter("barrier-test")

	completed, err := barrier.New(2, barrier.WithClock(mock), barrier.WithMeter(meter), barrier.WithName("metrics"))
	require.NoError(t, err)
	completed.ReportDone(nil).ReportDone(nil).ReportDone(nil)
	completed.Destroy()

	timedOut, err := barrier.New(1, barrier.WithClock(mock), barrier.WithMeter(meter), barrier.WithTimeout(time.Second))
	require.NoError(t, err)
	mock.Add(time.Second)
	require.Eventually(t, func() bool { return timedOut.State() == barrier.TimedOut }, time.Second, time.Millisecond)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(3), sums["eventcollector.barrier.reports"])
	assert.Equal(t, int64(1), sums["eventcollector.barrier.overcompletions"])
	assert.Equal(t, int64(1), sums["eventcollector.barrier.completions"])
	assert.Equal(t, int64(1), sums["eventcollector.barrier.destroys"])
	assert.Equal(t, int64(1), sums["eventcollector.barrier.timeouts"])
}
