//go:build unit || !integration

package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestCounter(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	counter, err := NewCounter(provider.Meter("test"), "reports", "completion reports")
	require.NoError(t, err)

	counter.Inc(ctx, attribute.String("barrier", "b1"))
	counter.Add(ctx, 2, attribute.String("barrier", "b1"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestTimer(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	histogram, err := NewDurationHistogram(provider.Meter("test"), "duration", "run duration")
	require.NoError(t, err)

	stop := Timer(ctx, histogram)
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, stop(), 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "duration", rm.ScopeMetrics[0].Metrics[0].Name)
}

func TestRecordErrorOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := NewSpan(context.Background(), provider.Tracer("test"), "work")
	expectedErr := errors.New("dummy error")

	actualErr := RecordErrorOnSpan(span)(expectedErr)
	assert.Equal(t, expectedErr, actualErr)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "dummy error", ended[0].Status().Description)
}

func TestRecordErrorOnSpanTwo(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := NewRootSpan(context.Background(), provider.Tracer("test"), "root")
	value, err := RecordErrorOnSpanTwo[string](span)("blah", nil)
	span.End()

	assert.Equal(t, "blah", value)
	assert.NoError(t, err)
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}

func TestDetachedContext(t *testing.T) {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "value"))
	cancel()

	detached := NewDetachedContext(parent)
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	assert.Equal(t, "value", detached.Value(key{}))
}

func TestCleanupWithoutProviders(t *testing.T) {
	assert.NoError(t, Cleanup())
}
