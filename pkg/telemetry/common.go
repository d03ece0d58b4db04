package telemetry

import (
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/multierr"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/version"
)

// SetupFromEnvs installs global trace and meter providers when OTLP endpoints
// are configured through the standard OTEL_EXPORTER_OTLP_* variables.
func SetupFromEnvs() {
	newTraceProvider()
	newMeterProvider()

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Err(err).Msg("Error occurred while handling spans")
	}))
}

// Cleanup flushes the remaining traces and metrics in memory to the exporter and releases any telemetry resources.
func Cleanup() error {
	err := multierr.Combine(
		wrapCleanup(cleanupTraceProvider(), "tracing cleanup error"),
		wrapCleanup(cleanupMeterProvider(), "meter cleanup error"),
	)
	if err != nil {
		return bacerrors.Wrap(err, "telemetry cleanup error")
	}
	return nil
}

func wrapCleanup(err error, msg string) error {
	if err == nil {
		return nil
	}
	return bacerrors.Wrap(err, msg)
}

// newResource returns a resource describing this application.
func newResource() *resource.Resource {
	res, err := resource.Merge(
		resource.Environment(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.GITVERSION),
		),
	)

	if err != nil {
		log.Error().Err(err).Msg("failed to create otel resource. Falling back to default resource config")
		res = resource.Default()
	}
	return res
}
