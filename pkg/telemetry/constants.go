package telemetry

const (
	// disableTelemetry set to "1" turns off trace and metric export even when
	// an endpoint is configured.
	disableTelemetry = "EVENTCOLLECTOR_DISABLE_TELEMETRY"

	otlpEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otlpTracesEndpoint  = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	otlpMetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"

	otlpProtocol        = "OTEL_EXPORTER_OTLP_PROTOCOL"
	otlpTracesProtocol  = "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"
	otlpMetricsProtocol = "OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"

	otlpProtocolGrpc = "grpc"
	otlpProtocolHTTP = "http/protobuf"

	serviceName = "eventcollector"
)
