package config

// Configuration keys. Each maps to an environment variable with the
// EVENTCOLLECTOR_ prefix and dots replaced by underscores, for example
// EVENTCOLLECTOR_FANOUT_CONCURRENCY.
const (
	KeyFanoutConcurrency = "fanout.concurrency"
	KeyFanoutTimeout     = "fanout.timeout"

	KeyProbeRetries        = "probe.retries"
	KeyProbeRetryWaitMin   = "probe.retrywaitmin"
	KeyProbeRetryWaitMax   = "probe.retrywaitmax"
	KeyProbeRequestTimeout = "probe.requesttimeout"

	KeyOutputFormat = "output.format"

	KeyLoggingLevel = "logging.level"
	KeyLoggingMode  = "logging.mode"
)
