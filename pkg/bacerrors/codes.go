package bacerrors

// ErrorCode classifies an Error so callers can branch on it without string
// matching.
type ErrorCode string

const (
	// UnknownError is assigned when no more specific code applies.
	UnknownError ErrorCode = "UnknownError"

	// InvalidArgument is returned synchronously when constructor or operation
	// arguments fail validation.
	InvalidArgument ErrorCode = "InvalidArgument"

	// OverCompletion is delivered to error observers when a barrier receives
	// more completion reports than it was created for.
	OverCompletion ErrorCode = "OverCompletion"

	// ObserverPanic is delivered to error observers when a notification
	// callback panicked.
	ObserverPanic ErrorCode = "ObserverPanic"

	// TimedOut means a deadline elapsed before the awaited work completed.
	TimedOut ErrorCode = "TimedOut"

	// ConfigurationError marks invalid configuration values.
	ConfigurationError ErrorCode = "ConfigurationError"

	// TaskFailed marks a failed fan-out task.
	TaskFailed ErrorCode = "TaskFailed"
)
