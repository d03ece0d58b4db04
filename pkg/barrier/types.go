package barrier

import (
	"errors"

	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
)

// DoneHandler is notified for every completion report.
type DoneHandler func(fired, total int, data any)

// AllDoneHandler is notified once, when the number of reports reaches the total.
type AllDoneHandler func(total int)

// TimeoutHandler is notified when the deadline elapses before completion.
type TimeoutHandler func(fired, total int)

// ErrorHandler receives errors detected after construction, such as
// over-completion.
type ErrorHandler func(err bacerrors.Error)

// Unsubscribe removes a previously registered handler. Calling it more than
// once is harmless.
type Unsubscribe func()

// State describes where a barrier is in its lifecycle.
type State int

const (
	// Active barriers are still counting.
	Active State = iota
	// Complete barriers received their total number of reports.
	Complete
	// TimedOut barriers hit their deadline first. They keep counting.
	TimedOut
	// Destroyed barriers are silent.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Complete:
		return "Complete"
	case TimedOut:
		return "TimedOut"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

var (
	// ErrTimedOut is returned by Wait when the deadline fired before completion.
	ErrTimedOut = errors.New("barrier timed out before all completions were reported")

	// ErrDestroyed is returned by Wait when the barrier was destroyed before
	// completion.
	ErrDestroyed = errors.New("barrier destroyed before all completions were reported")
)
