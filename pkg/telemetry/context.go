package telemetry

import (
	"context"
	"time"
)

// NewDetachedContext returns a context that keeps the values of parent, including its span, but is never
// cancelled and has no deadline. Clean-up work uses it to flush telemetry after the command context was
// cancelled by a signal.
func NewDetachedContext(parent context.Context) context.Context {
	return detachedContext{parent: parent}
}

var _ context.Context = detachedContext{}

type detachedContext struct {
	parent context.Context
}

func (d detachedContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (d detachedContext) Done() <-chan struct{} {
	return nil
}

func (d detachedContext) Err() error {
	return nil
}

func (d detachedContext) Value(key any) any {
	return d.parent.Value(key)
}
