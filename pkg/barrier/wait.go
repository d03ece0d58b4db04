package barrier

import "context"

// Completed returns a channel that is closed once the total number of reports
// has been received. It is never closed for barriers that are destroyed or
// time out without completing.
func (b *Barrier) Completed() <-chan struct{} {
	return b.completed
}

// Wait blocks until the barrier settles and reports how: nil when all
// completions were reported, ErrTimedOut when the deadline fired first,
// ErrDestroyed when Destroy was called first. The first of these outcomes
// sticks, so a barrier that times out and later completes still returns
// ErrTimedOut. If ctx ends first, its error is returned.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.settled:
		return b.outcome
	case <-ctx.Done():
		return ctx.Err()
	}
}
