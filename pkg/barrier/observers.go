package barrier

import (
	"sync"
	"sync/atomic"
)

type subscription[F any] struct {
	id   uint64
	fn   F
	once bool
	used atomic.Bool
}

// claim reports whether the subscription may be invoked. One-shot
// subscriptions can be claimed only once even under concurrent emission.
func (s *subscription[F]) claim() bool {
	if !s.once {
		return true
	}
	return s.used.CompareAndSwap(false, true)
}

// registry holds the handlers for one notification kind. Writers replace the
// slice instead of mutating it, so a snapshot can be iterated without holding
// the lock while handlers run.
type registry[F any] struct {
	mu   sync.RWMutex
	subs []*subscription[F]
}

func (r *registry[F]) add(sub *subscription[F]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*subscription[F], len(r.subs), len(r.subs)+1)
	copy(next, r.subs)
	r.subs = append(next, sub)
}

func (r *registry[F]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*subscription[F], 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.id != id {
			next = append(next, sub)
		}
	}
	r.subs = next
}

func (r *registry[F]) snapshot() []*subscription[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subs
}

func (r *registry[F]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

type observers struct {
	nextID atomic.Uint64

	done    registry[DoneHandler]
	allDone registry[AllDoneHandler]
	timeout registry[TimeoutHandler]
	err     registry[ErrorHandler]
}

func subscribe[F any](o *observers, r *registry[F], fn F, once bool) Unsubscribe {
	sub := &subscription[F]{
		id:   o.nextID.Add(1),
		fn:   fn,
		once: once,
	}
	r.add(sub)

	var removed atomic.Bool
	return func() {
		if removed.CompareAndSwap(false, true) {
			r.remove(sub.id)
		}
	}
}

func noopUnsubscribe() {}

// OnDone registers fn to be called for every completion report with the
// running count, the total and the report's data.
func (b *Barrier) OnDone(fn DoneHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.done, fn, false)
}

// OnceDone is OnDone for the next report only.
func (b *Barrier) OnceDone(fn DoneHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.done, fn, true)
}

// OnAllDone registers fn to be called when the total is reached.
func (b *Barrier) OnAllDone(fn AllDoneHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.allDone, fn, false)
}

// OnceAllDone is OnAllDone registered as a one-shot handler.
func (b *Barrier) OnceAllDone(fn AllDoneHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.allDone, fn, true)
}

// OnTimeout registers fn to be called if the deadline elapses first.
func (b *Barrier) OnTimeout(fn TimeoutHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.timeout, fn, false)
}

// OnceTimeout is OnTimeout registered as a one-shot handler.
func (b *Barrier) OnceTimeout(fn TimeoutHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.timeout, fn, true)
}

// OnError registers fn to receive errors detected after construction.
// Without any error handler such errors are only logged.
func (b *Barrier) OnError(fn ErrorHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.err, fn, false)
}

// OnceError is OnError for the next error only.
func (b *Barrier) OnceError(fn ErrorHandler) Unsubscribe {
	if fn == nil {
		return noopUnsubscribe
	}
	return subscribe(&b.observers, &b.observers.err, fn, true)
}
