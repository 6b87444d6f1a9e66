package asynctask

// A Future is a suspendable computation, polled to a decision each time the
// task runs.
//
// Poll either produces the final output, returning (value, true), or reports
// that the computation is not done yet, returning (_, false). A future that
// returns pending must arrange to be polled again: it retains a clone of the
// provided [Waker] and wakes it when progress becomes possible. Returning
// pending without holding a waker parks the task forever.
//
// The waker w is borrowed for the duration of the call; see [Waker].
//
// Poll is never invoked by two threads at once, and never again after it has
// produced a value or after the task was closed.
type Future[T any] interface {
	Poll(w *Waker) (T, bool)
}

// FutureFunc adapts a plain function to the [Future] interface.
type FutureFunc[T any] func(w *Waker) (T, bool)

// Poll calls f.
func (f FutureFunc[T]) Poll(w *Waker) (T, bool) {
	return f(w)
}

// Disposer is implemented by futures, outputs and schedulers that hold
// resources needing deterministic release.
//
// The task calls Dispose exactly once, at the point where it gives the value
// up: for a future, when it is discarded after completing, being canceled,
// or panicking; for an output, when it is settled but will never be consumed
// (the task was detached or its handle released); for a scheduler, when the
// last handle referencing the task goes away.
type Disposer interface {
	Dispose()
}

// Ready returns a [Future] that completes on its first poll with v.
func Ready[T any](v T) Future[T] {
	return FutureFunc[T](func(*Waker) (T, bool) {
		return v, true
	})
}

// Never returns a [Future] that never completes and never wakes.
// The task it is spawned with can only settle by being canceled.
func Never[T any]() Future[T] {
	return FutureFunc[T](func(*Waker) (T, bool) {
		var zero T
		return zero, false
	})
}
