package asynctask

import (
	"context"
	"sync/atomic"
)

// A JoinHandle is the caller-facing handle: the right to observe the task's
// output exactly once, or to cancel or detach the task.
//
// A handle must end in exactly one of Release or Detach. Releasing an
// unsettled task cancels it; detaching lets it run to completion with the
// output discarded.
//
// JoinHandle methods are safe for concurrent use until Release or Detach,
// which consume the handle.
type JoinHandle[T any] struct {
	t        *task[T]
	released atomic.Bool
}

// TryJoin polls for the output without blocking.
//
// It returns settled == false while the task may still produce an output;
// if w is non-nil it is registered (replacing any previous registration) to
// be woken when the task settles. Once settled, ok reports whether an output
// was produced: the first settled observation with ok == true moves the
// value out, and later calls report ok == false.
//
// A task canceled or released while a poll is queued or in flight does not
// report settled until that poll's cleanup finished, so a settled
// observation always means the future is gone.
//
// Under [CatchPanic], observing a task whose poll panicked re-raises the
// captured [PanicError] here.
func (h *JoinHandle[T]) TryJoin(w *Waker) (value T, ok bool, settled bool) {
	h.guard()
	t := h.t
	for {
		s := t.state.Load()
		if s&stateCompleted != 0 {
			if s&stateSlotOwned == 0 {
				// Output already moved out or discarded.
				return value, false, true
			}
			if t.state.CompareAndSwap(s, (s|stateClosed)&^stateSlotOwned) {
				return t.takeOutput(), true, true
			}
			continue
		}
		if s&stateClosed != 0 && s&(stateScheduled|stateRunning) == 0 {
			if pe := t.panicked; pe != nil {
				panic(pe)
			}
			return value, false, true
		}
		if w == nil {
			return value, false, false
		}
		t.registerAwaiter(w)
		// Re-check: a settle that raced the registration is caught either
		// by the awaiter protocol or by this second look.
		w = nil
	}
}

// Wait blocks until the task settles or ctx is done. ok reports whether an
// output was produced; err is non-nil only when ctx ended the wait first.
// A nil ctx is treated as context.Background().
func (h *JoinHandle[T]) Wait(ctx context.Context) (value T, ok bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan struct{}, 1)
	w := NewWaker(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	for {
		value, ok, settled := h.TryJoin(w)
		if settled {
			return value, ok, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return value, false, ctx.Err()
		}
	}
}

// IsFinished reports whether the task has settled.
func (h *JoinHandle[T]) IsFinished() bool {
	h.guard()
	return settled(h.t.state.Load())
}

// Cancel requests cancellation without consuming the handle: no further
// polls will be issued, and the future is discarded once any in-flight poll
// exits. Cancel returns immediately; it never waits for a running poll.
// The handle remains usable to observe the settled state.
func (h *JoinHandle[T]) Cancel() {
	h.guard()
	h.t.cancel()
}

// Release consumes the handle: the task is canceled if it has not settled,
// and an output that was produced but never consumed is discarded.
func (h *JoinHandle[T]) Release() {
	if h.released.Swap(true) {
		return
	}
	h.t.cancel()
	h.t.dropJoinHandle()
}

// Detach consumes the handle without cancelling: the task may run to
// completion and its output, if any, is discarded when produced.
func (h *JoinHandle[T]) Detach() {
	if h.released.Swap(true) {
		return
	}
	h.t.dropJoinHandle()
}

func (h *JoinHandle[T]) guard() {
	if h.released.Load() {
		panic("asynctask: use of released JoinHandle")
	}
}
