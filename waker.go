package asynctask

import "sync/atomic"

const (
	wakerOwned int32 = iota
	wakerBorrowed
	wakerReleased
)

// A Waker requests that its task be polled again.
//
// Wakers come in two flavors: task wakers, which a [Future] receives during
// Poll and clones to keep, and callback wakers made with [NewWaker], which
// executors and adapters use to bridge task completion into channels, condition
// variables or another task.
//
// A task waker counts as a live reference to its task until it is consumed
// by Wake or surrendered by Release. The waker handed to Poll is borrowed:
// it stays valid only for the duration of that call, its Wake behaves like
// WakeByRef, and any use after the poll returns panics. A future that wants
// to wake the task later keeps a Clone.
//
// Wakers are safe for concurrent use by multiple goroutines, except that
// Wake and Release each consume the waker and must happen at most once.
type Waker struct {
	c    taskCore
	fn   func()
	mode atomic.Int32
}

// NewWaker returns a callback waker: waking it invokes fn. fn must be safe
// to call from any goroutine and should not block.
func NewWaker(fn func()) *Waker {
	if fn == nil {
		panic("asynctask: NewWaker(nil)")
	}
	return &Waker{fn: fn}
}

func borrowedWaker(c taskCore) *Waker {
	w := &Waker{c: c}
	w.mode.Store(wakerBorrowed)
	return w
}

func (w *Waker) invalidate() {
	w.mode.Store(wakerReleased)
}

// Wake requests a poll and consumes the waker. On a borrowed waker it is
// equivalent to WakeByRef, since a borrow cannot be consumed.
//
// Wake-ups coalesce; see the package documentation.
func (w *Waker) Wake() {
	if w.mode.Load() == wakerBorrowed {
		w.WakeByRef()
		return
	}
	if !w.mode.CompareAndSwap(wakerOwned, wakerReleased) {
		panic("asynctask: use of released Waker")
	}
	if w.c != nil {
		w.c.wake()
		return
	}
	w.fn()
}

// WakeByRef requests a poll without consuming the waker.
func (w *Waker) WakeByRef() {
	if w.mode.Load() == wakerReleased {
		panic("asynctask: use of released Waker")
	}
	if w.c != nil {
		w.c.wakeByRef()
		return
	}
	w.fn()
}

// Clone returns a new waker for the same task, valid beyond the current
// poll. The clone must eventually be consumed by Wake or surrendered by
// Release.
func (w *Waker) Clone() *Waker {
	if w.mode.Load() == wakerReleased {
		panic("asynctask: use of released Waker")
	}
	if w.c != nil {
		w.c.cloneRef()
		return &Waker{c: w.c}
	}
	return &Waker{fn: w.fn}
}

// Release surrenders the waker without waking anything. Releasing a borrowed
// waker is a no-op; the poll it belongs to still owns it.
func (w *Waker) Release() {
	if w.mode.Load() == wakerBorrowed {
		return
	}
	if !w.mode.CompareAndSwap(wakerOwned, wakerReleased) {
		panic("asynctask: use of released Waker")
	}
	if w.c != nil {
		w.c.dropRef()
	}
}
