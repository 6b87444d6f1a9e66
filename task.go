package asynctask

import (
	"runtime"
	"sync/atomic"
)

// taskCore is the type-erased face of the control block, so that Waker and
// Runnable need no type parameter and a Scheduler can handle tasks of any
// output type.
type taskCore interface {
	run() bool
	rescheduleSelf()
	releaseRunnable()
	wake()
	wakeByRef()
	cloneRef()
	dropRef()
}

// task is the single shared allocation behind all three handles. Every
// transition goes through the packed atomic state word; the remaining fields
// are guarded by it: future and output by stateRunning/stateSlotOwned,
// awaiter by the stateRegistering/stateNotifying protocol, panicked by the
// close transition that publishes it.
type task[T any] struct {
	state    atomic.Uint64
	sched    Scheduler
	future   Future[T]
	output   T
	awaiter  *Waker
	panicked *PanicError
	obs      Observer
	catch    bool
}

// run drives one poll. It reports whether the future was actually polled;
// a task canceled before this runnable got to run is a quiet no-op.
func (t *task[T]) run() bool {
	for {
		s := t.state.Load()
		if s&stateClosed != 0 {
			// Canceled while queued. This runnable holds the last right to
			// poll, so it finalizes the slot before bowing out.
			t.finalizeFuture()
			for {
				s = t.state.Load()
				if t.state.CompareAndSwap(s, s&^stateScheduled) {
					break
				}
			}
			t.notifyAwaiter()
			t.dropRef()
			return false
		}
		if t.state.CompareAndSwap(s, (s&^stateScheduled)|stateRunning) {
			break
		}
	}

	w := borrowedWaker(t)
	t.onPollBegin()

	finished := false
	defer func() {
		w.invalidate()
		if !finished {
			// Unwind path: the poll panicked (or exited the goroutine).
			// Settle the task before the panic continues out of Run.
			t.onPollEnd(true)
			t.abortRun()
		}
	}()

	var out T
	var ready bool
	if t.catch {
		var pe *PanicError
		out, ready, pe = t.pollCaught(w)
		if pe != nil {
			t.panicked = pe
			finished = true
			t.onPollEnd(true)
			t.abortRun()
			return true
		}
	} else {
		out, ready = t.future.Poll(w)
	}
	finished = true

	if ready {
		t.complete(out)
		return true
	}

	// Pending: release run permission, rescheduling once if a wake-up
	// arrived mid-poll, or finalizing if a cancellation did.
	for {
		s := t.state.Load()
		if s&stateClosed != 0 {
			t.onPollEnd(true)
			t.finalizeFuture()
			for {
				s = t.state.Load()
				if t.state.CompareAndSwap(s, s&^(stateRunning|stateScheduled)) {
					break
				}
			}
			t.notifyAwaiter()
			t.dropRef()
			return true
		}
		if s&stateScheduled != 0 {
			if t.state.CompareAndSwap(s, s&^stateRunning) {
				t.onPollEnd(false)
				// The coalesced reschedule. This runnable's reference
				// transfers into the fresh one.
				t.scheduleRunnable(false)
				return true
			}
			continue
		}
		if t.state.CompareAndSwap(s, s&^stateRunning) {
			t.onPollEnd(false)
			t.dropRef()
			return true
		}
	}
}

// pollCaught polls under a recover, used by the CatchPanic mode. A nil
// PanicError with done unwinding means runtime.Goexit, which recover cannot
// intercept; the caller's guard settles the task and the exit continues.
func (t *task[T]) pollCaught(w *Waker) (out T, ready bool, pe *PanicError) {
	done := false
	defer func() {
		if done {
			return
		}
		if v := recover(); v != nil {
			pe = capturePanic(v)
		}
	}()
	out, ready = t.future.Poll(w)
	done = true
	return
}

// complete stores the output in the slot the future occupied and settles the
// task. If nobody can consume the output (the join side detached or already
// canceled), it is disposed on the spot and the task also closes.
func (t *task[T]) complete(out T) {
	t.disposeFutureValue()
	t.output = out
	for {
		s := t.state.Load()
		n := (s &^ (stateRunning | stateScheduled)) | stateCompleted
		abandoned := s&stateJoinHandle == 0 || s&stateClosed != 0
		if abandoned {
			n |= stateClosed
		}
		if t.state.CompareAndSwap(s, n) {
			if abandoned && t.claimSlot() {
				t.disposeOutput()
			}
			if s&stateClosed == 0 {
				t.onSettle(true)
			}
			t.notifyAwaiter()
			break
		}
	}
	t.onPollEnd(true)
	t.dropRef()
}

// abortRun closes the task from inside a poll that is not coming back:
// a panic, a caught panic, or a goroutine exit.
func (t *task[T]) abortRun() {
	t.finalizeFuture()
	var wasClosed bool
	for {
		s := t.state.Load()
		wasClosed = s&stateClosed != 0
		if t.state.CompareAndSwap(s, (s&^(stateRunning|stateScheduled))|stateClosed) {
			break
		}
	}
	if !wasClosed {
		t.onSettle(false)
	}
	t.notifyAwaiter()
	t.dropRef()
}

// cancel requests that no further polls be issued. With a poll queued or in
// flight, destruction of the future is deferred to the thread holding it;
// otherwise it happens here.
func (t *task[T]) cancel() {
	for {
		s := t.state.Load()
		if s&(stateCompleted|stateClosed) != 0 {
			return
		}
		if s&(stateScheduled|stateRunning) != 0 {
			if t.state.CompareAndSwap(s, s|stateClosed) {
				t.onSettle(false)
				return
			}
			continue
		}
		if t.state.CompareAndSwap(s, s|stateClosed) {
			t.finalizeFuture()
			t.onSettle(false)
			t.notifyAwaiter()
			return
		}
	}
}

// wake is the consuming wake-up: the caller's reference is either converted
// into the fresh runnable's reference or dropped.
func (t *task[T]) wake() {
	for {
		s := t.state.Load()
		if s&(stateCompleted|stateClosed|stateScheduled) != 0 {
			// Settled, or a runnable already exists, or a reschedule is
			// already pending: this wake-up coalesces away.
			t.dropRef()
			return
		}
		if s&stateRunning != 0 {
			// Record the reschedule; the polling thread delivers it.
			if t.state.CompareAndSwap(s, s|stateScheduled) {
				t.dropRef()
				return
			}
			continue
		}
		if t.state.CompareAndSwap(s, s|stateScheduled) {
			t.scheduleRunnable(false)
			return
		}
	}
}

func (t *task[T]) wakeByRef() {
	for {
		s := t.state.Load()
		if s&(stateCompleted|stateClosed|stateScheduled) != 0 {
			return
		}
		if s&stateRunning != 0 {
			if t.state.CompareAndSwap(s, s|stateScheduled) {
				return
			}
			continue
		}
		if t.state.CompareAndSwap(s, s|stateScheduled) {
			t.scheduleRunnable(true)
			return
		}
	}
}

// scheduleRunnable hands a fresh Runnable to the sink. addRef is false when
// the caller's own reference transfers into the runnable.
func (t *task[T]) scheduleRunnable(addRef bool) {
	if addRef {
		t.cloneRef()
	}
	t.onSchedule()
	t.sched.Schedule(&runnable{c: t})
}

// rescheduleSelf is Runnable.Schedule: the existing schedule reference goes
// straight back to the sink.
func (t *task[T]) rescheduleSelf() {
	t.onSchedule()
	t.sched.Schedule(&runnable{c: t})
}

// releaseRunnable surrenders an unrun runnable. The schedule reference was
// the only way this task could ever be polled again, so unless it already
// settled it closes here, and the slot is finalized unless a poll is still
// in flight.
func (t *task[T]) releaseRunnable() {
	// A live runnable implies stateScheduled is set and stateRunning is
	// clear: only run consumes the former and only run sets the latter.
	var setClosed bool
	for {
		s := t.state.Load()
		n := s &^ stateScheduled
		setClosed = s&(stateClosed|stateCompleted) == 0
		if setClosed {
			n |= stateClosed
		}
		if t.state.CompareAndSwap(s, n) {
			break
		}
	}
	t.finalizeFuture()
	if setClosed {
		t.onSettle(false)
	}
	t.notifyAwaiter()
	t.dropRef()
}

// claimSlot takes the one-shot right to finalize the computation slot.
func (t *task[T]) claimSlot() bool {
	for {
		s := t.state.Load()
		if s&stateSlotOwned == 0 {
			return false
		}
		if t.state.CompareAndSwap(s, s&^stateSlotOwned) {
			return true
		}
	}
}

func (t *task[T]) finalizeFuture() {
	if t.claimSlot() {
		t.disposeFutureValue()
	}
}

func (t *task[T]) disposeFutureValue() {
	f := t.future
	t.future = nil
	if d, ok := f.(Disposer); ok {
		d.Dispose()
	}
}

func (t *task[T]) disposeOutput() {
	v := t.output
	var zero T
	t.output = zero
	if d, ok := any(v).(Disposer); ok {
		d.Dispose()
	}
}

func (t *task[T]) takeOutput() T {
	v := t.output
	var zero T
	t.output = zero
	return v
}

func (t *task[T]) cloneRef() {
	t.state.Add(refOne)
}

func (t *task[T]) dropRef() {
	n := t.state.Add(^(refOne - 1))
	if refCount(n) == 0 && n&stateJoinHandle == 0 {
		t.destroy()
	}
}

// dropJoinHandle clears the join-side interest. An output that settled but
// was never consumed is disposed here.
func (t *task[T]) dropJoinHandle() {
	for {
		s := t.state.Load()
		n := s &^ stateJoinHandle
		disposeOut := false
		if s&stateCompleted != 0 && s&stateSlotOwned != 0 {
			n = (n | stateClosed) &^ stateSlotOwned
			disposeOut = true
		}
		if t.state.CompareAndSwap(s, n) {
			if disposeOut {
				t.disposeOutput()
			}
			if refCount(n) == 0 {
				t.destroy()
			}
			return
		}
	}
}

// destroy runs when the reference count hit zero with no join handle left.
// Nothing can reach the task anymore; finalize whatever is still owed.
func (t *task[T]) destroy() {
	if t.claimSlot() {
		if t.state.Load()&stateCompleted != 0 {
			t.disposeOutput()
		} else {
			t.disposeFutureValue()
		}
	}
	if aw := t.awaiter; aw != nil {
		t.awaiter = nil
		aw.Release()
	}
	if d, ok := t.sched.(Disposer); ok {
		d.Dispose()
	}
	t.sched = nil
}

// registerAwaiter stores w as the join-side waker, replacing any previous
// one. Registration and notification exclude each other through the
// stateRegistering/stateNotifying bits, so a completion racing a
// registration is delivered by whichever side observes the other.
func (t *task[T]) registerAwaiter(w *Waker) {
	for {
		s := t.state.Load()
		if s&(stateRegistering|stateNotifying) != 0 {
			// A registration or notification is in flight; both are short.
			runtime.Gosched()
			continue
		}
		if t.state.CompareAndSwap(s, s|stateRegistering) {
			break
		}
	}

	if old := t.awaiter; old != nil {
		old.Release()
	}
	t.awaiter = w.Clone()

	for {
		s := t.state.Load()
		if s&stateNotifying != 0 {
			// The task settled while we were registering; deliver the
			// wake ourselves.
			aw := t.awaiter
			t.awaiter = nil
			for {
				s = t.state.Load()
				if t.state.CompareAndSwap(s, s&^(stateRegistering|stateNotifying|stateAwaiter)) {
					break
				}
			}
			aw.Wake()
			return
		}
		if t.state.CompareAndSwap(s, (s&^stateRegistering)|stateAwaiter) {
			return
		}
	}
}

// notifyAwaiter wakes the join side, if it is waiting, exactly once per
// settle transition.
func (t *task[T]) notifyAwaiter() {
	for {
		s := t.state.Load()
		if s&stateNotifying != 0 {
			return
		}
		if s&stateRegistering != 0 {
			// Hand the wake over to the registering thread.
			if t.state.CompareAndSwap(s, s|stateNotifying) {
				return
			}
			continue
		}
		if s&stateAwaiter == 0 {
			return
		}
		if t.state.CompareAndSwap(s, (s|stateNotifying)&^stateAwaiter) {
			aw := t.awaiter
			t.awaiter = nil
			for {
				s = t.state.Load()
				if t.state.CompareAndSwap(s, s&^stateNotifying) {
					break
				}
			}
			if aw != nil {
				aw.Wake()
			}
			return
		}
	}
}
