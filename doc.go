// Package asynctask provides the task primitive that asynchronous executors
// are built on: a single allocation pairing a suspendable computation with
// the machinery to drive, wake, observe and cancel it.
//
// Package asynctask does not implement an executor. It implements the unit
// an executor schedules, and leaves thread and queue placement to a
// [Scheduler] callback supplied at spawn time.
//
// # Spawning
//
// [Spawn] wraps a [Future] and a [Scheduler] into one task and returns two
// handles sharing that allocation:
//
//   - a [Runnable], for the executor, whose Run method polls the future once;
//   - a [JoinHandle], for the caller, which yields the eventual output or
//     reports that the task settled without one.
//
// The returned Runnable is not handed to the scheduler; the caller decides
// whether to run it in place, queue it via its Schedule method, or discard
// it via Release. Every later wake-up delivers a fresh Runnable to the
// scheduler.
//
// # Waking
//
// While being polled, a future receives a [Waker] bound to the task. Waking
// it requests another poll. Wake-ups are coalesced: no matter how many
// arrive while a poll is in flight, the scheduler is invoked at most once
// after that poll returns, and a wake-up arriving while the task is already
// queued is dropped. A wake-up never gets lost: one that arrives strictly
// after a poll settles into pending always produces a fresh Runnable.
//
// The waker passed to Poll is only borrowed for the duration of the call.
// A future that wants to arrange a later wake-up must retain a [Waker.Clone]
// and eventually consume it with Wake or surrender it with Release.
//
// # Cancellation
//
// Releasing the [JoinHandle], or calling its Cancel method, closes the task:
// no further polls are issued and the future is discarded. Cancellation is
// cooperative with respect to an in-flight poll; it never preempts one, and
// the discarding of the future is deferred to the polling thread in that
// case. Detach, by contrast, lets the task run to completion unobserved.
//
// # Panics
//
// A panic inside a poll is not swallowed. The task still transitions to its
// closed state and the future is discarded exactly once before the panic
// resumes propagating out of Run, so the join side observes a settled task
// even on the unwind path. The [CatchPanic] spawn option redirects the
// panic instead: Run returns normally and the captured [PanicError] is
// re-raised to whoever observes the JoinHandle.
//
// # Resource lifetimes
//
// Each task is one shared allocation addressed only through its handles.
// A [Future], an output value, or a [Scheduler] that implements [Disposer]
// is disposed exactly once, at the point where the task gives it up; the
// scheduler is disposed when the last handle referencing the task goes
// away. This gives deterministic teardown to executors that pool or count
// resources, without relying on the garbage collector's timing.
package asynctask
