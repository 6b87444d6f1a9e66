package asynctask

import "sync/atomic"

// A Runnable is the executor-facing handle: the one-shot right to poll its
// task. [Spawn] returns the first one; each wake-up that finds the task idle
// delivers a fresh one to the [Scheduler].
//
// A Runnable is consumed by whichever of Run, Schedule or Release is called
// first. Run or Schedule on a consumed Runnable panics; Release is a no-op,
// so deferred cleanup in an executor loop stays safe.
type Runnable interface {
	// Run polls the task's future once. It reports whether the future was
	// polled to a decision; a task closed before this runnable ran is
	// rejected quietly and Run returns false.
	//
	// If the future panics, the task still settles (closed, future
	// discarded) before the panic propagates to Run's caller, unless the
	// task was spawned with CatchPanic.
	//
	// If a wake-up arrived during the poll and the task is still open, the
	// Scheduler is invoked with a fresh Runnable, synchronously on this
	// goroutine, before Run returns. At most one such invocation happens
	// per Run, however many wake-ups occurred.
	Run() bool

	// Schedule hands this runnable back to the task's Scheduler, for
	// executors that re-queue rather than run in place.
	Schedule()

	// Release surrenders the runnable without running it. Unless the task
	// already settled, it closes: the schedule reference was its only way
	// of ever being polled again. Never panics, never reschedules.
	Release()
}

type runnable struct {
	c    taskCore
	used atomic.Bool
}

func (r *runnable) Run() bool {
	if r.used.Swap(true) {
		panic("asynctask: Runnable used after Run, Schedule or Release")
	}
	return r.c.run()
}

func (r *runnable) Schedule() {
	if r.used.Swap(true) {
		panic("asynctask: Runnable used after Run, Schedule or Release")
	}
	r.c.rescheduleSelf()
}

func (r *runnable) Release() {
	if r.used.Swap(true) {
		return
	}
	r.c.releaseRunnable()
}
