package asynctask

// A Scheduler is the executor's side of a task: a callback that accepts a
// [Runnable] whenever the task needs to run, and decides when and where its
// Run method is actually called.
//
// Schedule must be safe to invoke from any goroutine, at any time, including
// from within [Spawn]'s own call stack and from the goroutine currently
// inside Run. It must not panic; the task core does not recover around sink
// invocations, and a panicking scheduler leaves the wake-up undelivered.
//
// A scheduler that can no longer accept work simply calls Release on the
// Runnable it was handed; for the task's bookkeeping that is the same as
// never having scheduled it.
//
// A Scheduler that also implements [Disposer] is disposed exactly once, when
// the last handle referencing the task goes away.
type Scheduler interface {
	Schedule(r Runnable)
}

// ScheduleFunc adapts a plain function to the [Scheduler] interface.
type ScheduleFunc func(r Runnable)

// Schedule calls f.
func (f ScheduleFunc) Schedule(r Runnable) {
	f(r)
}
