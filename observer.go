package asynctask

// An Observer receives lifecycle hooks for a single task. Every field is
// optional. Hooks run synchronously on the goroutine driving the transition,
// so they must be fast and must not block; bridge to a channel or a logger
// of your choice if heavier processing is needed.
type Observer struct {
	// OnSchedule fires each time a Runnable is handed to the Scheduler.
	OnSchedule func()

	// OnPollBegin fires when Run acquires the task and is about to poll.
	OnPollBegin func()

	// OnPollEnd fires when a poll finishes, on the panic path included.
	// settled reports whether this poll left the task settled.
	OnPollEnd func(settled bool)

	// OnSettle fires exactly once, when the task settles.
	// completed is true when the future produced an output, false when the
	// task was canceled, abandoned or panicked first.
	OnSettle func(completed bool)
}

func (t *task[T]) onSchedule() {
	if f := t.obs.OnSchedule; f != nil {
		f()
	}
}

func (t *task[T]) onPollBegin() {
	if f := t.obs.OnPollBegin; f != nil {
		f()
	}
}

func (t *task[T]) onPollEnd(settled bool) {
	if f := t.obs.OnPollEnd; f != nil {
		f(settled)
	}
}

func (t *task[T]) onSettle(completed bool) {
	if f := t.obs.OnSettle; f != nil {
		f(completed)
	}
}
