package asynctask

// An Option configures a spawned task.
type Option func(*config)

type config struct {
	catch bool
	obs   Observer
}

// CatchPanic makes a panicking poll settle the task without unwinding out of
// [Runnable.Run]: the panic is captured as a [PanicError] and re-raised to
// whoever observes the [JoinHandle]. Executors that must not die with the
// tasks they drive spawn with this option.
func CatchPanic() Option {
	return func(c *config) {
		c.catch = true
	}
}

// WithObserver attaches lifecycle hooks to the task. See [Observer].
func WithObserver(obs Observer) Option {
	return func(c *config) {
		c.obs = obs
	}
}

// Spawn wraps future and sched into a new task: one allocation, shared by
// the two returned handles and by every [Waker] the future clones.
//
// The returned [Runnable] is not handed to sched; the caller runs, queues or
// releases it. Every subsequent wake-up of an idle task invokes sched with a
// fresh Runnable, possibly before Spawn's caller has touched the first one.
//
// Spawn panics if future or sched is nil.
func Spawn[T any](future Future[T], sched Scheduler, opts ...Option) (Runnable, *JoinHandle[T]) {
	if future == nil {
		panic("asynctask: Spawn(nil Future)")
	}
	if sched == nil {
		panic("asynctask: Spawn(nil Scheduler)")
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &task[T]{
		sched:  sched,
		future: future,
		obs:    cfg.obs,
		catch:  cfg.catch,
	}
	t.state.Store(stateScheduled | stateJoinHandle | stateSlotOwned | refOne)
	return &runnable{c: t}, &JoinHandle[T]{t: t}
}
