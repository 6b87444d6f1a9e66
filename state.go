package asynctask

// The task state is a single atomic word packing the lifecycle flags together
// with the reference count, so that a flag change and a count change never
// race each other through a two-step update.
const (
	// stateScheduled is set while a Runnable for the task exists, from the
	// moment it is created until Run consumes it. A wake-up that finds this
	// flag set has nothing to do.
	stateScheduled uint64 = 1 << iota

	// stateRunning is held by the one thread currently polling the future.
	// Entering it requires atomically consuming stateScheduled.
	stateRunning

	// stateCompleted means the future produced its output. Monotonic.
	stateCompleted

	// stateClosed means no further polls will be issued, whatever the
	// outcome was. Monotonic.
	stateClosed

	// stateJoinHandle is set while the JoinHandle is alive. Tracked as a
	// flag rather than a reference so that completion can tell whether
	// anyone still wants the output.
	stateJoinHandle

	// stateAwaiter is set while a join-side waker is registered.
	stateAwaiter

	// stateRegistering is held while a join-side waker is being stored.
	stateRegistering

	// stateNotifying is held while the join-side waker is being woken, or
	// set to ask an in-flight registration to deliver the wake itself.
	stateNotifying

	// stateSlotOwned guards the computation slot. It is cleared exactly
	// once, by whichever path finalizes the future or the output, which is
	// what keeps a cancellation racing a close from disposing twice.
	stateSlotOwned
)

// Live handle references (Runnable plus Waker clones) are counted above the
// flag bits. The JoinHandle is not counted; its presence is stateJoinHandle.
const (
	refShift = 9
	refOne   = uint64(1) << refShift
)

func refCount(s uint64) uint64 {
	return s >> refShift
}

// settled reports whether the task reached a state the join side may observe
// as final: either an output exists, or the task is closed and no queued or
// in-flight poll remains to finalize the slot.
func settled(s uint64) bool {
	if s&stateCompleted != 0 {
		return true
	}
	return s&stateClosed != 0 && s&(stateScheduled|stateRunning) == 0
}
