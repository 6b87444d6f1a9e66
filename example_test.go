package asynctask_test

import (
	"fmt"

	asynctask "github.com/osiewicz/async-task"
)

func ExampleSpawn() {
	queue := make(chan asynctask.Runnable, 1)
	sched := asynctask.ScheduleFunc(func(r asynctask.Runnable) { queue <- r })

	task, handle := asynctask.Spawn[string](asynctask.Ready("hello"), sched)
	task.Run()

	v, ok, _ := handle.TryJoin(nil)
	fmt.Println(v, ok)
	handle.Release()
	// Output: hello true
}

func ExampleWaker() {
	queue := make(chan asynctask.Runnable, 1)
	sched := asynctask.ScheduleFunc(func(r asynctask.Runnable) { queue <- r })

	// A future that parks once: it keeps a waker clone and reports pending,
	// then completes when polled again.
	var park *asynctask.Waker
	first := true
	f := asynctask.FutureFunc[int](func(w *asynctask.Waker) (int, bool) {
		if first {
			first = false
			park = w.Clone()
			return 0, false
		}
		return 42, true
	})

	task, handle := asynctask.Spawn[int](f, sched)
	task.Run()

	// Waking the clone requeues the task; the executor runs it to completion.
	park.Wake()
	(<-queue).Run()

	v, _, _ := handle.TryJoin(nil)
	fmt.Println(v)
	handle.Release()
	// Output: 42
}
