package asynctask_test

import (
	"sync"
	"sync/atomic"
	"time"

	asynctask "github.com/osiewicz/async-task"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// wakerSlot keeps the most recently delivered waker, releasing the one it
// replaces, the way a real future's registration slot would.
type wakerSlot struct {
	mu sync.Mutex
	w  *asynctask.Waker
}

func (s *wakerSlot) put(w *asynctask.Waker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		s.w.Release()
	}
	s.w = w
}

func (s *wakerSlot) take() *asynctask.Waker {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.w
	s.w = nil
	return w
}

// chanScheduler queues runnables on a channel and counts sink activity and
// its own disposal.
type chanScheduler struct {
	ch       chan asynctask.Runnable
	calls    atomic.Int64
	disposed atomic.Int64
}

func newChanScheduler() *chanScheduler {
	return &chanScheduler{ch: make(chan asynctask.Runnable, 16)}
}

func (s *chanScheduler) Schedule(r asynctask.Runnable) {
	s.calls.Add(1)
	s.ch <- r
}

func (s *chanScheduler) Dispose() {
	s.disposed.Add(1)
}

// panicOnSecondPoll stashes a waker clone and sleeps on every poll, stays
// pending on the first poll and panics on the second. Mirrors the shape of
// a future that registers with some event source and then blows up.
type panicOnSecondPoll struct {
	polls    atomic.Int64
	disposed atomic.Int64
	slot     wakerSlot
	delay    time.Duration
	polled   bool
}

func (f *panicOnSecondPoll) Poll(w *asynctask.Waker) (int, bool) {
	f.slot.put(w.Clone())
	f.polls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.polled {
		panic("second poll")
	}
	f.polled = true
	return 0, false
}

func (f *panicOnSecondPoll) Dispose() {
	f.disposed.Add(1)
}

// pendingThenReady stays pending for the first pending polls, then completes
// with value.
type pendingThenReady struct {
	polls    atomic.Int64
	disposed atomic.Int64
	slot     wakerSlot
	pending  int
	value    int
}

func (f *pendingThenReady) Poll(w *asynctask.Waker) (int, bool) {
	n := int(f.polls.Add(1))
	if n <= f.pending {
		f.slot.put(w.Clone())
		return 0, false
	}
	return f.value, true
}

func (f *pendingThenReady) Dispose() {
	f.disposed.Add(1)
}

// disposableValue is a task output with a disposal counter.
type disposableValue struct {
	disposed *atomic.Int64
}

func (v disposableValue) Dispose() {
	v.disposed.Add(1)
}
