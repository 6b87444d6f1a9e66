package asynctask

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// A PanicError wraps a panic captured from a poll when the task was spawned
// with [CatchPanic]. It is re-raised, by a further panic, to whichever
// goroutine observes the JoinHandle, so the failure surfaces where the
// result was wanted rather than on the executor thread.
type PanicError struct {
	value any
	stack []byte
}

func capturePanic(v any) *PanicError {
	return &PanicError{value: v, stack: debug.Stack()}
}

// Value returns the value the poll panicked with.
func (e *PanicError) Value() any {
	return e.value
}

// Stack returns the stack trace captured at the point of the panic.
func (e *PanicError) Stack() []byte {
	return e.stack
}

func (e *PanicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "panic: %v", e.value)
	if e.stack != nil {
		b.WriteString("\n\n")
		b.Write(e.stack)
	}
	return b.String()
}

// Unwrap returns the panic value when it was an error, so captured panics
// stay matchable with errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
