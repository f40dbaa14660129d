package utils

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"
)

// A Worker runs a single function on its own goroutine and reports when it
// has returned. Panics in the function are captured and logged rather than
// crashing the process.
type Worker struct {
	once sync.Once
	done chan struct{}
}

// NewWorker returns a Worker that has not been started.
func NewWorker() *Worker {
	return &Worker{done: make(chan struct{})}
}

// Start runs fn in a new goroutine. Only the first call has any effect.
func (w *Worker) Start(fn func()) {
	w.once.Do(func() {
		goutils.PanicCapturingGo(func() {
			defer close(w.done)
			fn()
		})
	})
}

// Done is closed once the function started by Start has returned or panicked.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// WaitFor waits up to timeout, measured on clk, for the worker to finish. It
// reports whether it did.
func (w *Worker) WaitFor(clk clock.Clock, timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	default:
	}

	timer := clk.Timer(timeout)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}
