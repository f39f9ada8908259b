// Package deathwatch is the Dealer's Signal Bridge: it turns the
// asynchronous event "a child process exited" into a plain, cooperatively
// consumed channel receive.
//
// spec.md's original design installs a SIGCHLD handler restricted to one
// async-signal-safe act — writing a byte to a pipe — so the data model never
// has to be touched from signal context. Go sidesteps the hazard a different
// way: os/exec already reaps each child itself, via a blocking wait4 on that
// specific PID inside Cmd.Wait. Installing a second, process-wide SIGCHLD
// handler that also reaps (wait4(-1, ...)) would race with that — the two
// reapers would compete over the same dead children. So instead of a signal
// handler, one goroutine per spawned worker blocks in Cmd.Wait and, on
// return, posts a Notice to the shared channel. That goroutine is the
// "handler"; the channel is the pipe; Bridge.Notices is the read end the
// Supervisor consumes.
package deathwatch

import (
	"os/exec"
	"sync"
)

// Notice reports that a worker process has exited.
type Notice struct {
	PID int32
	Err error // the error Cmd.Wait returned, nil for a clean exit
}

// Bridge collects death notices from every worker currently under watch.
// The zero value is not usable; construct with New.
type Bridge struct {
	notices chan Notice
	wg      sync.WaitGroup
}

// New creates a Bridge. capacity should be at least the worker pool size, so
// a burst of simultaneous deaths never stalls a watcher goroutine on send.
func New(capacity int) *Bridge {
	return &Bridge{
		notices: make(chan Notice, capacity),
	}
}

// Watch starts watching cmd, which must already be started. It returns
// immediately; the notice is posted once cmd exits.
func (x *Bridge) Watch(pid int32, cmd *exec.Cmd) {
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		err := cmd.Wait()
		x.notices <- Notice{PID: pid, Err: err}
	}()
}

// Notices is the read end of the bridge. The Supervisor receives from it
// exactly as spec.md's Supervisor blocks on a single byte read from the
// signal pipe.
func (x *Bridge) Notices() <-chan Notice {
	return x.notices
}

// Drain performs a non-blocking receive, for collecting any further notices
// already buffered alongside the one that just woke the Supervisor — the
// batch-of-deaths-per-wakeup case spec.md §4.6 describes.
func (x *Bridge) Drain() (Notice, bool) {
	select {
	case n := <-x.notices:
		return n, true
	default:
		return Notice{}, false
	}
}

// Wait blocks until every watched process's goroutine has posted its notice
// and returned. Used during shutdown, after the last worker has been told to
// exit, to know reaping is complete.
func (x *Bridge) Wait() {
	x.wg.Wait()
}
