// Package log wires the Dealer's structured logging: a logiface.Logger
// fronting zerolog, with small typed helpers for the handful of events
// spec.md calls out by name — worker spawn, worker death, job resend, and
// fork failure. Spawn and death events carry the worker PID; a resend
// carries the job ID and both the dead and the replacement worker PIDs; a
// fork failure carries only the error.
package log

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
	izerolog "github.com/joeycumines/logiface-zerolog"
	"github.com/rs/zerolog"
)

// Logger is the concrete logger type threaded through the dealer package.
type Logger = logiface.Logger[*izerolog.Event]

// New builds a Logger writing JSON lines to w at the given level.
func New(w io.Writer, level logiface.Level) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return logiface.New[*izerolog.Event](
		izerolog.L.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](level),
	)
}

// NewStderr is the Dealer's default: newline-delimited JSON to stderr.
func NewStderr(level logiface.Level) *Logger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return logiface.New[*izerolog.Event](
		izerolog.L.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](level),
	)
}

// WithDispatchID returns a sub-logger carrying a fresh dispatch_id field on
// every event it produces, so the lines from one Dealer invocation can be
// told apart from the next in a shared log stream.
func WithDispatchID(l *Logger) *Logger {
	return l.Clone().Str("dispatch_id", uuid.NewString()).Logger()
}

// WorkerSpawned logs a successful worker fork.
func WorkerSpawned(l *Logger, pid int32) {
	l.Info().Int("worker_pid", int(pid)).Log("worker spawned")
}

// WorkerDied logs a worker process exit, clean or not.
func WorkerDied(l *Logger, pid int32, err error) {
	b := l.Warning().Int("worker_pid", int(pid))
	if err != nil {
		b = b.Err(err)
	}
	b.Log("worker died")
}

// JobResent logs a job being handed to a replacement worker after its
// original assignee died mid-flight.
func JobResent(l *Logger, jobID int64, deadPID, newPID int32) {
	l.Notice().
		Int64("job_id", jobID).
		Int("dead_worker_pid", int(deadPID)).
		Int("replacement_worker_pid", int(newPID)).
		Log("job resent")
}

// ForkFailed logs a failed attempt to spawn a replacement worker.
func ForkFailed(l *Logger, err error) {
	l.Err().Err(err).Log("worker fork failed")
}

// Shutdown logs lifecycle transitions (startup complete, shutdown begun,
// shutdown complete) with the elapsed duration where relevant.
func Shutdown(l *Logger, phase string, elapsed time.Duration) {
	b := l.Info().Str("phase", phase)
	if elapsed > 0 {
		b = b.Dur("elapsed", elapsed)
	}
	b.Log("dealer lifecycle")
}
