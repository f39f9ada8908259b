// Package dealer implements the Dealer: the fault-tolerant supervisor that
// fans jobs from a producer queue out to a pool of sibling worker processes,
// tracks in-flight job/worker assignments, and resends a victim's job and
// forks a replacement whenever a worker dies mid-job.
package dealer

import (
	"sync"
	"sync/atomic"

	"github.com/Dav1216/DispatchPool/internal/protocol"
)

// state is the small amount of mutable bookkeeping shared by the Sender,
// Ack Ingestor, and Supervisor activities. The job cache, assignment table,
// staging buffer, and worker set are guarded by one mutex; the counters and
// flags below are atomics, readable without it.
type state struct {
	mu sync.Mutex

	// jobCache maps job_id to the request payload it was admitted with.
	// Populated once by the Sender, never evicted, read by the Supervisor
	// to reconstruct a resend's payload.
	jobCache map[int32]protocol.JobRequest

	// assignment maps worker_pid to the job_id it currently owns. A
	// missing entry means that worker was idle at the moment of death.
	assignment map[int32]int32

	// staging holds acks received but not yet reconciled into assignment.
	staging []protocol.WorkerAck

	// workers is the set of live worker PIDs.
	workers map[int32]struct{}

	jobsAdmitted    atomic.Int64
	jobsCompleted   atomic.Int64
	producerDrained atomic.Bool
	shuttingDown    atomic.Bool
}

func newState() *state {
	return &state{
		jobCache:   make(map[int32]protocol.JobRequest),
		assignment: make(map[int32]int32),
		workers:    make(map[int32]struct{}),
	}
}

// admit records job as admitted if it has not been seen before, returning
// true if this call is the one that admitted it. A job_id already present
// in the cache is a resend whose payload the cache, not the incoming
// record, is authoritative for.
func (x *state) admit(job protocol.JobRequest) (payload protocol.JobRequest, admitted bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if cached, ok := x.jobCache[job.JobID]; ok {
		return cached, false
	}
	x.jobCache[job.JobID] = job
	return job, true
}

// addWorker inserts pid into the live worker set.
func (x *state) addWorker(pid int32) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.workers[pid] = struct{}{}
}

// removeWorker deletes pid from the live worker set.
func (x *state) removeWorker(pid int32) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.workers, pid)
}

// workerCount returns the current size of the live worker set.
func (x *state) workerCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.workers)
}

// stageAck appends ack to the staging buffer, under the shared mutex. Called
// by the Ack Ingestor; reconciliation into the assignment table is the
// Supervisor's job, not this one's.
func (x *state) stageAck(ack protocol.WorkerAck) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.staging = append(x.staging, ack)
}

// reconcileAndLookup drains the staging buffer into the assignment table,
// then looks up pid's in-flight job. The returned bool reports whether pid
// had one. Called by the Supervisor while holding no other lock.
func (x *state) reconcileAndLookup(pid int32) (jobID int32, owned bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, ack := range x.staging {
		x.assignment[ack.WorkerPID] = ack.JobID
	}
	x.staging = x.staging[:0]

	jobID, owned = x.assignment[pid]
	if owned {
		delete(x.assignment, pid)
	}
	return jobID, owned
}

// lookupJob returns the cached payload for jobID. I2 guarantees presence for
// any job_id that ever reached the request channel.
func (x *state) lookupJob(jobID int32) (protocol.JobRequest, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	job, ok := x.jobCache[jobID]
	return job, ok
}
