package dealer

import (
	"github.com/Dav1216/DispatchPool/internal/deathwatch"
	"github.com/Dav1216/DispatchPool/internal/log"
	"github.com/Dav1216/DispatchPool/internal/protocol"
)

// runSupervisor blocks on the death-notification bridge. Each notice is one
// full reconcile-lookup-resend-fork cycle (spec.md §4.6); a burst of deaths
// is drained non-blocking so every PID in the burst gets its own cycle
// before the Supervisor blocks again.
func (x *Dealer) runSupervisor() {
	for {
		notice, ok := <-x.death.Notices()
		if !ok {
			return
		}
		x.handleDeath(notice)

		for {
			n, ok := x.death.Drain()
			if !ok {
				break
			}
			x.handleDeath(n)
		}

		if x.st.shuttingDown.Load() {
			return
		}
	}
}

func (x *Dealer) handleDeath(n deathwatch.Notice) {
	x.untrackWorker(n.PID)
	log.WorkerDied(x.log, n.PID, n.Err)
	if x.metrics != nil {
		x.metrics.WorkerDeaths.Inc()
	}
	x.setMetricsPoolSize(x.liveWorkerCount())

	// Pull any acks still buffered on the ack queue (ahead of the Ack
	// Ingestor) into staging, without blocking.
	for {
		frame, ok := x.q.ack.TryRecv()
		if !ok {
			break
		}
		if ack, err := protocol.DecodeWorkerAck(frame); err == nil {
			x.st.stageAck(ack)
		}
	}

	// Reconcile ownership (drains staging into the assignment table) then
	// look up what pid n.PID owned, satisfying I3: any ack it sent before
	// dying is visible by the time we ask.
	jobID, owned := x.st.reconcileAndLookup(n.PID)

	if x.st.shuttingDown.Load() {
		// Late death after shutdown was requested: observed, not acted on
		// (spec.md §9 Open Question #3) — no resend, no replacement.
		return
	}

	if owned {
		if job, ok := x.st.lookupJob(jobID); ok {
			buf := job.Encode(make([]byte, 0, protocol.JobRequestSize))
			if err := x.q.request.Send(buf); err == nil {
				if x.metrics != nil {
					x.metrics.JobsResent.Inc()
				}
				replacementPID := x.respawn()
				log.JobResent(x.log, int64(jobID), n.PID, replacementPID)
				return
			}
		}
	}

	x.respawn()
}

// respawn forks a replacement worker and returns its PID, or 0 on failure.
func (x *Dealer) respawn() int32 {
	cmd, pid, err := x.spawnWorker()
	if err != nil {
		log.ForkFailed(x.log, err)
		if x.metrics != nil {
			x.metrics.ForkFailures.Inc()
		}
		if x.liveWorkerCount() == 0 {
			x.log.Err().Err(errNoWorkersLeft).Log("worker pool exhausted")
		}
		return 0
	}

	x.trackWorker(pid)
	x.death.Watch(pid, cmd)
	log.WorkerSpawned(x.log, pid)
	x.setMetricsPoolSize(x.liveWorkerCount())
	return pid
}
