package dealer

import (
	"context"
	"sync"
	"time"

	"github.com/Dav1216/DispatchPool/internal/log"
	"github.com/Dav1216/DispatchPool/internal/protocol"
)

// Run executes the Dealer's full lifecycle: spawn the initial pool, run the
// four activities, coordinate shutdown once the Sender and Receiver reach
// natural termination, reap every worker, and release every queue. It
// returns once shutdown is complete.
func (x *Dealer) Run() error {
	start := time.Now()

	if x.metrics != nil && x.cfg.MetricsAddr != "" {
		if err := x.metrics.Serve(x.cfg.MetricsAddr); err != nil {
			x.log.Err().Err(err).Log("failed to start metrics listener")
		}
	}

	for i := 0; i < x.cfg.PoolSize; i++ {
		x.respawn()
	}
	log.Shutdown(x.log, "startup complete", 0)

	// Sender and Receiver are joined on their own natural termination
	// (spec.md §4.7); the Ack Ingestor and Supervisor only exit once
	// shutting_down is observed and the queues they block on are closed, so
	// they are tracked separately and joined after that signal is given.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); x.runSender() }()
	wg.Add(1)
	go func() { defer wg.Done(); x.runReceiver() }()

	var ackWG, supWG sync.WaitGroup
	ackWG.Add(1)
	go func() { defer ackWG.Done(); x.runAckIngestor() }()
	supWG.Add(1)
	go func() { defer supWG.Done(); x.runSupervisor() }()

	// Join Sender and Receiver: natural termination per spec.md §4.7.
	wg.Wait()

	x.st.shuttingDown.Store(true)
	log.Shutdown(x.log, "shutdown begun", 0)

	// Enqueue one shutdown frame per worker slot so every worker currently
	// blocked reading the request queue is told to exit.
	shutdownFrame := protocol.JobRequest{JobID: protocol.JobShutdown}.Encode(make([]byte, 0, protocol.JobRequestSize))
	n := x.liveWorkerCount()
	for i := 0; i < n; i++ {
		_ = x.q.request.Send(shutdownFrame)
	}

	supWG.Wait()
	x.death.Wait()

	if x.metrics != nil {
		if err := x.metrics.Shutdown(context.Background()); err != nil {
			x.log.Err().Err(err).Log("error stopping metrics listener")
		}
	}

	if err := x.Close(); err != nil {
		x.log.Err().Err(err).Log("error closing queues during shutdown")
	}
	ackWG.Wait()

	log.Shutdown(x.log, "shutdown complete", time.Since(start))
	return nil
}
