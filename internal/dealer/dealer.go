package dealer

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Dav1216/DispatchPool/internal/config"
	"github.com/Dav1216/DispatchPool/internal/deathwatch"
	"github.com/Dav1216/DispatchPool/internal/log"
	"github.com/Dav1216/DispatchPool/internal/metrics"
)

// Dealer is the fault-tolerant dispatcher. Construct with New, run with Run.
type Dealer struct {
	cfg     config.Config
	log     *log.Logger
	metrics *metrics.Metrics

	q     *queues
	st    *state
	death *deathwatch.Bridge

	workerStdout io.Writer
	workerStderr io.Writer

	workersMu sync.Mutex
	workerPID map[int32]struct{} // mirrors st.workers; backs liveWorkerCount
}

// New constructs a Dealer. producerPath is the producer queue's socket path,
// the Dealer binary's one required CLI argument.
func New(producerPath string, cfg config.Config, lg *log.Logger, mx *metrics.Metrics) (*Dealer, error) {
	q, err := openQueues(producerPath, cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}

	return &Dealer{
		cfg:          cfg,
		log:          lg,
		metrics:      mx,
		q:            q,
		st:           newState(),
		death:        deathwatch.New(cfg.PoolSize * 2),
		workerStdout: os.Stdout,
		workerStderr: os.Stderr,
		workerPID:    make(map[int32]struct{}),
	}, nil
}

// Close releases every queue the Dealer owns (or has dialed into). It does
// not reap workers or join activities; callers normally reach this only via
// Run's own shutdown sequence, or when New's caller abandons a Dealer before
// calling Run.
func (x *Dealer) Close() error {
	return x.q.close()
}

func (x *Dealer) trackWorker(pid int32) {
	x.st.addWorker(pid)
	x.workersMu.Lock()
	x.workerPID[pid] = struct{}{}
	x.workersMu.Unlock()
}

func (x *Dealer) untrackWorker(pid int32) {
	x.st.removeWorker(pid)
	x.workersMu.Lock()
	delete(x.workerPID, pid)
	x.workersMu.Unlock()
}

func (x *Dealer) liveWorkerCount() int {
	x.workersMu.Lock()
	defer x.workersMu.Unlock()
	return len(x.workerPID)
}

func (x *Dealer) setMetricsPoolSize(n int) {
	if x.metrics != nil {
		x.metrics.PoolSize.Set(float64(n))
	}
}

var errNoWorkersLeft = fmt.Errorf("dealer: worker pool reached zero; the producer queue can no longer drain")
