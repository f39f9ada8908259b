package dealer

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Dav1216/DispatchPool/internal/config"
	"github.com/Dav1216/DispatchPool/internal/deathwatch"
	"github.com/Dav1216/DispatchPool/internal/log"
	"github.com/Dav1216/DispatchPool/internal/metrics"
	"github.com/Dav1216/DispatchPool/internal/protocol"
	"github.com/Dav1216/DispatchPool/internal/queue"
)

// testProducer stands in for cmd/producer: it binds the one queue the Dealer
// dials into as a client and lets a test feed it frames directly.
type testProducer struct {
	ln   *queue.Listener
	conn *queue.Conn
}

func newTestProducer(path string) (*testProducer, error) {
	ln, err := queue.Listen(path)
	if err != nil {
		return nil, err
	}
	return &testProducer{ln: ln}, nil
}

func (p *testProducer) accept() error {
	conn, err := p.ln.Accept(protocol.JobRequestSize)
	if err != nil {
		return err
	}
	p.conn = conn
	return nil
}

func (p *testProducer) send(job protocol.JobRequest) error {
	return p.conn.Send(job.Encode(make([]byte, 0, protocol.JobRequestSize)))
}

func (p *testProducer) close() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	_ = p.ln.Close()
}

// longSleepWorkerBin writes a throwaway script that outlives a test's
// assertions regardless of the request/response/ack paths it's handed, so a
// replacement fork in these tests never itself triggers a cascading death.
func longSleepWorkerBin(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakeworker.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755))
	return path
}

// newTestDealer builds a Dealer wired against a freshly bound fake producer,
// ready for a test to drive one of its activities directly. Each call gets
// its own working directory, since the Dealer derives its three queue socket
// names from the test binary's own pid (constant across every test in this
// file) relative to the current directory.
func newTestDealer(t *testing.T, cfg config.Config) (*Dealer, *testProducer) {
	t.Helper()
	dir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	producerPath := filepath.Join(dir, "producer.sock")
	p, err := newTestProducer(producerPath)
	require.NoError(t, err)

	acceptErr := make(chan error, 1)
	go func() { acceptErr <- p.accept() }()

	lg := log.New(io.Discard, logiface.LevelInformational)
	mx := metrics.New()

	d, err := New(producerPath, cfg, lg, mx)
	require.NoError(t, err)
	require.NoError(t, <-acceptErr)

	t.Cleanup(func() {
		_ = d.Close()
		p.close()

		d.workersMu.Lock()
		pids := make([]int32, 0, len(d.workerPID))
		for pid := range d.workerPID {
			pids = append(pids, pid)
		}
		d.workersMu.Unlock()
		for _, pid := range pids {
			if proc, err := os.FindProcess(int(pid)); err == nil {
				_ = proc.Kill()
			}
		}
	})

	return d, p
}

// TestDealer_RunSender_DuplicateProducerFrameAdmittedOnce drives the real
// Sender activity against a fake producer and a real request broker,
// covering spec.md §8's duplicate-producer-job scenario: a second frame for
// an already-cached job_id must not be re-admitted (I1), and is forwarded
// again carrying the cached first-arrival payload, not its own.
func TestDealer_RunSender_DuplicateProducerFrameAdmittedOnce(t *testing.T) {
	cfg := config.Config{PoolSize: 1, QueueCapacity: 10, WorkerBin: "true"}
	d, p := newTestDealer(t, cfg)

	senderDone := make(chan struct{})
	go func() { d.runSender(); close(senderDone) }()

	require.NoError(t, p.send(protocol.JobRequest{JobID: 5, Data: 40}))
	require.NoError(t, p.send(protocol.JobRequest{JobID: 5, Data: 999})) // duplicate, must not re-admit or override the payload
	require.NoError(t, p.send(protocol.JobRequest{JobID: protocol.JobEndOfStream}))

	select {
	case <-senderDone:
	case <-time.After(2 * time.Second):
		t.Fatal("runSender never reached end-of-stream")
	}
	require.Equal(t, int64(1), d.st.jobsAdmitted.Load())

	worker, err := queue.Dial(d.q.request.Path(), protocol.JobRequestSize)
	require.NoError(t, err)
	defer worker.Close()

	frame, err := worker.Recv()
	require.NoError(t, err)
	job, err := protocol.DecodeJobRequest(frame)
	require.NoError(t, err)
	require.Equal(t, int32(40), job.Data, "the cached, first-arrival payload is authoritative")

	type result struct {
		frame []byte
		err   error
	}
	second := make(chan result, 1)
	go func() {
		f, err := worker.Recv()
		second <- result{f, err}
	}()
	select {
	case r := <-second:
		require.NoError(t, r.err)
		dup, err := protocol.DecodeJobRequest(r.frame)
		require.NoError(t, err)
		require.Equal(t, protocol.JobRequest{JobID: 5, Data: 40}, dup, "the duplicate is forwarded with the cached payload")
	case <-time.After(2 * time.Second):
		t.Fatal("the duplicate frame was never forwarded")
	}
}

// TestDealer_HandleDeath_ResendsAckedJobToReplacementWorker covers spec.md
// §8's single-crash scenario: a worker that acked a job then died before
// answering it must have that job resent, and a replacement forked.
func TestDealer_HandleDeath_ResendsAckedJobToReplacementWorker(t *testing.T) {
	cfg := config.Config{PoolSize: 1, QueueCapacity: 10, WorkerBin: longSleepWorkerBin(t)}
	d, _ := newTestDealer(t, cfg)

	job := protocol.JobRequest{JobID: 9, Data: 20}
	_, admitted := d.st.admit(job)
	require.True(t, admitted)

	dead := exec.Command("sh", "-c", "exit 0")
	require.NoError(t, dead.Start())
	deadPID := int32(dead.Process.Pid)
	d.trackWorker(deadPID)
	d.st.stageAck(protocol.WorkerAck{WorkerPID: deadPID, JobID: job.JobID})
	require.NoError(t, dead.Wait())

	worker, err := queue.Dial(d.q.request.Path(), protocol.JobRequestSize)
	require.NoError(t, err)
	defer worker.Close()

	d.handleDeath(deathwatch.Notice{PID: deadPID})

	frame, err := worker.Recv()
	require.NoError(t, err)
	resent, err := protocol.DecodeJobRequest(frame)
	require.NoError(t, err)
	require.Equal(t, job, resent, "I3: the acked-but-unanswered job must be resent verbatim")

	require.Equal(t, float64(1), testutil.ToFloat64(d.metrics.JobsResent))
	require.Equal(t, 1, d.liveWorkerCount(), "a replacement must have been forked")
}

// TestDealer_HandleDeath_NoStagedAckMeansNoResend covers the complementary
// case: a worker that dies with no staged ack owned nothing, so the
// Supervisor must not attempt a resend (the frame it may have been about to
// receive is recovered at the queue plane instead - see
// TestBroker_Outbound_RequeuesFrameWhenPeerConnectionIsAlreadyClosed).
func TestDealer_HandleDeath_NoStagedAckMeansNoResend(t *testing.T) {
	cfg := config.Config{PoolSize: 1, QueueCapacity: 10, WorkerBin: longSleepWorkerBin(t)}
	d, _ := newTestDealer(t, cfg)

	dead := exec.Command("sh", "-c", "exit 0")
	require.NoError(t, dead.Start())
	deadPID := int32(dead.Process.Pid)
	d.trackWorker(deadPID)
	require.NoError(t, dead.Wait())

	d.handleDeath(deathwatch.Notice{PID: deadPID})

	require.Equal(t, float64(0), testutil.ToFloat64(d.metrics.JobsResent))
	require.Equal(t, 1, d.liveWorkerCount(), "a replacement must still be forked")
}

// TestDealer_Supervisor_BurstOfDeathsEachResendsItsOwnJob drives the real
// runSupervisor loop (not handleDeath directly) through a burst of
// simultaneous deaths, covering spec.md §8's burst scenario: every dead
// worker's acked job must be resent exactly once.
func TestDealer_Supervisor_BurstOfDeathsEachResendsItsOwnJob(t *testing.T) {
	const n = 4
	cfg := config.Config{PoolSize: n, QueueCapacity: 10, WorkerBin: longSleepWorkerBin(t)}
	d, _ := newTestDealer(t, cfg)

	jobs := make([]protocol.JobRequest, n)
	for i := 0; i < n; i++ {
		jobs[i] = protocol.JobRequest{JobID: int32(100 + i), Data: int32(i)}
		_, admitted := d.st.admit(jobs[i])
		require.True(t, admitted)

		cmd := exec.Command("sh", "-c", "exit 0")
		require.NoError(t, cmd.Start())
		pid := int32(cmd.Process.Pid)
		d.trackWorker(pid)
		d.st.stageAck(protocol.WorkerAck{WorkerPID: pid, JobID: jobs[i].JobID})
		d.death.Watch(pid, cmd)
	}

	worker, err := queue.Dial(d.q.request.Path(), protocol.JobRequestSize)
	require.NoError(t, err)
	defer worker.Close()

	go d.runSupervisor()

	type result struct {
		frame []byte
		err   error
	}
	results := make(chan result, n)
	go func() {
		for i := 0; i < n; i++ {
			f, err := worker.Recv()
			results <- result{f, err}
			if err != nil {
				return
			}
		}
	}()

	seen := make(map[int32]bool, n)
	for i := 0; i < n; i++ {
		select {
		case r := <-results:
			require.NoError(t, r.err)
			job, err := protocol.DecodeJobRequest(r.frame)
			require.NoError(t, err)
			seen[job.JobID] = true
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for resend %d/%d", i+1, n)
		}
	}
	for _, job := range jobs {
		require.True(t, seen[job.JobID], "job %d must have been resent", job.JobID)
	}
	require.Equal(t, float64(n), testutil.ToFloat64(d.metrics.JobsResent))
}
