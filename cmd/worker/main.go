// Command worker is the reference Worker: it dials the three queue paths
// given as its positional arguments, acks each job before computing it, and
// emits a response — honoring the contract spec.md §6 requires of any
// worker process, not just this one.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/Dav1216/DispatchPool/internal/config"
	"github.com/Dav1216/DispatchPool/internal/fib"
	"github.com/Dav1216/DispatchPool/internal/protocol"
	"github.com/Dav1216/DispatchPool/internal/queue"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: worker <request-queue> <response-queue> <ack-queue>")
		return 1
	}

	pid := int32(os.Getpid())
	reqPath, respPath, ackPath := os.Args[1], os.Args[2], os.Args[3]

	req, err := queue.Dial(reqPath, protocol.JobRequestSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Worker %d] dial request queue: %v\n", pid, err)
		return 1
	}
	defer req.Close()

	resp, err := queue.Dial(respPath, protocol.JobResponseSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Worker %d] dial response queue: %v\n", pid, err)
		return 1
	}
	defer resp.Close()

	ack, err := queue.Dial(ackPath, protocol.WorkerAckSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Worker %d] dial ack queue: %v\n", pid, err)
		return 1
	}
	defer ack.Close()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Worker %d] config: %v\n", pid, err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "[Worker %d] starting up\n", pid)

	for {
		frame, err := req.Recv()
		if err != nil {
			return 0 // request queue closed: treat as shutdown
		}

		job, err := protocol.DecodeJobRequest(frame)
		if err != nil {
			continue
		}

		if job.JobID == protocol.JobShutdown {
			fmt.Fprintf(os.Stderr, "[Worker %d] received shutdown signal\n", pid)
			return 0
		}

		ackFrame := protocol.WorkerAck{WorkerPID: pid, JobID: job.JobID}.Encode(make([]byte, 0, protocol.WorkerAckSize))
		if err := ack.Send(ackFrame); err != nil {
			fmt.Fprintf(os.Stderr, "[Worker %d] ack send: %v\n", pid, err)
		}

		result := int32(fib.Compute(int64(job.Data)))

		maybeCrash(cfg.WorkerCrashDenominator, pid)

		respFrame := protocol.JobResponse{JobID: job.JobID, Result: result, WorkerPID: pid}.Encode(make([]byte, 0, protocol.JobResponseSize))
		if err := resp.Send(respFrame); err != nil {
			fmt.Fprintf(os.Stderr, "[Worker %d] response send: %v\n", pid, err)
		}
	}
}

// maybeCrash mirrors worker.cpp's `rand() % 3 == 0` simulated fault, made
// opt-in and tunable via DEALER_WORKER_CRASH_DENOMINATOR: a worker exits
// uncleanly with probability 1/denominator. Zero disables it.
func maybeCrash(denominator int, pid int32) {
	if denominator <= 0 {
		return
	}
	if rand.Intn(denominator) == 0 {
		fmt.Fprintf(os.Stderr, "[Worker %d] simulated crash\n", pid)
		os.Exit(1)
	}
}
