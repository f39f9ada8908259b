package dealer

import (
	"fmt"
	"os"
	"time"

	"github.com/Dav1216/DispatchPool/internal/protocol"
	"github.com/Dav1216/DispatchPool/internal/queue"
)

// producerDialRetries and producerDialBackoff absorb the startup race
// against a sibling Producer process that may not have bound its queue's
// socket yet.
const (
	producerDialRetries = 20
	producerDialBackoff = 50 * time.Millisecond
)

func dialProducer(path string) (*queue.Conn, error) {
	var lastErr error
	for i := 0; i < producerDialRetries; i++ {
		c, err := queue.Dial(path, protocol.JobRequestSize)
		if err == nil {
			return c, nil
		}
		lastErr = err
		time.Sleep(producerDialBackoff)
	}
	return nil, lastErr
}

// queues owns the Dealer's three created brokers (request, response, ack)
// and the one connection it merely dials into (the producer queue, bound by
// the Producer — there is exactly one producer, so it needs no broker).
type queues struct {
	producer *queue.Conn

	request  *queue.Broker
	response *queue.Broker
	ack      *queue.Broker
}

func queueNames(dealerPID int) (req, resp, ack string) {
	return fmt.Sprintf("tp_req_%d.sock", dealerPID),
		fmt.Sprintf("tp_resp_%d.sock", dealerPID),
		fmt.Sprintf("tp_ack_%d.sock", dealerPID)
}

// openQueues dials the producer queue and creates the three Dealer-owned
// brokers. On any failure it closes whatever already succeeded before
// returning the error, since setup failure is fatal (spec §4.1).
func openQueues(producerPath string, capacity int) (*queues, error) {
	pc, err := dialProducer(producerPath)
	if err != nil {
		return nil, fmt.Errorf("dealer: open producer queue: %w", err)
	}

	reqPath, respPath, ackPath := queueNames(os.Getpid())

	req, err := queue.NewBroker(reqPath, queue.Outbound, protocol.JobRequestSize, capacity)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("dealer: create request queue: %w", err)
	}

	resp, err := queue.NewBroker(respPath, queue.Inbound, protocol.JobResponseSize, capacity)
	if err != nil {
		_ = pc.Close()
		_ = req.Close()
		return nil, fmt.Errorf("dealer: create response queue: %w", err)
	}

	ack, err := queue.NewBroker(ackPath, queue.Inbound, protocol.WorkerAckSize, capacity)
	if err != nil {
		_ = pc.Close()
		_ = req.Close()
		_ = resp.Close()
		return nil, fmt.Errorf("dealer: create ack queue: %w", err)
	}

	return &queues{producer: pc, request: req, response: resp, ack: ack}, nil
}

// close tears down every queue. Individual errors are collected but do not
// stop the remaining closes from running.
func (x *queues) close() error {
	var errs []error
	if err := x.producer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := x.request.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := x.response.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := x.ack.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("dealer: close queues: %v", errs)
}
