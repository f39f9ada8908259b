package queue

import (
	"fmt"
	"sync"
)

// Direction describes which way frames flow through a Broker, from the
// Dealer's point of view.
type Direction int

const (
	// Inbound queues are written to by workers and read by the Dealer (the
	// response and ack queues).
	Inbound Direction = iota
	// Outbound queues are written to by the Dealer and read by workers (the
	// request queue).
	Outbound
)

// Frame is one fixed-size wire record.
type Frame = []byte

// Broker owns a Listener and fans frames between an arbitrary number of
// worker connections and one shared, bounded channel, giving callers the
// "single FIFO, many competing peers" semantics of a kernel message queue.
//
// For an Outbound broker, Send enqueues a frame that exactly one connected
// worker's forwarder goroutine will dequeue and write — whichever is ready
// first, mirroring how idle workers race to receive the next message from a
// real queue. For an Inbound broker, every connected worker's forwarder
// reads frames off its own connection and feeds them into the same channel,
// which Recv/TryRecv drain.
type Broker struct {
	ln        *Listener
	dir       Direction
	frameSize int

	ch   chan Frame
	done chan struct{}
	wg   sync.WaitGroup

	mu    sync.Mutex
	conns map[int32]*Conn
}

// NewBroker creates and binds the queue's socket at path, then begins
// accepting worker connections in the background. capacity bounds the number
// of frames buffered in the shared channel; sends block when it is full and
// receives block when it is empty, matching spec.md's bounded-FIFO
// requirement.
func NewBroker(path string, dir Direction, frameSize, capacity int) (*Broker, error) {
	ln, err := Listen(path)
	if err != nil {
		return nil, err
	}

	b := &Broker{
		ln:        ln,
		dir:       dir,
		frameSize: frameSize,
		ch:        make(chan Frame, capacity),
		done:      make(chan struct{}),
		conns:     make(map[int32]*Conn),
	}

	b.wg.Add(1)
	go b.acceptLoop()

	return b, nil
}

// Path returns the queue's socket path.
func (x *Broker) Path() string {
	return x.ln.Path()
}

func (x *Broker) acceptLoop() {
	defer x.wg.Done()

	for {
		conn, err := x.ln.Accept(x.frameSize)
		if err != nil {
			return // listener closed
		}

		pid, _ := peerPID(conn.c) // best effort; 0 if unavailable

		x.mu.Lock()
		x.conns[pid] = conn
		x.mu.Unlock()

		x.wg.Add(1)
		go x.forward(conn, pid)
	}
}

func (x *Broker) forward(c *Conn, pid int32) {
	defer x.wg.Done()
	defer func() {
		x.mu.Lock()
		delete(x.conns, pid)
		x.mu.Unlock()
		_ = c.Close()
	}()

	switch x.dir {
	case Outbound:
		for {
			select {
			case <-x.done:
				return
			case frame := <-x.ch:
				if err := c.Send(frame); err != nil {
					// peer died before the frame was actually delivered, so no
					// ack was ever sent for it - the Supervisor has nothing to
					// resend. Put it back on the shared channel so a live
					// sibling forwarder can still claim and deliver it.
					select {
					case x.ch <- frame:
					case <-x.done:
					}
					return
				}
			}
		}

	case Inbound:
		for {
			frame, err := c.Recv()
			if err != nil {
				return
			}
			select {
			case x.ch <- frame:
			case <-x.done:
				return
			}
		}
	}
}

// Send enqueues frame for delivery to whichever worker connection is next
// ready to receive. Valid only for an Outbound broker; blocks if the shared
// channel is full.
func (x *Broker) Send(frame Frame) error {
	if x.dir != Outbound {
		return fmt.Errorf("queue: send on non-outbound broker")
	}
	select {
	case x.ch <- frame:
		return nil
	case <-x.done:
		return ErrClosed
	}
}

// Recv blocks until a frame is available. Valid only for an Inbound broker.
func (x *Broker) Recv() (Frame, error) {
	if x.dir != Inbound {
		return nil, fmt.Errorf("queue: recv on non-inbound broker")
	}
	select {
	case frame := <-x.ch:
		return frame, nil
	case <-x.done:
		return nil, ErrClosed
	}
}

// TryRecv performs a non-blocking receive: the idiomatic Go equivalent of
// opening a second, O_NONBLOCK descriptor onto the same queue. It returns
// ok == false immediately if no frame is currently buffered.
func (x *Broker) TryRecv() (frame Frame, ok bool) {
	select {
	case frame = <-x.ch:
		return frame, true
	default:
		return nil, false
	}
}

// Close stops accepting new connections, unlinks the socket, and waits for
// all forwarder goroutines to exit.
func (x *Broker) Close() error {
	close(x.done)
	err := x.ln.Close()
	x.wg.Wait()
	return err
}
