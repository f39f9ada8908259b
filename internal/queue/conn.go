// Package queue implements the Dealer's Queue Plane: bounded, named,
// cross-process FIFOs realized over Unix domain stream sockets.
//
// A POSIX message queue is a single named endpoint shared transparently by
// every competing reader or writer; a Unix domain stream socket is one
// connection per peer. Broker bridges the two: it accepts one connection per
// worker and forwards frames to/from a single shared, bounded Go channel,
// which is what actually gives callers the "many producers or many consumers,
// one FIFO" semantics spec.md asks for.
package queue

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// ErrClosed is returned by Broker operations performed after Close.
var ErrClosed = errors.New("queue: closed")

// errNotUnixConn is returned internally when peer-credential lookup is
// attempted on a non-Unix-domain connection.
var errNotUnixConn = errors.New("queue: not a unix domain connection")

// Conn wraps a single Unix domain stream connection, reading and writing
// whole fixed-size frames.
type Conn struct {
	c         net.Conn
	frameSize int
}

func newConn(c net.Conn, frameSize int) *Conn {
	return &Conn{c: c, frameSize: frameSize}
}

// Dial connects to a queue's socket path as a client, i.e. as a Worker or
// Producer would. frameSize is the fixed frame size used by this queue.
func Dial(path string, frameSize int) (*Conn, error) {
	c, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("queue: dial %s: %w", path, err)
	}
	return newConn(c, frameSize), nil
}

// Send writes frame to the connection. frame must be exactly the Conn's
// configured frame size.
func (x *Conn) Send(frame []byte) error {
	if len(frame) != x.frameSize {
		return fmt.Errorf("queue: send: frame is %d bytes, want %d", len(frame), x.frameSize)
	}
	if _, err := x.c.Write(frame); err != nil {
		return fmt.Errorf("queue: send: %w", err)
	}
	return nil
}

// Recv reads exactly one frame from the connection, blocking until a full
// frame is available. io.EOF (possibly wrapped) indicates the peer closed
// its end.
func (x *Conn) Recv() ([]byte, error) {
	buf := make([]byte, x.frameSize)
	if _, err := io.ReadFull(x.c, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return nil, err
	}
	return buf, nil
}

// Close closes the underlying connection.
func (x *Conn) Close() error {
	return x.c.Close()
}
