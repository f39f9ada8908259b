package queue

import (
	"fmt"
	"net"
	"os"
)

// Listener is a Dealer-owned queue endpoint: a Unix domain stream socket
// bound at a filesystem path, analogous to a kernel message queue created by
// name. Workers and Producers Dial the same path as clients.
type Listener struct {
	path string
	ln   *net.UnixListener
}

// Listen creates and binds the socket at path, removing any stale socket file
// left over from a prior run at the same path first. Failure is always
// fatal to the caller: the Queue Plane cannot operate without its sockets.
func Listen(path string) (*Listener, error) {
	_ = os.Remove(path) // best effort; stale socket from a crashed prior run

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("queue: resolve %s: %w", path, err)
	}

	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("queue: listen %s: %w", path, err)
	}

	return &Listener{path: path, ln: ln}, nil
}

// Accept blocks until a client (Worker or Producer) connects, returning the
// accepted connection wrapped for frameSize-sized frame I/O.
func (x *Listener) Accept(frameSize int) (*Conn, error) {
	c, err := x.ln.Accept()
	if err != nil {
		return nil, err
	}
	return newConn(c, frameSize), nil
}

// Path returns the socket's filesystem path.
func (x *Listener) Path() string {
	return x.path
}

// Close closes the listener and unlinks its socket path.
func (x *Listener) Close() error {
	err := x.ln.Close()
	if rmErr := os.Remove(x.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
