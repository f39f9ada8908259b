//go:build linux

package queue

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerPID returns the PID of the process on the other end of a Unix domain
// connection, via SO_PEERCRED. This lets the Dealer learn a worker's real PID
// from the kernel at connect time, rather than trusting a self-reported
// handshake.
func peerPID(c net.Conn) (int32, error) {
	uc, ok := c.(*net.UnixConn)
	if !ok {
		return 0, errNotUnixConn
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return 0, err
	}

	var (
		cred *unix.Ucred
		sErr error
	)
	err = raw.Control(func(fd uintptr) {
		cred, sErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return 0, err
	}
	if sErr != nil {
		return 0, sErr
	}
	return cred.Pid, nil
}
