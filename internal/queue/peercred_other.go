//go:build !linux

package queue

import "net"

// peerPID is unsupported outside Linux and always returns an error; Broker
// then records the connection under PID 0.
func peerPID(net.Conn) (int32, error) {
	return 0, errNotUnixConn
}
