// Command producer is the reference Producer: it binds the queue path given
// as its one positional argument, emits a fixed Fibonacci job sequence
// paced 100ms apart (mirroring the original task generator), then a single
// end-of-stream terminator.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Dav1216/DispatchPool/internal/protocol"
	"github.com/Dav1216/DispatchPool/internal/queue"
)

var jobs = []protocol.JobRequest{
	{JobID: 1, Data: 40},
	{JobID: 2, Data: 41},
	{JobID: 3, Data: 42},
	{JobID: 4, Data: 43},
	{JobID: 5, Data: 44},
	{JobID: 6, Data: 45},
	{JobID: 7, Data: 45},
	{JobID: 8, Data: 41},
	{JobID: 9, Data: 42},
	{JobID: 10, Data: 43},
	{JobID: 11, Data: 44},
	{JobID: 12, Data: 45},
}

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: producer <queue-path>")
		return 1
	}
	path := os.Args[1]

	ln, err := queue.Listen(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Producer] listen %s: %v\n", path, err)
		return 1
	}
	defer ln.Close()

	fmt.Fprintf(os.Stderr, "[Producer] queue created: %s\n", path)

	conn, err := ln.Accept(protocol.JobRequestSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Producer] accept: %v\n", err)
		return 1
	}
	defer conn.Close()

	for _, job := range jobs {
		buf := job.Encode(make([]byte, 0, protocol.JobRequestSize))
		if err := conn.Send(buf); err != nil {
			fmt.Fprintf(os.Stderr, "[Producer] send: %v\n", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	term := protocol.JobRequest{JobID: protocol.JobEndOfStream, Data: 0}.Encode(make([]byte, 0, protocol.JobRequestSize))
	if err := conn.Send(term); err != nil {
		fmt.Fprintf(os.Stderr, "[Producer] send terminator: %v\n", err)
	}
	return 0
}
