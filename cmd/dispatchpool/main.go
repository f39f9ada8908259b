// Command dispatchpool is the thin launcher that starts a Producer and a
// Dealer as sibling processes sharing one producer queue path, mirroring
// the original single-entry-point wiring: the launcher only forks the two
// children and gets out of the way.
package main

import (
	"fmt"
	"os"
	"os/exec"
)

func main() {
	os.Exit(run())
}

func run() int {
	queuePath := fmt.Sprintf("tp_gen_%d.sock", os.Getpid())

	producer := exec.Command("producer", queuePath)
	producer.Stdout = os.Stdout
	producer.Stderr = os.Stderr
	if err := producer.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "[DispatchPool] start producer: %v\n", err)
		return 1
	}

	dealer := exec.Command("dealer", queuePath)
	dealer.Stdout = os.Stdout
	dealer.Stderr = os.Stderr
	if err := dealer.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "[DispatchPool] start dealer: %v\n", err)
		return 1
	}

	dealerErr := dealer.Wait()
	_ = producer.Wait()

	if dealerErr != nil {
		fmt.Fprintf(os.Stderr, "[DispatchPool] dealer exited: %v\n", dealerErr)
		return 1
	}
	return 0
}
