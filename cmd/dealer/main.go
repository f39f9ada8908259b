// Command dealer runs the fault-tolerant task dispatcher against a producer
// queue passed as its one positional argument.
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/logiface"

	"github.com/Dav1216/DispatchPool/internal/config"
	"github.com/Dav1216/DispatchPool/internal/dealer"
	"github.com/Dav1216/DispatchPool/internal/log"
	"github.com/Dav1216/DispatchPool/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: dealer <producer-queue-path>")
		return 1
	}
	producerPath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	lg := log.WithDispatchID(log.NewStderr(logiface.LevelInformational))
	mx := metrics.New()

	d, err := dealer.New(producerPath, cfg, lg, mx)
	if err != nil {
		lg.Err().Err(err).Log("dealer setup failed")
		return 1
	}

	if err := d.Run(); err != nil {
		lg.Err().Err(err).Log("dealer exited with error")
		return 1
	}
	return 0
}
