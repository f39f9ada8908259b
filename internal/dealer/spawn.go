package dealer

import (
	"fmt"
	"os/exec"
)

// spawnWorker forks a fresh worker process image, passing the request,
// response, and ack queue paths as its three positional arguments, per the
// worker contract.
func (x *Dealer) spawnWorker() (*exec.Cmd, int32, error) {
	cmd := exec.Command(x.cfg.WorkerBin, x.q.request.Path(), x.q.response.Path(), x.q.ack.Path())
	cmd.Stdout = x.workerStdout
	cmd.Stderr = x.workerStderr

	if err := cmd.Start(); err != nil {
		return nil, 0, fmt.Errorf("dealer: spawn worker: %w", err)
	}
	return cmd, int32(cmd.Process.Pid), nil
}
