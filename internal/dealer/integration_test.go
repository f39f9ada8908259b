//go:build integration

package dealer_test

// This file exercises the Dealer end-to-end against real worker and
// producer processes, built from cmd/worker, cmd/producer and cmd/dealer
// via `go build`.
// It is gated behind the `integration` build tag because it forks real OS
// processes and is slower and noisier than the package's unit tests; run it
// with `go test -tags=integration ./internal/dealer/...`.

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildBinary compiles pkg (a path relative to the module root, e.g.
// "./cmd/worker") into dir/name and returns the built path.
func buildBinary(t *testing.T, dir, name, pkg string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	root, err := filepath.Abs("../..")
	require.NoError(t, err)

	cmd := exec.Command("go", "build", "-o", out, pkg)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), "build %s: %s", pkg, stderr.String())
	return out
}

// TestHappyPath runs the reference producer's twelve-job sequence with
// simulated crashes disabled and checks that the dealer exits cleanly within
// the timeout. It does not inspect the individual responses.
func TestHappyPath(t *testing.T) {
	dir := t.TempDir()
	workerBin := buildBinary(t, dir, "worker", "./cmd/worker")
	producerBin := buildBinary(t, dir, "producer", "./cmd/producer")
	dealerBin := buildBinary(t, dir, "dealer", "./cmd/dealer")

	queuePath := filepath.Join(dir, fmt.Sprintf("tp_gen_%d.sock", os.Getpid()))

	producer := exec.Command(producerBin, queuePath)
	producer.Stderr = os.Stderr
	require.NoError(t, producer.Start())
	defer producer.Wait()

	dealer := exec.Command(dealerBin, queuePath)
	dealer.Env = append(os.Environ(),
		"DEALER_WORKER_BIN="+workerBin,
		"DEALER_POOL_SIZE=4",
		"DEALER_WORKER_CRASH_DENOMINATOR=0",
	)
	dealer.Stderr = os.Stderr
	require.NoError(t, dealer.Start())

	done := make(chan error, 1)
	go func() { done <- dealer.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		_ = dealer.Process.Kill()
		t.Fatal("dealer did not exit within timeout")
	}
}
