package deathwatch

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBridge_Watch_PostsNoticeOnExit(t *testing.T) {
	b := New(4)

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	b.Watch(int32(cmd.Process.Pid), cmd)

	select {
	case n := <-b.Notices():
		require.Equal(t, int32(cmd.Process.Pid), n.PID)
		require.NoError(t, n.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("notice never arrived")
	}
}

func TestBridge_Watch_NonZeroExitReportsError(t *testing.T) {
	b := New(4)

	cmd := exec.Command("false")
	require.NoError(t, cmd.Start())
	b.Watch(int32(cmd.Process.Pid), cmd)

	n := <-b.Notices()
	require.Error(t, n.Err)
}

func TestBridge_Drain_NonBlockingWhenEmpty(t *testing.T) {
	b := New(4)
	_, ok := b.Drain()
	require.False(t, ok)
}

func TestBridge_Wait_BlocksUntilAllWatchersDone(t *testing.T) {
	b := New(4)

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	b.Watch(int32(cmd.Process.Pid), cmd)

	done := make(chan struct{})
	go func() {
		b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned")
	}

	// the notice is still buffered; Wait does not drain it
	_, ok := b.Drain()
	require.True(t, ok)
}
