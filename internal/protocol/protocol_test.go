package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobRequestRoundTrip(t *testing.T) {
	r := JobRequest{JobID: 7, Data: 40}
	buf := r.Encode(nil)
	require.Len(t, buf, JobRequestSize)

	got, err := DecodeJobRequest(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestJobResponseRoundTrip(t *testing.T) {
	r := JobResponse{JobID: 7, Result: 102334155, WorkerPID: 4242}
	buf := r.Encode(nil)
	require.Len(t, buf, JobResponseSize)

	got, err := DecodeJobResponse(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestWorkerAckRoundTrip(t *testing.T) {
	a := WorkerAck{WorkerPID: 4242, JobID: 7}
	buf := a.Encode(nil)
	require.Len(t, buf, WorkerAckSize)

	got, err := DecodeWorkerAck(buf)
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestDecodeJobRequestWrongSize(t *testing.T) {
	_, err := DecodeJobRequest([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestEncodeAppendsToExistingBuffer(t *testing.T) {
	prefix := []byte{0xff}
	buf := JobRequest{JobID: -1, Data: 0}.Encode(prefix)
	require.Equal(t, byte(0xff), buf[0])
	require.Len(t, buf, 1+JobRequestSize)
}
