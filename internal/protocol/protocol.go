// Package protocol defines the fixed-size wire frames exchanged between the
// Dealer and its Workers, and their binary encoding.
package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// JobEndOfStream is the job_id value used on the producer queue to mark
	// the end of the job stream. It never appears on the request queue.
	JobEndOfStream int32 = -1

	// JobShutdown is the job_id value the Dealer sends on the request queue
	// to tell a worker to exit. It never appears on the producer queue.
	JobShutdown int32 = -2
)

type (
	// JobRequest is the record sent from Producer to Dealer (on the producer
	// queue) and from Dealer to Worker (on the request queue).
	JobRequest struct {
		JobID int32
		Data  int32
	}

	// JobResponse is the record a Worker emits on the response queue after
	// completing a job.
	JobResponse struct {
		JobID     int32
		Result    int32
		WorkerPID int32
	}

	// WorkerAck is the record a Worker emits on the ack queue immediately
	// after receiving a job, before computing it.
	WorkerAck struct {
		WorkerPID int32
		JobID     int32
	}
)

// Sizes of the encoded frames, in bytes. Each field is a little-endian int32,
// laid out in declaration order with no padding.
const (
	JobRequestSize  = 4 * 2
	JobResponseSize = 4 * 3
	WorkerAckSize   = 4 * 2
)

// Encode appends the wire encoding of a JobRequest to buf, returning the
// extended slice.
func (r JobRequest) Encode(buf []byte) []byte {
	var tmp [JobRequestSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], uint32(r.JobID))
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(r.Data))
	return append(buf, tmp[:]...)
}

// DecodeJobRequest decodes a JobRequest from buf, which must be exactly
// JobRequestSize bytes.
func DecodeJobRequest(buf []byte) (JobRequest, error) {
	if len(buf) != JobRequestSize {
		return JobRequest{}, fmt.Errorf("protocol: job request frame must be %d bytes, got %d", JobRequestSize, len(buf))
	}
	return JobRequest{
		JobID: int32(binary.LittleEndian.Uint32(buf[0:4])),
		Data:  int32(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}

// Encode appends the wire encoding of a JobResponse to buf, returning the
// extended slice.
func (r JobResponse) Encode(buf []byte) []byte {
	var tmp [JobResponseSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], uint32(r.JobID))
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(r.Result))
	binary.LittleEndian.PutUint32(tmp[8:12], uint32(r.WorkerPID))
	return append(buf, tmp[:]...)
}

// DecodeJobResponse decodes a JobResponse from buf, which must be exactly
// JobResponseSize bytes.
func DecodeJobResponse(buf []byte) (JobResponse, error) {
	if len(buf) != JobResponseSize {
		return JobResponse{}, fmt.Errorf("protocol: job response frame must be %d bytes, got %d", JobResponseSize, len(buf))
	}
	return JobResponse{
		JobID:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		Result:    int32(binary.LittleEndian.Uint32(buf[4:8])),
		WorkerPID: int32(binary.LittleEndian.Uint32(buf[8:12])),
	}, nil
}

// Encode appends the wire encoding of a WorkerAck to buf, returning the
// extended slice.
func (a WorkerAck) Encode(buf []byte) []byte {
	var tmp [WorkerAckSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], uint32(a.WorkerPID))
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(a.JobID))
	return append(buf, tmp[:]...)
}

// DecodeWorkerAck decodes a WorkerAck from buf, which must be exactly
// WorkerAckSize bytes.
func DecodeWorkerAck(buf []byte) (WorkerAck, error) {
	if len(buf) != WorkerAckSize {
		return WorkerAck{}, fmt.Errorf("protocol: worker ack frame must be %d bytes, got %d", WorkerAckSize, len(buf))
	}
	return WorkerAck{
		WorkerPID: int32(binary.LittleEndian.Uint32(buf[0:4])),
		JobID:     int32(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}
