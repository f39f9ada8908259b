package dealer

import (
	"errors"
	"io"

	"github.com/Dav1216/DispatchPool/internal/protocol"
)

// runSender drains the producer queue, admitting each job into the job
// cache at most once (I1), and forwards the authoritative payload onto the
// request queue. It returns when end-of-stream is observed or the producer
// connection is closed.
func (x *Dealer) runSender() {
	for {
		frame, err := x.q.producer.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				x.log.Err().Err(err).Log("sender: producer queue recv failed, treating as end-of-stream")
			}
			x.st.producerDrained.Store(true)
			return
		}

		job, err := protocol.DecodeJobRequest(frame)
		if err != nil {
			x.log.Warning().Err(err).Log("producer queue: discarding malformed frame")
			continue
		}

		if job.JobID == protocol.JobEndOfStream {
			x.st.producerDrained.Store(true)
			return
		}

		payload, admitted := x.st.admit(job)
		if admitted {
			x.st.jobsAdmitted.Add(1)
			if x.metrics != nil {
				x.metrics.JobsAdmitted.Inc()
				x.metrics.InFlightJobs.Inc()
			}
		}

		buf := payload.Encode(make([]byte, 0, protocol.JobRequestSize))
		if err := x.q.request.Send(buf); err != nil {
			return // request queue closed; shutting down
		}
	}
}
