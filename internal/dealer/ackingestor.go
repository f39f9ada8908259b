package dealer

import (
	"github.com/Dav1216/DispatchPool/internal/protocol"
)

// runAckIngestor drains the ack queue into the staging buffer. It performs
// no further interpretation — reconciling staged acks into the assignment
// table is the Supervisor's job alone (spec.md §4.5's ordering
// requirement). Exits once shutting_down is observed.
func (x *Dealer) runAckIngestor() {
	for {
		if x.st.shuttingDown.Load() {
			return
		}

		frame, err := x.q.ack.Recv()
		if err != nil {
			return // ack queue closed
		}

		ack, err := protocol.DecodeWorkerAck(frame)
		if err != nil {
			x.log.Warning().Err(err).Log("ack queue: discarding malformed frame")
			continue
		}

		x.st.stageAck(ack)
	}
}
