package ppp

// Metrics is a small set of running counters a host can inspect for
// observability. It intentionally does not pull in a metrics client
// library: the counters are plain fields, left for the host to export
// however it already exports its own metrics.
type Metrics struct {
	FramesRead     uint64
	FramesWritten  uint64
	FramesDropped  uint64
	Retransmits    uint64
	KeepalivesSent uint64
}

// Metrics returns a snapshot of the session's running counters.
func (s *Session) Metrics() Metrics { return s.metrics }
