package ppp

import "fmt"

// Kind classifies a session failure so that callers can decide how to
// react (tear down and reconnect, back off, or just log) without
// string-matching error text.
type Kind int

const (
	// KindProtocolViolation covers malformed headers, unknown options,
	// and unsupported codes that are inconsistent with what was
	// negotiated. Fatal: the session terminates.
	KindProtocolViolation Kind = iota
	// KindTransportError covers read/write failures reported by the
	// transport. The session requests reconnection; reconnection
	// policy itself belongs to the host.
	KindTransportError
	// KindResourceExhaustion covers allocation failures on the receive
	// path. Non-fatal: the mainloop backs off for one tick.
	KindResourceExhaustion
	// KindPeerTermination covers a received Terminate-Request or
	// Terminate-Ack. Not an error as such, but carries an optional
	// peer-supplied reason string.
	KindPeerTermination
)

func (k Kind) String() string {
	switch k {
	case KindProtocolViolation:
		return "protocol violation"
	case KindTransportError:
		return "transport error"
	case KindResourceExhaustion:
		return "resource exhaustion"
	case KindPeerTermination:
		return "peer termination"
	}
	return "unknown"
}

// Error is the error type returned for every session-level failure.
type Error struct {
	Kind   Kind
	Reason string
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether this error requires the session to transition
// to TERMINATE rather than merely dropping the current frame or tick.
func (e *Error) Fatal() bool {
	return e.Kind == KindProtocolViolation
}

func protoErr(reason string, err error) *Error {
	return &Error{Kind: KindProtocolViolation, Reason: reason, Err: err}
}

func transportErr(reason string, err error) *Error {
	return &Error{Kind: KindTransportError, Reason: reason, Err: err}
}

func resourceErr(reason string) *Error {
	return &Error{Kind: KindResourceExhaustion, Reason: reason}
}

func peerTermErr(reason string) *Error {
	return &Error{Kind: KindPeerTermination, Reason: reason}
}
