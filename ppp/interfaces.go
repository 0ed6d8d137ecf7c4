package ppp

import (
	"errors"
	"time"
)

// ErrWouldBlock is returned by a Transport's Read or Write method when
// the non-blocking operation could not make progress immediately.
var ErrWouldBlock = errors.New("ppp: transport would block")

// Transport is the non-blocking byte-stream primitive the session reads
// PPP frames from and writes them to. Implementations are expected to
// wrap a TLS or DTLS connection; the handshake and authentication that
// establish it are out of scope for this package.
//
// Write must be retried with the exact same byte slice and length after
// a partial write: the session itself guarantees this by retaining the
// packet and replaying the identical slice on the next Mainloop call,
// but an implementation must not assume it can resume from an
// arbitrary offset if handed a different slice.
type Transport interface {
	Read(buf []byte) (n int, err error)
	Write(buf []byte) (n int, err error)
}

// Reconnector is consulted when the session decides the transport needs
// to be torn down and re-established. Reconnection policy (backoff,
// retry limits) belongs entirely to the host.
type Reconnector interface {
	Reconnect() error
}

// KeepaliveAction is the outcome of consulting the host's keepalive and
// dead-peer-detection tracker.
type KeepaliveAction int

const (
	KeepaliveNone KeepaliveAction = iota
	KeepaliveKeepalive
	KeepaliveDPD
	KeepaliveDPDDead
	KeepaliveRekey
)

// KeepaliveTracker decides what liveness action, if any, the mainloop
// should take on this tick, and folds any relevant deadline into the
// timeout the host will next block on.
type KeepaliveTracker interface {
	// Action returns the liveness action due on this tick, updating
	// *timeout down to the smallest relevant deadline.
	Action(now time.Time, timeout *time.Duration) KeepaliveAction
}

// IPInfo carries network parameters negotiated or learned during the
// session, for consumption by the host (route/DNS/interface setup).
type IPInfo struct {
	MTU      uint16
	IPv4Addr string
	IPv6Addr string
}

// Queue is the FIFO the host and the mainloop use to hand packets to
// each other. Implementations are expected to be single-producer,
// single-consumer per direction.
type Queue interface {
	Enqueue(p *Packet)
	Dequeue() *Packet
	Empty() bool
}

// Packet is a host-owned buffer with a movable payload window. The
// host allocates the backing array with headroom in front of the
// payload so that outer encapsulation and PPP headers can be written
// in place, without a copy, by walking the offset backwards.
type Packet struct {
	buf    []byte
	offset int
	length int

	// Proto annotates a control-queue packet with the PPP protocol
	// number it belongs to, out of band from the wire bytes, so the
	// mainloop's write path knows which header-compression rules
	// apply when it prepends the PPP header.
	Proto Proto
}

// NewPacket allocates a packet with capacity bytes available for the
// payload and headroom bytes of free space before it, into which
// headers can later be written.
func NewPacket(headroom, capacity int) *Packet {
	buf := make([]byte, headroom+capacity)
	return &Packet{buf: buf, offset: headroom, length: 0}
}

// PacketFromPayload wraps an existing payload slice for transmission,
// reserving headroom bytes ahead of it for header writes. The payload
// is copied into the new backing array.
func PacketFromPayload(payload []byte, headroom int) *Packet {
	p := NewPacket(headroom, len(payload))
	p.length = copy(p.buf[p.offset:], payload)
	return p
}

// Payload returns the packet's current payload window.
func (p *Packet) Payload() []byte {
	return p.buf[p.offset : p.offset+p.length]
}

// SetPayload overwrites the payload window in place, growing the
// window within the backing array's existing capacity if need be.
func (p *Packet) SetPayload(b []byte) {
	n := copy(p.buf[p.offset:cap(p.buf)], b)
	p.length = n
}

// Headroom reports how many bytes are free ahead of the payload.
func (p *Packet) Headroom() int {
	return p.offset
}

// Prepend writes b immediately ahead of the current payload window,
// growing the window backwards. It fails if there isn't enough
// headroom.
func (p *Packet) Prepend(b []byte) error {
	if len(b) > p.offset {
		return resourceErr("insufficient packet headroom for header")
	}
	p.offset -= len(b)
	copy(p.buf[p.offset:], b)
	p.length += len(b)
	return nil
}

// WireBytes returns the fully-framed bytes ready for transport.Write.
// Because Prepend only ever moves p.offset backwards and writes within
// the packet's own backing array, a partial write can always be
// retried by calling WireBytes again: the offset is stable until the
// packet is released back to the host.
func (p *Packet) WireBytes() []byte {
	return p.buf[p.offset : p.offset+p.length]
}
