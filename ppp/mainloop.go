package ppp

import (
	"encoding/binary"
	"time"

	"github.com/go-kit/kit/log/level"
)

// MainloopStatus is the outcome of a single Mainloop call.
type MainloopStatus int

const (
	// StatusIdle means no work was available: nothing was read,
	// nothing was due to send.
	StatusIdle MainloopStatus = iota
	// StatusProgress means at least one frame or timer event was
	// processed; the host may wish to call Mainloop again immediately
	// rather than waiting out the full timeout.
	StatusProgress
	// StatusFinished means the session is over: it has reached
	// TERMINATE, or a transport read or write failed (the phase is
	// then left as it was). The host should tear down the transport
	// and, unless the returned error is nil, treat it as a request to
	// reconnect.
	StatusFinished
)

// Host bundles the external collaborators the mainloop needs on every
// call: the transport, the three packet queues, the keepalive/DPD
// tracker, and the reconnection hook. Passing them in explicitly
// (rather than storing them on the Session) keeps the engine testable
// with fakes and keeps Session free of host-lifetime state.
type Host struct {
	Transport  Transport
	Control    Queue
	OutgoingIP Queue
	IncomingIP Queue
	Keepalive  KeepaliveTracker
	Reconnect  Reconnector
}

const minRxBytes = 8

func mtuOrDefault(mtu uint16) int {
	capacity := 16384
	if int(mtu) > capacity {
		capacity = int(mtu)
	}
	return capacity
}

func asyncmapFor(proto Proto) uint32 {
	if proto == ProtoLCP {
		return 0xffffffff
	}
	return 0
}

// Mainloop is the single entry point driving the session forward. The
// host calls it whenever the transport is readable or writable, or
// when the previously-returned timeout has elapsed, passing the
// current time, whether the transport looked readable, and a timeout
// hint. The call hands the timeout to the host's KeepaliveTracker, which
// may shrink it to its next deadline; Configure-Request retransmit
// deadlines are not folded into it.
func (s *Session) Mainloop(now time.Time, readable bool, timeout *time.Duration, host *Host) (MainloopStatus, error) {
	progressed := false

	s.advance(now)
	for _, pc := range s.pendingCtlOut {
		s.queueControl(host.Control, pc.proto, pc.pkt)
		progressed = true
	}
	s.pendingCtlOut = s.pendingCtlOut[:0]

	if s.Phase == PhaseTerminate {
		return StatusFinished, s.terminalError()
	}

	if readable {
		for {
			n, err := s.readFrame(now, host)
			if err == ErrWouldBlock {
				break
			}
			if err != nil {
				if perr, ok := err.(*Error); ok && perr.Kind == KindResourceExhaustion {
					level.Info(s.logger).Log("message", "receive allocation failed, resuming next tick", "err", err)
					break
				}
				return StatusFinished, err
			}
			if n == 0 {
				break
			}
			progressed = true
			if s.Phase == PhaseTerminate {
				break
			}
		}
	}
	if s.Phase == PhaseTerminate {
		// Send any replies queued while reading (e.g. a Terminate-Ack)
		// before reporting the session finished.
		for s.pendingWrite == nil {
			pkt := host.Control.Dequeue()
			if pkt == nil {
				break
			}
			if err := s.sendPacket(host.Transport, pkt); err != nil {
				return StatusFinished, err
			}
		}
		return StatusFinished, s.terminalError()
	}

	if s.pendingWrite != nil {
		done, err := s.retryWrite(host.Transport)
		if err != nil {
			return StatusFinished, err
		}
		if done {
			progressed = true
		}
	}

	if host.Keepalive != nil {
		switch host.Keepalive.Action(now, timeout) {
		case KeepaliveDPDDead:
			if host.Reconnect != nil {
				_ = host.Reconnect.Reconnect()
			}
			s.quit(KindTransportError, "dead peer detected")
			s.Phase = PhaseTerminate
			return StatusFinished, transportErr("dead peer detected", nil)
		case KeepaliveKeepalive:
			if host.Control.Empty() && host.OutgoingIP.Empty() {
				s.queueControl(host.Control, ProtoLCP, &ctlPacket{Code: CodeDiscardRequest, ID: s.nextUtilID()})
				s.metrics.KeepalivesSent++
				progressed = true
			}
		case KeepaliveDPD:
			s.queueControl(host.Control, ProtoLCP, &ctlPacket{
				Code:  CodeEchoRequest,
				ID:    s.nextUtilID(),
				Magic: binary.BigEndian.Uint32(s.out.lcpMagic[:]),
			})
			s.metrics.KeepalivesSent++
			progressed = true
		case KeepaliveRekey, KeepaliveNone:
			// nothing further this tick.
		}
	}

	if s.pendingWrite == nil {
		pkt := host.Control.Dequeue()
		if pkt == nil && s.Phase == PhaseNetwork {
			pkt = host.OutgoingIP.Dequeue()
		}
		if pkt != nil {
			if err := s.sendPacket(host.Transport, pkt); err != nil {
				return StatusFinished, err
			}
			progressed = true
		}
	}

	if progressed {
		return StatusProgress, nil
	}
	return StatusIdle, nil
}

func (s *Session) nextUtilID() uint8 {
	id := s.out.utilID
	s.out.utilID++
	return id
}

func (s *Session) terminalError() error {
	if s.quitReason == "" {
		return nil
	}
	return &Error{Kind: s.quitKind, Reason: s.quitReason}
}

// queueControl wraps a control packet's bytes as a host queue Packet,
// reserving enough headroom for the PPP header and outer encapsulation
// the write path will later prepend.
func (s *Session) queueControl(control Queue, proto Proto, pkt *ctlPacket) {
	headroom := s.cfg.Encap.HeaderLen() + 4
	p := PacketFromPayload(pkt.bytes(), headroom)
	p.Proto = proto
	control.Enqueue(p)
}

// readFrame reads and processes a single frame from the transport. It
// returns (1, nil) on a processed frame, (0, ErrWouldBlock) when no
// more data is available, and a non-nil *Error for anything requiring
// the caller to stop looping.
func (s *Session) readFrame(now time.Time, host *Host) (int, error) {
	headroom := s.cfg.Encap.HeaderLen() + s.in.pppHdrSize
	capacity := mtuOrDefault(s.IPInfo.MTU)
	buf := make([]byte, headroom+capacity)

	n, err := host.Transport.Read(buf)
	if err == ErrWouldBlock {
		return 0, ErrWouldBlock
	}
	if err != nil {
		return 0, transportErr("transport read failed", err)
	}
	if n == 0 {
		return 0, ErrWouldBlock
	}
	if n < minRxBytes {
		return 0, s.fail(KindProtocolViolation, "short read from transport", nil)
	}

	s.lastRx = now

	raw := buf[:n]
	if s.cfg.Encap.HDLC() {
		unescaped, uerr := hdlcUnescape(raw)
		if uerr != nil {
			level.Info(s.logger).Log("message", "dropping frame with bad HDLC escaping", "err", uerr)
			return 1, nil
		}
		raw = unescaped
	}

	inner, err := unwrapOuter(s.cfg.Encap, raw)
	if err != nil {
		level.Info(s.logger).Log("message", "dropping frame with bad outer encapsulation", "err", err)
		return 1, nil
	}

	proto, payload, hdrLen, err := parsePPPHeader(inner, s.in.lcpOpts)
	if err != nil {
		if perr, ok := err.(*Error); ok && perr.Fatal() {
			return 0, s.fail(KindProtocolViolation, "bad ppp header", perr.Err)
		}
		level.Info(s.logger).Log("message", "dropping frame with malformed ppp header", "err", err)
		return 1, nil
	}
	s.in.pppHdrSize = hdrLen

	switch proto {
	case ProtoLCP, ProtoIPCP, ProtoIP6CP:
		reply, derr := s.dispatchCtl(proto, payload, now)
		if derr != nil {
			perr, ok := derr.(*Error)
			if ok && perr.Kind == KindProtocolViolation {
				return 0, s.fail(KindProtocolViolation, perr.Reason, perr.Err)
			}
			// KindPeerTermination: phase is already TERMINATE, fall
			// through to enqueue any reply (e.g. a Terminate-Ack).
		}
		if reply != nil {
			s.queueControl(host.Control, proto, reply)
		}
		s.metrics.FramesRead++
		return 1, nil

	case ProtoIPv4, ProtoIPv6:
		if s.Phase != PhaseNetwork {
			level.Debug(s.logger).Log("message", "dropping ip packet received before NETWORK phase", "proto", proto)
			s.metrics.FramesDropped++
			return 1, nil
		}
		ipPkt := PacketFromPayload(payload, s.cfg.Encap.HeaderLen()+4)
		host.IncomingIP.Enqueue(ipPkt)
		s.metrics.FramesRead++
		return 1, nil

	default:
		return 0, s.fail(KindProtocolViolation, "unknown ppp protocol number", nil)
	}
}

// sendPacket prepends the PPP header and outer encapsulation to pkt and
// attempts a non-blocking write. On a partial write the packet is
// retained for an identical retry on the next call.
func (s *Session) sendPacket(t Transport, pkt *Packet) error {
	if pkt.Proto == 0 {
		inferIPProtocol(pkt)
	}

	hdr := buildPPPHeader(pkt.Proto, s.out.lcpOpts)
	if err := pkt.Prepend(hdr); err != nil {
		return resourceErr("insufficient headroom for ppp header")
	}

	var wire []byte
	if s.cfg.Encap.HDLC() {
		wire = hdlcEscape(pkt.WireBytes(), asyncmapFor(pkt.Proto))
		pkt = PacketFromPayload(wire, 0)
	} else {
		outerHdr := make([]byte, 4)
		outerHdr[0] = f5Magic
		outerHdr[1] = f5MagicV
		binary.BigEndian.PutUint16(outerHdr[2:4], uint16(len(pkt.WireBytes())))
		if err := pkt.Prepend(outerHdr); err != nil {
			return resourceErr("insufficient headroom for outer header")
		}
	}

	s.pendingWrite = pkt
	done, err := s.retryWrite(t)
	if err != nil {
		return err
	}
	if !done {
		s.wantWrite = true
	}
	return nil
}

// retryWrite attempts to write the retained pendingWrite packet,
// replaying the identical slice and length the transport previously
// reported as a partial write.
func (s *Session) retryWrite(t Transport) (done bool, err error) {
	wire := s.pendingWrite.WireBytes()
	n, werr := t.Write(wire)
	if werr == ErrWouldBlock {
		s.wantWrite = true
		return false, nil
	}
	if werr != nil {
		s.pendingWrite = nil
		s.wantWrite = false
		return false, transportErr("transport write failed", werr)
	}
	if n < len(wire) {
		// Partial write: retain the packet at its current offset so
		// the exact same bytes are replayed next time. Non-blocking
		// transports that support partial application-level framing
		// would normally slice their own internal cursor; this
		// engine relies on the contract that Write is retried with
		// identical arguments until it reports full completion.
		s.wantWrite = true
		return false, nil
	}
	s.pendingWrite = nil
	s.wantWrite = false
	s.metrics.FramesWritten++
	return true, nil
}

func inferIPProtocol(p *Packet) {
	payload := p.Payload()
	if len(payload) == 0 {
		p.Proto = ProtoIPv4
		return
	}
	if payload[0]>>4 == 6 {
		p.Proto = ProtoIPv6
	} else {
		p.Proto = ProtoIPv4
	}
}
