package ppp

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/kit/log/level"
)

// ctlPacket is the common LCP/IPCP/IP6CP control packet shape: a
// 4-byte code/id/length header followed by a body whose interpretation
// depends on the code.
type ctlPacket struct {
	Code             Code
	ID               uint8
	Options          []Option // Configure-Request/Ack/Nak/Reject
	Data             []byte   // Terminate-Request/Ack, Code-Reject, Protocol-Reject
	Magic            uint32   // Echo-Request/Reply, Discard-Request
	RejectedProtocol uint16   // Protocol-Reject only
}

func parseCtlPacket(b []byte) (*ctlPacket, error) {
	if len(b) < 4 {
		return nil, io.ErrUnexpectedEOF
	}
	p := &ctlPacket{Code: Code(b[0]), ID: b[1]}
	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length < 4 || length > len(b) {
		return nil, io.ErrUnexpectedEOF
	}
	body := b[4:length]

	switch p.Code {
	case CodeConfigureRequest, CodeConfigureAck, CodeConfigureNak, CodeConfigureReject:
		opts, trailing := ParseOptions(body)
		p.Options = opts
		_ = trailing // logged by the caller, not a parse error
	case CodeProtocolReject:
		if len(body) < 2 {
			return nil, io.ErrUnexpectedEOF
		}
		p.RejectedProtocol = binary.BigEndian.Uint16(body[:2])
		p.Data = body[2:]
	case CodeTerminateRequest, CodeTerminateAck, CodeCodeReject:
		p.Data = body
	case CodeEchoRequest, CodeEchoReply, CodeDiscardRequest:
		if len(body) < 4 {
			return nil, io.ErrUnexpectedEOF
		}
		p.Magic = binary.BigEndian.Uint32(body[:4])
		p.Data = body[4:]
	default:
		return nil, fmt.Errorf("unknown control packet code %d", p.Code)
	}
	return p, nil
}

func (p *ctlPacket) bytes() []byte {
	buf := make([]byte, 4, 16)
	buf[0] = uint8(p.Code)
	buf[1] = p.ID

	switch p.Code {
	case CodeConfigureRequest, CodeConfigureAck, CodeConfigureNak, CodeConfigureReject:
		buf = append(buf, Bytes(p.Options)...)
	case CodeProtocolReject:
		var proto [2]byte
		binary.BigEndian.PutUint16(proto[:], p.RejectedProtocol)
		buf = append(buf, proto[:]...)
		buf = append(buf, p.Data...)
	case CodeTerminateRequest, CodeTerminateAck, CodeCodeReject:
		buf = append(buf, p.Data...)
	case CodeEchoRequest, CodeEchoReply, CodeDiscardRequest:
		var magic [4]byte
		binary.BigEndian.PutUint32(magic[:], p.Magic)
		buf = append(buf, magic[:]...)
		buf = append(buf, p.Data...)
	}

	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	return buf
}

// protoKind identifies which NCP a control packet and its options
// belong to, for option-recognition purposes.
type protoKind int

const (
	kindLCP protoKind = iota
	kindIPCP
	kindIP6CP
)

func kindFor(proto Proto) (protoKind, *NCP, bool) {
	switch proto {
	case ProtoLCP:
		return kindLCP, nil, true
	case ProtoIPCP:
		return kindIPCP, nil, true
	case ProtoIP6CP:
		return kindIP6CP, nil, true
	}
	return 0, nil, false
}

func (s *Session) ncpFor(kind protoKind) *NCP {
	switch kind {
	case kindLCP:
		return &s.LCP
	case kindIPCP:
		return &s.IPCP
	default:
		return &s.IP6CP
	}
}

// applyOption validates and applies a single recognized option from an
// incoming Configure-Request, per the (protocol, tag, length) table.
// Any unrecognized triple is an error: the request as a whole is not
// acked.
func (s *Session) applyOption(kind protoKind, o Option) error {
	switch kind {
	case kindLCP:
		switch o.Tag {
		case 1: // MTU
			if len(o.Value) != 2 {
				return fmt.Errorf("bad length for MTU option: %d", len(o.Value))
			}
			s.IPInfo.MTU = clampMTU(binary.BigEndian.Uint16(o.Value))
		case 2: // async control character map
			if len(o.Value) != 4 {
				return fmt.Errorf("bad length for asyncmap option: %d", len(o.Value))
			}
			s.in.asyncmap = binary.BigEndian.Uint32(o.Value)
		case 5: // Magic-Number
			if len(o.Value) != 4 {
				return fmt.Errorf("bad length for magic option: %d", len(o.Value))
			}
			copy(s.in.lcpMagic[:], o.Value)
			s.chooseOutgoingMagic()
		case 7: // Protocol-Field-Compression
			if len(o.Value) != 0 {
				return fmt.Errorf("bad length for PFCOMP option: %d", len(o.Value))
			}
			s.in.lcpOpts |= OptPFCOMP
		case 8: // Address-and-Control-Field-Compression
			if len(o.Value) != 0 {
				return fmt.Errorf("bad length for ACCOMP option: %d", len(o.Value))
			}
			s.in.lcpOpts |= OptACCOMP
		default:
			return fmt.Errorf("unrecognized LCP option %d", o.Tag)
		}
	case kindIPCP:
		switch o.Tag {
		case 2: // IP-Compression-Protocol
			if len(o.Value) != 2 {
				return fmt.Errorf("bad length for IP-Compression-Protocol option: %d", len(o.Value))
			}
			if binary.BigEndian.Uint16(o.Value) != 0x002d {
				return fmt.Errorf("unsupported IP compression protocol %#x", binary.BigEndian.Uint16(o.Value))
			}
			s.in.lcpOpts |= OptVJCOMP
		case 3: // peer IPv4 address
			if len(o.Value) != 4 {
				return fmt.Errorf("bad length for IP-Address option: %d", len(o.Value))
			}
			copy(s.in.peerAddr[:], o.Value)
			s.IPInfo.IPv4Addr = ipv4String(s.in.peerAddr)
		default:
			return fmt.Errorf("unrecognized IPCP option %d", o.Tag)
		}
	case kindIP6CP:
		switch o.Tag {
		case 1: // interface identifier
			if len(o.Value) != 8 {
				return fmt.Errorf("bad length for interface-identifier option: %d", len(o.Value))
			}
			copy(s.in.ipv6IntIdent[:], o.Value)
			s.IPInfo.IPv6Addr = ipv6LinkLocalString(s.in.ipv6IntIdent)
		default:
			return fmt.Errorf("unrecognized IP6CP option %d", o.Tag)
		}
	}
	return nil
}

func clampMTU(mtu uint16) uint16 {
	if mtu < minMTU {
		return minMTU
	}
	return mtu
}

// buildConfigureRequest constructs the outgoing Configure-Request for
// kind, marks the NCP as having sent one, and returns it ready for the
// control queue.
func (s *Session) buildConfigureRequest(now time.Time, kind protoKind) *ctlPacket {
	ncp := s.ncpFor(kind)
	ncp.markReqSent(now)

	p := &ctlPacket{Code: CodeConfigureRequest, ID: ncp.nextID()}

	switch kind {
	case kindLCP:
		s.out.asyncmap = 0
		s.out.lcpOpts = OptACCOMP | OptPFCOMP
		mtu := s.IPInfo.MTU
		if mtu == 0 {
			mtu = defaultMTU
		}
		p.Options = AppendUint16Option(p.Options, 1, mtu)
		p.Options = AppendUint32Option(p.Options, 2, s.out.asyncmap)
		p.Options = AppendUint32Option(p.Options, 5, binary.BigEndian.Uint32(s.out.lcpMagic[:]))
		if s.out.lcpOpts.has(OptPFCOMP) {
			p.Options = AppendFlagOption(p.Options, 7)
		}
		if s.out.lcpOpts.has(OptACCOMP) {
			p.Options = AppendFlagOption(p.Options, 8)
		}
	case kindIPCP:
		if s.cfg.LocalIPv4 != nil {
			p.Options = AppendOption(p.Options, 3, s.out.peerAddr[:])
		}
	case kindIP6CP:
		if s.cfg.LocalIPv6 != nil {
			p.Options = AppendOption(p.Options, 1, s.out.ipv6IntIdent[:])
		}
	}
	return p
}

// handleConfigureRequest parses and applies an incoming Configure-
// Request's options, replying with a Configure-Ack on success. If an
// option fails to apply, the request is simply left unacknowledged and
// the error returned to the caller for logging: this engine doesn't
// implement iterative Nak renegotiation, but a single unrecognized
// option isn't a reason to tear down the session either, so the
// caller treats this as a non-fatal drop rather than a protocol
// violation.
func (s *Session) handleConfigureRequest(kind protoKind, ncp *NCP, in *ctlPacket) (*ctlPacket, error) {
	for _, o := range in.Options {
		if err := s.applyOption(kind, o); err != nil {
			return nil, fmt.Errorf("bad configure-request option: %w", err)
		}
	}
	ncp.state |= ncpConfReqReceived
	ack := &ctlPacket{Code: CodeConfigureAck, ID: in.ID, Options: in.Options}
	ncp.state |= ncpConfAckSent
	return ack, nil
}

// dispatchCtl processes one incoming LCP/IPCP/IP6CP control packet and
// returns any reply packet that must be enqueued on the control queue,
// plus an error. A *Error of KindPeerTermination means the session has
// entered TERMINATE; the reply (if any) must still be sent.
func (s *Session) dispatchCtl(proto Proto, body []byte, now time.Time) (reply *ctlPacket, err error) {
	kind, _, ok := kindFor(proto)
	if !ok {
		return nil, protoErr("unknown NCP protocol", fmt.Errorf("%#x", uint16(proto)))
	}
	ncp := s.ncpFor(kind)

	in, perr := parseCtlPacket(body)
	if perr != nil {
		return nil, protoErr("malformed control packet", perr)
	}

	switch in.Code {
	case CodeConfigureRequest:
		ack, herr := s.handleConfigureRequest(kind, ncp, in)
		if herr != nil {
			// RFC 1661 §4.3: an option we can't honour just means the
			// request goes unacknowledged, not that the session is torn
			// down (original_source/ppp.c's CONFREQ branch never checks
			// handle_config_packet's return value for this reason).
			level.Info(s.logger).Log("message", "dropping malformed configure-request", "proto", proto, "err", herr)
			s.metrics.FramesDropped++
			return nil, nil
		}
		return ack, nil

	case CodeConfigureAck:
		ncp.state |= ncpConfAckReceived
		return nil, nil

	case CodeConfigureNak, CodeConfigureReject, CodeCodeReject, CodeProtocolReject:
		// This engine implements no iterative re-negotiation loop, so
		// any of these is fatal for the session.
		return nil, protoErr(fmt.Sprintf("peer sent %v (id %d), no renegotiation support", in.Code, in.ID), nil)

	case CodeTerminateRequest:
		ncp.state |= ncpTermReqReceived
		reason := string(in.Data)
		s.quit(KindPeerTermination, reason)
		ack := &ctlPacket{Code: CodeTerminateAck, ID: in.ID}
		ncp.state |= ncpTermAckSent
		s.Phase = PhaseTerminate
		return ack, peerTermErr(reason)

	case CodeTerminateAck:
		ncp.state |= ncpTermAckReceived
		s.quit(KindPeerTermination, string(in.Data))
		s.Phase = PhaseTerminate
		return nil, peerTermErr(s.quitReason)

	case CodeEchoRequest:
		if s.Phase < PhaseOpened {
			return nil, nil
		}
		return &ctlPacket{
			Code:  CodeEchoReply,
			ID:    in.ID,
			Magic: binary.BigEndian.Uint32(s.out.lcpMagic[:]),
		}, nil

	case CodeEchoReply, CodeDiscardRequest:
		return nil, nil

	default:
		return nil, protoErr("unsupported control code", fmt.Errorf("%d", in.Code))
	}
}
