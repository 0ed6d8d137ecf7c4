package ppp

import "time"

// Proto is a PPP protocol field value, carried either compressed into a
// single byte or in full as two bytes depending on negotiated PFCOMP.
type Proto uint16

// PPP protocol numbers relevant to this engine. Authentication protocols
// (PAP, CHAP, EAP) are deliberately absent: the transport is assumed to
// have already authenticated the peer.
const (
	ProtoIPv4  Proto = 0x0021
	ProtoIPv6  Proto = 0x0057
	ProtoLCP   Proto = 0xc021
	ProtoIPCP  Proto = 0x8021
	ProtoIP6CP Proto = 0x8057
)

// Code is an LCP/IPCP/IP6CP control packet code, shared by all three NCPs
// as per RFC1661.
type Code uint8

const (
	CodeConfigureRequest Code = 1
	CodeConfigureAck     Code = 2
	CodeConfigureNak     Code = 3
	CodeConfigureReject  Code = 4
	CodeTerminateRequest Code = 5
	CodeTerminateAck     Code = 6
	CodeCodeReject       Code = 7
	CodeProtocolReject   Code = 8
	CodeEchoRequest      Code = 9
	CodeEchoReply        Code = 10
	CodeDiscardRequest   Code = 11
)

// EncapType selects the outer encapsulation wrapped around each PPP
// frame before it is written to the transport.
type EncapType int

const (
	// EncapF5 prepends a 4-byte 0xF5 0x00 <len_be16> header to every
	// PPP frame.
	EncapF5 EncapType = iota
	// EncapF5HDLC carries no outer header; this package HDLC
	// byte-stuffs each frame, and the 0x7E frame delimiters are left
	// to the transport layer.
	EncapF5HDLC
)

func (e EncapType) String() string {
	switch e {
	case EncapF5:
		return "F5"
	case EncapF5HDLC:
		return "F5_HDLC"
	}
	return "unknown"
}

// HDLC reports whether this encapsulation requires HDLC byte stuffing
// of PPP frame contents.
func (e EncapType) HDLC() bool {
	return e == EncapF5HDLC
}

// HeaderLen is the number of outer header bytes this encapsulation
// prepends, ahead of the PPP frame itself.
func (e EncapType) HeaderLen() int {
	if e == EncapF5 {
		return 4
	}
	return 0
}

// LCPOpts is a bitset of negotiated LCP-layer options. VJCOMP is
// grouped here alongside the link-layer compressions because the
// session tracks it as part of the same negotiated-option bitset,
// even though the option itself is carried in the IPCP Configure
// packet.
type LCPOpts uint8

const (
	// OptACCOMP is Address-and-Control-Field-Compression: the fixed
	// 0xFF 0x03 header is omitted on non-LCP frames.
	OptACCOMP LCPOpts = 1 << iota
	// OptPFCOMP is Protocol-Field-Compression: odd protocol numbers
	// below 0x100 are carried in a single byte.
	OptPFCOMP
	// OptVJCOMP indicates the peer's IPCP Configure-Request carried
	// IP-Compression-Protocol with the Van Jacobson TCP/IP header
	// compression value. The session records the request but never
	// performs VJ decompression itself (spec Non-goal).
	OptVJCOMP
)

func (o LCPOpts) has(f LCPOpts) bool { return o&f != 0 }

// retransmitInterval is the minimum spacing between successive
// Configure-Request retransmissions for a given NCP.
const retransmitInterval = 3 * time.Second

// maxConfReqs bounds how many unanswered Configure-Requests an NCP will
// send before the session gives up on negotiation converging and
// terminates. The reference implementation applies the same bound.
const maxConfReqs = 10

// defaultMTU is used for the outgoing LCP Configure-Request MTU option
// when the host has not supplied one.
const defaultMTU = 1300

// minMTU is the floor applied to any MTU learned from the peer.
const minMTU = 576

// maxPhaseSteps bounds how many table entries the session's phase
// machine will walk in a single Mainloop call, guarding against an
// unexpected table cycle turning into an infinite loop.
const maxPhaseSteps = 8
