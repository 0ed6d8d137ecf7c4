package ppp

import (
	"encoding/binary"
	"io"
)

const (
	f5Magic  = 0xf5
	f5MagicV = 0x00
	ppAddr   = 0xff
	ppCtrl   = 0x03
)

// errOuterFrame signals a malformed outer encapsulation header. Per the
// ingress rules, this drops the single frame rather than terminating
// the session.
var errOuterFrame = protoErr("bad outer encapsulation", nil)

// wrapOuter prepends the outer encapsulation header for encap ahead of
// an already PPP-framed payload. EncapF5HDLC adds nothing here: HDLC
// framing delimiters are the transport's concern.
func wrapOuter(encap EncapType, payload []byte) []byte {
	if encap != EncapF5 {
		return payload
	}
	hdr := make([]byte, 4, 4+len(payload))
	hdr[0] = f5Magic
	hdr[1] = f5MagicV
	binary.BigEndian.PutUint16(hdr[2:4], uint16(len(payload)))
	return append(hdr, payload...)
}

// unwrapOuter strips and validates the outer encapsulation header,
// returning the PPP frame that follows it.
func unwrapOuter(encap EncapType, b []byte) ([]byte, error) {
	if encap != EncapF5 {
		return b, nil
	}
	if len(b) < 4 {
		return nil, errOuterFrame
	}
	if b[0] != f5Magic || b[1] != f5MagicV {
		return nil, errOuterFrame
	}
	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length != len(b)-4 {
		return nil, errOuterFrame
	}
	return b[4:], nil
}

// buildPPPHeader returns the address/control/protocol header bytes to
// prepend ahead of a PPP frame's payload, honoring ACCOMP and PFCOMP.
// LCP frames always carry the uncompressed form regardless of what was
// negotiated.
func buildPPPHeader(proto Proto, opts LCPOpts) []byte {
	isLCP := proto == ProtoLCP
	var hdr []byte
	if isLCP || !opts.has(OptACCOMP) {
		hdr = append(hdr, ppAddr, ppCtrl)
	}
	if isLCP || !(opts.has(OptPFCOMP) && uint16(proto) < 0x100 && proto&1 == 1) {
		var p [2]byte
		binary.BigEndian.PutUint16(p[:], uint16(proto))
		hdr = append(hdr, p[:]...)
	} else {
		hdr = append(hdr, uint8(proto))
	}
	return hdr
}

// parsePPPHeader parses the address/control/protocol header from the
// front of b, per the ingress rules in the frame codec component. It
// returns the PPP protocol number, the payload that follows the
// header, and the number of header bytes consumed.
//
// An uncompressed LCP header (FF 03 C0 21) is always recognized
// regardless of negotiated options. Otherwise, a missing FF 03 pair
// when ACCOMP is not in effect is a fatal protocol violation: the
// caller must terminate the session.
func parsePPPHeader(b []byte, opts LCPOpts) (proto Proto, payload []byte, hdrLen int, err error) {
	if len(b) >= 4 && b[0] == ppAddr && b[1] == ppCtrl && binary.BigEndian.Uint16(b[2:4]) == uint16(ProtoLCP) {
		return ProtoLCP, b[4:], 4, nil
	}

	idx := 0
	if opts.has(OptACCOMP) {
		if len(b) >= 2 && b[0] == ppAddr && b[1] == ppCtrl {
			idx = 2
		}
	} else {
		if len(b) < 2 || b[0] != ppAddr || b[1] != ppCtrl {
			return 0, nil, 0, protoErr("missing address/control field with ACCOMP not negotiated", nil)
		}
		idx = 2
	}

	if opts.has(OptPFCOMP) {
		if len(b) <= idx {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		first := b[idx]
		if first&1 == 0 {
			if len(b) <= idx+1 {
				return 0, nil, 0, io.ErrUnexpectedEOF
			}
			proto = Proto(uint16(first)<<8 | uint16(b[idx+1]))
			idx += 2
		} else {
			proto = Proto(first)
			idx++
		}
	} else {
		if len(b) < idx+2 {
			return 0, nil, 0, io.ErrUnexpectedEOF
		}
		proto = Proto(binary.BigEndian.Uint16(b[idx : idx+2]))
		idx += 2
	}

	return proto, b[idx:], idx, nil
}
