package ppp

import "io"

const (
	hdlcEscapeByte = 0x7d
	hdlcFlagByte   = 0x7e
	hdlcEscapeXor  = 0x20
)

func needsEscape(c byte, asyncmap uint32) bool {
	if c == hdlcEscapeByte || c == hdlcFlagByte {
		return true
	}
	return c < 0x20 && asyncmap&(1<<uint(c)) != 0
}

// hdlcEscape byte-stuffs b per asyncmap: a byte is escaped iff it is
// below 0x20 and its bit is set in asyncmap, or it is the escape byte
// itself, or the HDLC frame delimiter. No frame delimiters are added.
func hdlcEscape(b []byte, asyncmap uint32) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if needsEscape(c, asyncmap) {
			out = append(out, hdlcEscapeByte, c^hdlcEscapeXor)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// hdlcUnescape reverses hdlcEscape. It does not need the asyncmap: the
// escape byte is self-describing in the stuffed stream.
func hdlcUnescape(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == hdlcEscapeByte {
			i++
			if i >= len(b) {
				return nil, io.ErrUnexpectedEOF
			}
			out = append(out, b[i]^hdlcEscapeXor)
			continue
		}
		out = append(out, b[i])
	}
	return out, nil
}
