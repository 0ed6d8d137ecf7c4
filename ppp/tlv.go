package ppp

import "encoding/binary"

// Option is a single tag/length/value option as carried inside an LCP,
// IPCP, or IP6CP Configure packet. Length is implicit: it is always
// len(Value)+2.
type Option struct {
	Tag   uint8
	Value []byte
}

// AppendOption serializes tag/value onto buf as a TLV option.
func AppendOption(buf []byte, tag uint8, value []byte) []byte {
	buf = append(buf, tag, uint8(len(value)+2))
	return append(buf, value...)
}

// AppendUint16Option appends a 2-byte big-endian value option.
func AppendUint16Option(buf []byte, tag uint8, v uint16) []byte {
	var val [2]byte
	binary.BigEndian.PutUint16(val[:], v)
	return AppendOption(buf, tag, val[:])
}

// AppendUint32Option appends a 4-byte big-endian value option.
func AppendUint32Option(buf []byte, tag uint8, v uint32) []byte {
	var val [4]byte
	binary.BigEndian.PutUint32(val[:], v)
	return AppendOption(buf, tag, val[:])
}

// AppendFlagOption appends a zero-length-value option, used for boolean
// flags such as PFCOMP and ACCOMP.
func AppendFlagOption(buf []byte, tag uint8) []byte {
	return AppendOption(buf, tag, nil)
}

// ParseOptions walks b as a sequence of TLV options. It stops as soon
// as it can no longer safely read a full option header and body,
// returning whatever trailing bytes remain; the caller logs those as
// garbage rather than treating them as a protocol error.
func ParseOptions(b []byte) (opts []Option, trailing []byte) {
	cursor := 0
	for cursor+1 < len(b) {
		tag := b[cursor]
		length := int(b[cursor+1])
		if length < 2 || cursor+length > len(b) {
			break
		}
		value := append([]byte(nil), b[cursor+2:cursor+length]...)
		opts = append(opts, Option{Tag: tag, Value: value})
		cursor += length
	}
	return opts, b[cursor:]
}

// Bytes re-serializes the option list, reproducing the original wire
// encoding for any options that were parsed from one.
func Bytes(opts []Option) []byte {
	var buf []byte
	for _, o := range opts {
		buf = AppendOption(buf, o.Tag, o.Value)
	}
	return buf
}
