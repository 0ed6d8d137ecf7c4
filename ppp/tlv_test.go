package ppp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionRoundTrip(t *testing.T) {
	var buf []byte
	buf = AppendUint16Option(buf, 1, 1500)
	buf = AppendUint32Option(buf, 2, 0xffffffff)
	buf = AppendUint32Option(buf, 5, 0xdeadbeef)
	buf = AppendFlagOption(buf, 7)
	buf = AppendFlagOption(buf, 8)

	opts, trailing := ParseOptions(buf)
	if len(trailing) != 0 {
		t.Fatalf("unexpected trailing bytes: %x", trailing)
	}

	want := []Option{
		{Tag: 1, Value: []byte{0x05, 0xdc}},
		{Tag: 2, Value: []byte{0xff, 0xff, 0xff, 0xff}},
		{Tag: 5, Value: []byte{0xde, 0xad, 0xbe, 0xef}},
		{Tag: 7, Value: nil},
		{Tag: 8, Value: nil},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Fatalf("parsed options mismatch (-want +got):\n%s", diff)
	}

	if got := Bytes(opts); !bytesEqual(got, buf) {
		t.Fatalf("re-serialized options mismatch: got %x want %x", got, buf)
	}
}

func TestParseOptionsTrailingGarbage(t *testing.T) {
	buf := AppendFlagOption(nil, 7)
	buf = append(buf, 0xff) // one stray byte, not a full option header

	opts, trailing := ParseOptions(buf)
	if len(opts) != 1 {
		t.Fatalf("expected one option, got %d", len(opts))
	}
	if len(trailing) != 1 || trailing[0] != 0xff {
		t.Fatalf("expected trailing garbage [0xff], got %x", trailing)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
