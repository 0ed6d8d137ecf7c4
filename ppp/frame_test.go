package ppp

import (
	"bytes"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hexDecode(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestOuterEncapF5RoundTrip(t *testing.T) {
	payload := []byte{0xff, 0x03, 0xc0, 0x21, 0x01, 0x01, 0x00, 0x0a}
	wire := wrapOuter(EncapF5, payload)

	got, err := unwrapOuter(EncapF5, wire)
	if err != nil {
		t.Fatalf("unwrapOuter: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %x want %x", got, payload)
	}
}

func TestOuterEncapF5BadMagic(t *testing.T) {
	wire := []byte{0xf4, 0x00, 0x00, 0x02, 0x01, 0x02}
	if _, err := unwrapOuter(EncapF5, wire); err == nil {
		t.Fatal("expected error for bad outer magic")
	}
}

func TestOuterEncapF5LengthMismatch(t *testing.T) {
	wire := []byte{0xf5, 0x00, 0x00, 0x05, 0x01, 0x02}
	if _, err := unwrapOuter(EncapF5, wire); err == nil {
		t.Fatal("expected error for outer length mismatch")
	}
}

func TestOuterEncapF5HDLCIsPassthrough(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	if got := wrapOuter(EncapF5HDLC, payload); !bytes.Equal(got, payload) {
		t.Fatalf("got %x want %x", got, payload)
	}
	got, err := unwrapOuter(EncapF5HDLC, payload)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("got %x, %v want %x, nil", got, err, payload)
	}
}

// S1 from the seed vectors: an uncompressed LCP Configure-Request is
// always recognized by its literal FF 03 C0 21 header.
func TestParsePPPHeaderS1(t *testing.T) {
	wire := mustHex(t, "ff03c02101010004")
	proto, payload, hdrLen, err := parsePPPHeader(wire, OptACCOMP|OptPFCOMP)
	if err != nil {
		t.Fatalf("parsePPPHeader: %v", err)
	}
	if proto != ProtoLCP || hdrLen != 4 {
		t.Fatalf("got proto=%x hdrLen=%d, want LCP/4", proto, hdrLen)
	}
	if !bytes.Equal(payload, mustHex(t, "01010004")) {
		t.Fatalf("unexpected payload %x", payload)
	}
}

// S2 from the seed vectors: ACCOMP+PFCOMP in effect, proto=0x21 (IPv4)
// carried as a single compressed byte with no address/control pair.
func TestParsePPPHeaderS2(t *testing.T) {
	wire := mustHex(t, "2145")
	proto, payload, hdrLen, err := parsePPPHeader(wire, OptACCOMP|OptPFCOMP)
	if err != nil {
		t.Fatalf("parsePPPHeader: %v", err)
	}
	if proto != ProtoIPv4 || hdrLen != 1 {
		t.Fatalf("got proto=%x hdrLen=%d, want IPv4/1", proto, hdrLen)
	}
	if !bytes.Equal(payload, []byte{0x45}) {
		t.Fatalf("unexpected payload %x", payload)
	}
}

// S3 from the seed vectors: ACCOMP not negotiated, the frame is missing
// the FF 03 pair, which is fatal.
func TestParsePPPHeaderS3(t *testing.T) {
	wire := mustHex(t, "0021 45")
	_, _, _, err := parsePPPHeader(wire, 0)
	if err == nil {
		t.Fatal("expected fatal error for missing FF 03 without ACCOMP")
	}
	perr, ok := err.(*Error)
	if !ok || !perr.Fatal() {
		t.Fatalf("expected fatal *Error, got %#v", err)
	}
}

func TestBuildPPPHeaderLCPAlwaysUncompressed(t *testing.T) {
	hdr := buildPPPHeader(ProtoLCP, OptACCOMP|OptPFCOMP)
	want := mustHex(t, "ff03c021")
	if !bytes.Equal(hdr, want) {
		t.Fatalf("got %x want %x", hdr, want)
	}
}

func TestBuildPPPHeaderCompressed(t *testing.T) {
	hdr := buildPPPHeader(ProtoIPv4, OptACCOMP|OptPFCOMP)
	want := []byte{0x21}
	if !bytes.Equal(hdr, want) {
		t.Fatalf("got %x want %x", hdr, want)
	}
}

func TestBuildPPPHeaderUncompressedWhenOptionsUnset(t *testing.T) {
	hdr := buildPPPHeader(ProtoIPv4, 0)
	want := mustHex(t, "ff030021")
	if !bytes.Equal(hdr, want) {
		t.Fatalf("got %x want %x", hdr, want)
	}
}
