package ppp

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestHDLCRoundTrip(t *testing.T) {
	asyncmaps := []uint32{0, 0xffffffff, 0x000a0000, 1 << 0x11}
	r := rand.New(rand.NewSource(1))

	for _, asyncmap := range asyncmaps {
		for trial := 0; trial < 20; trial++ {
			n := r.Intn(64)
			b := make([]byte, n)
			r.Read(b)

			escaped := hdlcEscape(b, asyncmap)
			got, err := hdlcUnescape(escaped)
			if err != nil {
				t.Fatalf("asyncmap %#x: unescape error: %v", asyncmap, err)
			}
			if !bytes.Equal(got, b) {
				t.Fatalf("asyncmap %#x: round trip mismatch: got %x want %x", asyncmap, got, b)
			}
		}
	}
}

func TestHDLCEscapeAlwaysEscapesControlBytes(t *testing.T) {
	b := []byte{0x7d, 0x7e, 0x01, 0x20}
	got := hdlcEscape(b, 0xffffffff)
	want := []byte{0x7d, 0x5d, 0x7d, 0x5e, 0x7d, 0x21, 0x20}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestHDLCEscapeRespectsAsyncmap(t *testing.T) {
	b := []byte{0x01, 0x02}
	// Only bit 2 (for byte 0x02) is in the map, so only that byte is stuffed.
	got := hdlcEscape(b, 1<<0x02)
	want := []byte{0x01, 0x7d, 0x22}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestHDLCUnescapeTruncated(t *testing.T) {
	if _, err := hdlcUnescape([]byte{0x01, 0x7d}); err == nil {
		t.Fatal("expected error for truncated escape sequence")
	}
}
