package oodle

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := []byte(strings.Repeat("segment payload data, highly compressible. ", 128))
	frame, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(frame[0:4], Magic[:]) {
		t.Fatalf("frame missing KRAK magic")
	}
	got, err := Decompress(frame, len(src))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(src))
	}
}

func TestDecompressRejectsBadMagic(t *testing.T) {
	bad := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if _, err := Decompress(bad, 0); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestDecompressDetectsSizeMismatch(t *testing.T) {
	src := []byte(strings.Repeat("x", 256))
	frame, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(frame, len(src)+1); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}

func TestCompressRefusesTrivialGains(t *testing.T) {
	// Tiny, high-entropy-looking input: compressed form (header + zstd
	// frame overhead) will not beat the raw size.
	src := []byte{0x01, 0x02, 0x03}
	if _, err := Compress(src); err != ErrIncompressible {
		t.Fatalf("Compress(tiny) error = %v, want ErrIncompressible", err)
	}
}

func TestDecompressInto(t *testing.T) {
	src := []byte(strings.Repeat("reused scratch buffer contents. ", 64))
	frame, err := Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	scratch := make([]byte, 0, 256*1024)
	n, out, err := DecompressInto(frame, scratch)
	if err != nil {
		t.Fatalf("DecompressInto: %v", err)
	}
	if !bytes.Equal(out[:n], src) {
		t.Fatalf("DecompressInto mismatch: got %d bytes, want %d", n, len(src))
	}
}
