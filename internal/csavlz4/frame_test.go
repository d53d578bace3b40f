package csavlz4

import (
	"bytes"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	src := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 64))
	frame, err := CompressFrame(src)
	if err != nil {
		t.Fatalf("CompressFrame: %v", err)
	}
	if !IsFramed(frame) {
		t.Fatalf("CompressFrame output missing XLZ4 tag")
	}
	got, err := DecompressFrame(frame)
	if err != nil {
		t.Fatalf("DecompressFrame: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(src))
	}
}

func TestIsFramedRejectsUnframed(t *testing.T) {
	if IsFramed([]byte{0, 0, 0, 0}) {
		t.Fatalf("IsFramed should reject a non-XLZ4 buffer")
	}
	if IsFramed([]byte("XL")) {
		t.Fatalf("IsFramed should reject a too-short buffer")
	}
}

func TestDecompressFrameRejectsMissingTag(t *testing.T) {
	if _, err := DecompressFrame([]byte("nope-not-framed-data")); err == nil {
		t.Fatalf("expected error for unframed input")
	}
}
