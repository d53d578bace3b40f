package objsys

import (
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/pixelrick/cptk/internal/bstream"
)

func TestPoolInternDedupes(t *testing.T) {
	p := newLocalPool()
	a := p.intern("foo")
	b := p.intern("bar")
	c := p.intern("foo")
	if a != c {
		t.Errorf("interning the same string twice should return the same index")
	}
	if a == b {
		t.Errorf("distinct strings should get distinct indices")
	}
}

func TestPoolEncodeDecodeRoundTrip(t *testing.T) {
	p := newLocalPool()
	p.intern("inventoryItemData")
	p.intern("Uint32")
	p.intern("")

	var buf writerseeker.WriterSeeker
	w := bstream.NewWriter(&buf)
	w.WriteBytes(p.encode())

	r := bstream.NewReader(buf.BytesReader())
	got, err := decodeLocalPoolFromStream(r, len(p.strings))
	if err != nil {
		t.Fatalf("decodeLocalPoolFromStream: %v", err)
	}
	for i, want := range p.strings {
		gotStr, err := got.at(uint16(i))
		if err != nil {
			t.Fatalf("at(%d): %v", i, err)
		}
		if gotStr != want {
			t.Errorf("at(%d) = %q, want %q", i, gotStr, want)
		}
	}
}

func TestPoolAtOutOfRange(t *testing.T) {
	p := newLocalPool()
	p.intern("only")
	if _, err := p.at(5); err == nil {
		t.Errorf("expected an error for an out-of-range index")
	}
}
