package objsys

import (
	"encoding/binary"
	"fmt"

	"github.com/pixelrick/cptk/internal/bstream"
)

// localPool is a system-local string table: fixed-size 4-byte descriptors
// (offset packed into 24 bits, length into the remaining 8) over a single
// bytes blob. Unlike internal/strpool's hashed append-only pool, a
// system's pool is small, entirely positional, and rebuilt fresh on every
// write.
type localPool struct {
	strings []string
}

func newLocalPool() *localPool { return &localPool{} }

// intern returns the index of s, appending it if not already present.
func (p *localPool) intern(s string) uint16 {
	for i, existing := range p.strings {
		if existing == s {
			return uint16(i)
		}
	}
	p.strings = append(p.strings, s)
	return uint16(len(p.strings) - 1)
}

func (p *localPool) at(idx uint16) (string, error) {
	if int(idx) >= len(p.strings) {
		return "", fmt.Errorf("objsys: string pool index %d out of range [0,%d)", idx, len(p.strings))
	}
	return p.strings[idx], nil
}

// descriptor is the fixed-size on-disk record: a 24-bit byte offset into
// the pool's byte blob and an 8-bit length, packed into a little-endian
// u32.
type descriptor uint32

func packDescriptor(offset uint32, length uint8) descriptor {
	return descriptor((offset & 0x00FFFFFF) | uint32(length)<<24)
}

func (d descriptor) offset() uint32 { return uint32(d) & 0x00FFFFFF }
func (d descriptor) length() uint8  { return uint8(uint32(d) >> 24) }

// encode serializes the pool as: descriptor[count] (4 bytes each), then
// the concatenated string bytes the descriptors point into.
func (p *localPool) encode() []byte {
	var blob []byte
	descs := make([]descriptor, len(p.strings))
	for i, s := range p.strings {
		if len(s) > 0xFF {
			// Strings longer than 255 bytes cannot be represented by the
			// 8-bit length field; the format does not expect field/class
			// names to exceed this, so truncation here would silently
			// corrupt data. Longer names are a schema error the caller
			// should have caught before reaching the pool.
			panic(fmt.Sprintf("objsys: string pool entry %q exceeds 255 bytes", s))
		}
		descs[i] = packDescriptor(uint32(len(blob)), uint8(len(s)))
		blob = append(blob, s...)
	}
	out := make([]byte, 4*len(descs)+len(blob))
	for i, d := range descs {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(d))
	}
	copy(out[4*len(descs):], blob)
	return out
}

// decodeLocalPoolFromStream parses a pool of count descriptors followed by
// its blob bytes, directly off a bstream.Stream.
func decodeLocalPoolFromStream(s *bstream.Stream, count int) (*localPool, error) {
	descs := make([]descriptor, count)
	for i := range descs {
		descs[i] = descriptor(s.U32(0))
	}
	if s.HasError() {
		return nil, s.Err()
	}
	var maxEnd uint32
	for _, d := range descs {
		if end := d.offset() + uint32(d.length()); end > maxEnd {
			maxEnd = end
		}
	}
	blob := make([]byte, maxEnd)
	s.ReadBytes(blob)
	if s.HasError() {
		return nil, s.Err()
	}
	p := &localPool{strings: make([]string, count)}
	for i, d := range descs {
		p.strings[i] = string(blob[d.offset() : d.offset()+uint32(d.length())])
	}
	return p, nil
}
