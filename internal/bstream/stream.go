// Package bstream implements the polymorphic binary stream abstraction used
// by every on-disk format in this module: seek/tell, packed varints,
// length-prefixed strings, and a latched error (first error wins, every
// later operation on the same stream becomes a no-op preserving it).
package bstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Flags are the stream's manipulator bits for embedded names
// (FlagCNameAsHash selects the raw 64-bit hash form). The stream only
// stores them; no encoder in this module consults them, and CName
// properties are always written as the raw 64-bit hash.
type Flags uint32

const (
	FlagNone       Flags = 0
	FlagCNameAsHash Flags = 1 << 0
	FlagCNameAsStr  Flags = 1 << 1
)

// Stream wraps an io.ReadSeeker or io.WriteSeeker with the shared framing
// helpers (varints, length-prefixed strings) and an error latch. Exactly
// one of r/w is non-nil, selecting reader or writer mode.
type Stream struct {
	r io.ReadSeeker
	w io.WriteSeeker

	err   error
	flags Flags
}

// NewReader wraps r for reading.
func NewReader(r io.ReadSeeker) *Stream { return &Stream{r: r} }

// NewWriter wraps w for writing.
func NewWriter(w io.WriteSeeker) *Stream { return &Stream{w: w} }

// IsReader reports whether the stream was opened for reading.
func (s *Stream) IsReader() bool { return s.r != nil }

// HasError reports whether the latch has tripped.
func (s *Stream) HasError() bool { return s.err != nil }

// Err returns the latched error, or nil.
func (s *Stream) Err() error { return s.err }

// SetError latches err if no error has been set yet (first error wins).
func (s *Stream) SetError(err error) {
	if s.err == nil {
		s.err = err
	}
}

// ClearError resets the latch. Used only at section boundaries by callers
// that have already reported the prior error.
func (s *Stream) ClearError() { s.err = nil }

// Flags returns the current manipulator flags.
func (s *Stream) Flags() Flags { return s.flags }

// SetFlags replaces the manipulator flags, applying the same "cnamehash
// bit wins over cnamestr, cnamestr is the implicit default" merge rule as
// the original streambase::operator<<(flags_type).
func (s *Stream) SetFlags(f Flags) {
	cur := s.flags &^ (FlagCNameAsHash | FlagCNameAsStr)
	if f&FlagCNameAsHash != 0 {
		cur |= FlagCNameAsHash
	}
	cur |= f &^ (FlagCNameAsHash | FlagCNameAsStr)
	s.flags = cur
}

func (s *Stream) seeker() io.Seeker {
	if s.r != nil {
		return s.r
	}
	return s.w
}

// Tell returns the current stream position.
func (s *Stream) Tell() int64 {
	if s.HasError() {
		return -1
	}
	pos, err := s.seeker().Seek(0, io.SeekCurrent)
	if err != nil {
		s.SetError(err)
		return -1
	}
	return pos
}

// Seek moves the stream to an absolute position.
func (s *Stream) Seek(pos int64) {
	s.SeekRel(pos, io.SeekStart)
}

// SeekRel moves the stream relative to whence (io.SeekStart/Current/End).
func (s *Stream) SeekRel(off int64, whence int) {
	if s.HasError() {
		return
	}
	if _, err := s.seeker().Seek(off, whence); err != nil {
		s.SetError(fmt.Errorf("bstream: seek: %w", err))
	}
}

// ReadBytes reads len(dst) bytes, latching an error on a short read.
func (s *Stream) ReadBytes(dst []byte) {
	if s.HasError() {
		return
	}
	if _, err := io.ReadFull(s.r, dst); err != nil {
		s.SetError(fmt.Errorf("bstream: read: %w", err))
	}
}

// WriteBytes writes src verbatim.
func (s *Stream) WriteBytes(src []byte) {
	if s.HasError() {
		return
	}
	if _, err := s.w.Write(src); err != nil {
		s.SetError(fmt.Errorf("bstream: write: %w", err))
	}
}

// U8/U16/U32/U64 read or write a little-endian unsigned scalar, depending
// on stream direction, returning the value (reads) or echoing v (writes).

func (s *Stream) U8(v uint8) uint8 {
	var buf [1]byte
	if s.IsReader() {
		s.ReadBytes(buf[:])
		return buf[0]
	}
	buf[0] = v
	s.WriteBytes(buf[:])
	return v
}

func (s *Stream) U16(v uint16) uint16 {
	var buf [2]byte
	if s.IsReader() {
		s.ReadBytes(buf[:])
		return binary.LittleEndian.Uint16(buf[:])
	}
	binary.LittleEndian.PutUint16(buf[:], v)
	s.WriteBytes(buf[:])
	return v
}

func (s *Stream) U32(v uint32) uint32 {
	var buf [4]byte
	if s.IsReader() {
		s.ReadBytes(buf[:])
		return binary.LittleEndian.Uint32(buf[:])
	}
	binary.LittleEndian.PutUint32(buf[:], v)
	s.WriteBytes(buf[:])
	return v
}

func (s *Stream) U64(v uint64) uint64 {
	var buf [8]byte
	if s.IsReader() {
		s.ReadBytes(buf[:])
		return binary.LittleEndian.Uint64(buf[:])
	}
	binary.LittleEndian.PutUint64(buf[:], v)
	s.WriteBytes(buf[:])
	return v
}

func (s *Stream) I32(v int32) int32 { return int32(s.U32(uint32(v))) }
func (s *Stream) I64(v int64) int64 { return int64(s.U64(uint64(v))) }

// F32/F64 serialize IEEE-754 floats.
func (s *Stream) F32(v float32) float32 {
	return float32FromBits(s.U32(float32Bits(v)))
}

func (s *Stream) F64(v float64) float64 {
	return float64FromBits(s.U64(float64Bits(v)))
}

// Bool serializes a boolean as a single 0/1 byte.
func (s *Stream) Bool(v bool) bool {
	var b uint8
	if v {
		b = 1
	}
	b = s.U8(b)
	return b != 0
}
