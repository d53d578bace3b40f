package bstream

import "fmt"

// PackedInt reads or writes v as a packed varint: 6 data bits in byte 0
// (bit 7 = sign, bit 6 = continuation), then up to three 7-bit
// continuation bytes (bit 7 = continuation) and a final byte carrying 8
// data bits, for a maximum of 5 bytes; magnitudes up to 2^34 round-trip.
// Ported byte-for-byte from the original read_packed_int/write_packed_int.
func (s *Stream) PackedInt(v int64) int64 {
	if s.HasError() {
		return 0
	}
	if s.IsReader() {
		return s.readPackedInt()
	}
	s.writePackedInt(v)
	return v
}

func (s *Stream) readPackedInt() int64 {
	var a [1]byte
	s.ReadBytes(a[:])
	if s.HasError() {
		return 0
	}
	b0 := a[0]
	value := int64(b0 & 0x3F)
	sign := b0&0x80 != 0
	if b0&0x40 != 0 {
		s.ReadBytes(a[:])
		if s.HasError() {
			return 0
		}
		b1 := a[0]
		value |= int64(b1&0x7F) << 6
		if int8(b1) < 0 {
			s.ReadBytes(a[:])
			if s.HasError() {
				return 0
			}
			b2 := a[0]
			value |= int64(b2&0x7F) << 13
			if int8(b2) < 0 {
				s.ReadBytes(a[:])
				if s.HasError() {
					return 0
				}
				b3 := a[0]
				value |= int64(b3&0x7F) << 20
				if int8(b3) < 0 {
					s.ReadBytes(a[:])
					if s.HasError() {
						return 0
					}
					b4 := a[0]
					value |= int64(b4&0xFF) << 27
				}
			}
		}
	}
	if sign {
		return -value
	}
	return value
}

func (s *Stream) writePackedInt(value int64) {
	var packed [5]byte
	cnt := 1
	tmp := uint64(value)
	neg := value < 0
	if neg {
		tmp = uint64(-value)
	}
	if neg {
		packed[0] |= 0x80
	}
	packed[0] |= byte(tmp & 0x3F)
	tmp >>= 6
	if tmp != 0 {
		packed[0] |= 0x40
		cnt++
		packed[1] = byte(tmp & 0x7F)
		tmp >>= 7
		if tmp != 0 {
			packed[1] |= 0x80
			cnt++
			packed[2] = byte(tmp & 0x7F)
			tmp >>= 7
			if tmp != 0 {
				packed[2] |= 0x80
				cnt++
				packed[3] = byte(tmp & 0x7F)
				tmp >>= 7
				if tmp != 0 {
					packed[3] |= 0x80
					cnt++
					packed[4] = byte(tmp & 0xFF)
				}
			}
		}
	}
	s.WriteBytes(packed[:cnt])
}

// String reads or writes a length-prefixed string whose packed-int length
// carries the encoding in its sign: negative means a UTF-8 byte string of
// length -n; non-negative means a UTF-16 string of n code units (decoded
// to UTF-8 on read, encoded from UTF-8 on write). v is only consulted in
// writer mode.
func (s *Stream) String(v string) string {
	if s.HasError() {
		return ""
	}
	if s.IsReader() {
		return s.readString()
	}
	s.writeString(v)
	return v
}

func (s *Stream) readString() string {
	n := s.readPackedInt()
	if s.HasError() {
		return ""
	}
	if n < 0 {
		buf := make([]byte, -n)
		s.ReadBytes(buf)
		return string(buf)
	}
	u16 := make([]uint16, n)
	for i := range u16 {
		u16[i] = s.U16(0)
		if s.HasError() {
			return ""
		}
	}
	return utf16ToString(u16)
}

func (s *Stream) writeString(v string) {
	if len(v) > (1<<34)-1 {
		s.SetError(fmt.Errorf("bstream: string too long to pack: %d bytes", len(v)))
		return
	}
	s.writePackedInt(-int64(len(v)))
	if len(v) > 0 {
		s.WriteBytes([]byte(v))
	}
}
