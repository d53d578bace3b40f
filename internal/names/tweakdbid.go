package names

import (
	"fmt"

	"github.com/pixelrick/cptk/internal/hashutil"
)

// TweakDBID is a 64-bit identifier: CRC-32 of the original name in the low
// 32 bits, the original name's length in the next byte, a 3-byte
// child/offset field, all packed little-endian into 8 bytes (5 bytes
// significant on the wire — bits 40-63 are zeroed on serialize).
type TweakDBID struct {
	CRC  uint32
	SLen uint8
	// ChildOffset is the 3-byte offset/child field (tdboff0..2 in the
	// original layout), opaque to hashing.
	ChildOffset [3]byte
}

// NewTweakDBID hashes name with CRC-32 and records its length. Panics if
// name is longer than 255 bytes (mirrors the original's length_error).
func NewTweakDBID(name string, register ...bool) TweakDBID {
	if len(name) > 0xFF {
		panic("names: TweakDBID name too long")
	}
	id := TweakDBID{CRC: hashutil.CRC32([]byte(name), 0), SLen: uint8(len(name))}
	doRegister := true
	if len(register) > 0 {
		doRegister = register[0]
	}
	if doRegister {
		RegisterTweakDBID(name, id)
	}
	return id
}

// AsU64 packs the identifier into its on-wire 64-bit (40 significant bits)
// form: crc(32) | slen(8) | childOffset(24), little-endian.
func (t TweakDBID) AsU64() uint64 {
	u := uint64(t.CRC)
	u |= uint64(t.SLen) << 32
	u |= uint64(t.ChildOffset[0]) << 40
	u |= uint64(t.ChildOffset[1]) << 48
	u |= uint64(t.ChildOffset[2]) << 56
	return u & ((1 << 40) - 1) // only the low 40 bits are significant on the wire
}

// TweakDBIDFromU64 unpacks the on-wire form.
func TweakDBIDFromU64(u uint64) TweakDBID {
	var t TweakDBID
	t.CRC = uint32(u)
	t.SLen = uint8(u >> 32)
	t.ChildOffset[0] = byte(u >> 40)
	t.ChildOffset[1] = byte(u >> 48)
	t.ChildOffset[2] = byte(u >> 56)
	return t
}

// Concat combines t with rhs the way the original's operator+= does:
// length-aware CRC combination of the two original names, summed lengths.
// Panics if the combined length would overflow a byte.
func (t TweakDBID) Concat(rhs TweakDBID) TweakDBID {
	if int(t.SLen)+int(rhs.SLen) > 0xFF {
		panic("names: TweakDBID concat length overflow")
	}
	return TweakDBID{
		CRC:  hashutil.CRC32Combine(t.CRC, rhs.CRC, int(rhs.SLen)),
		SLen: t.SLen + rhs.SLen,
	}
}

func (t TweakDBID) Equal(o TweakDBID) bool {
	return t.CRC == o.CRC && t.SLen == o.SLen && t.ChildOffset == o.ChildOffset
}

func (t TweakDBID) Less(o TweakDBID) bool { return t.AsU64() < o.AsU64() }

// Name resolves t to its registered name, or a placeholder.
func (t TweakDBID) Name() string {
	if s, ok := LookupTweakDBID(t); ok {
		return s
	}
	return fmt.Sprintf("<tdbid:%08X:%02X>", t.CRC, t.SLen)
}

var tweakDBIDResolver = newHashResolver()

// RegisterTweakDBID adds name to the process-wide TweakDBID resolver, keyed
// by the packed on-wire form.
func RegisterTweakDBID(name string, id TweakDBID) {
	tweakDBIDResolver.register(name, id.AsU64())
	NewGName("tweakdbid", name)
}

// LookupTweakDBID reverse-resolves id to its registered name.
func LookupTweakDBID(id TweakDBID) (string, bool) {
	return tweakDBIDResolver.lookup(id.AsU64())
}

// SeedTweakDBIDs bulk-registers names loaded from db/TweakDBIDs.json.
func SeedTweakDBIDs(names []string) {
	for _, n := range names {
		RegisterTweakDBID(n, NewTweakDBID(n, false))
	}
}
