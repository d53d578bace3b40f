// Package csavlz4 frames and unframes the 'XLZ4' chunk payloads used by
// CSAV save containers over the pierrec/lz4 block codec.
package csavlz4

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Tag is the 4-byte marker prefixing an LZ4-compressed CSAV chunk.
var Tag = [4]byte{'X', 'L', 'Z', '4'}

const headerSize = 4 + 4 // tag + u32 decompressed size

// IsFramed reports whether b starts with the XLZ4 tag. The PS4 save
// variant omits framing on its first chunk and stores the payload raw.
func IsFramed(b []byte) bool {
	return len(b) >= 4 && b[0] == Tag[0] && b[1] == Tag[1] && b[2] == Tag[2] && b[3] == Tag[3]
}

// DecompressFrame decodes an 'XLZ4'-tagged, length-prefixed LZ4 block into
// a freshly allocated buffer sized by the embedded decompressed size.
func DecompressFrame(frame []byte) ([]byte, error) {
	if !IsFramed(frame) {
		return nil, fmt.Errorf("csavlz4: missing XLZ4 tag")
	}
	if len(frame) < headerSize {
		return nil, fmt.Errorf("csavlz4: frame too short: %d bytes", len(frame))
	}
	decLen := binary.LittleEndian.Uint32(frame[4:8])
	dst := make([]byte, decLen)
	n, err := lz4.UncompressBlock(frame[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("csavlz4: uncompress: %w", err)
	}
	return dst[:n], nil
}

// CompressFrame compresses src into an 'XLZ4'-tagged frame. It refuses
// trivial gains: if the compressed payload would not be smaller than src,
// the caller should fall back to storing the chunk raw (mirrors the
// 'refuses trivial gains' behavior of the Oodle glue in this package's
// sibling, internal/oodle).
func CompressFrame(src []byte) ([]byte, error) {
	dst := make([]byte, headerSize+lz4.CompressBlockBound(len(src)))
	copy(dst[0:4], Tag[:])
	binary.LittleEndian.PutUint32(dst[4:8], uint32(len(src)))

	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("csavlz4: compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		// incompressible input: the compressed block would not be smaller
		// than src.
		return nil, fmt.Errorf("csavlz4: input incompressible")
	}
	return dst[:headerSize+n], nil
}
