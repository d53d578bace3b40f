// Package oodle provides the segment-compression glue that RADR archives
// use for their Kraken-compressed segments. Oodle itself is closed-source
// middleware; this package exposes the same {magic, decompressed_size}
// header shape the archive format expects, backed concretely by
// klauspost/compress/zstd (see DESIGN.md for the substitution rationale).
package oodle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Magic is the 4-byte tag stamped on a Codec-compressed segment.
var Magic = [4]byte{'K', 'R', 'A', 'K'}

const headerSize = 4 + 4 // magic + u32 decompressed size

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error

	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
)

func getEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})
	return encoder, encoderErr
}

func getDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil)
	})
	return decoder, decoderErr
}

// Bound returns a worst-case bound on the compressed size of a payload of
// length n, including the header. zstd has no fixed expansion bound the
// way LZ4 block codecs do, so this over-allocates generously rather than
// claiming exactness.
func Bound(n int) int {
	return headerSize + n + n/2 + 64
}

// Decompress decodes a {magic='KRAK', decompressed_size} + payload segment.
// decompressedSize is the caller's expectation from the segment descriptor
// and is used as a pre-allocation hint and a sanity check against the
// embedded size.
func Decompress(src []byte, decompressedSize int) ([]byte, error) {
	if len(src) < headerSize {
		return nil, fmt.Errorf("oodle: segment too short: %d bytes", len(src))
	}
	if !bytes.Equal(src[0:4], Magic[:]) {
		return nil, fmt.Errorf("oodle: bad magic %q", src[0:4])
	}
	embedded := binary.LittleEndian.Uint32(src[4:8])
	if decompressedSize >= 0 && int(embedded) != decompressedSize {
		return nil, fmt.Errorf("oodle: decompressed size mismatch: embedded=%d expected=%d", embedded, decompressedSize)
	}
	dec, err := getDecoder()
	if err != nil {
		return nil, fmt.Errorf("oodle: decoder init: %w", err)
	}
	dst := make([]byte, 0, embedded)
	dst, err = dec.DecodeAll(src[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("oodle: decode: %w", err)
	}
	return dst, nil
}

// Compress encodes src behind the {magic, decompressed_size} header. It
// refuses trivial gains: if the compressed payload (not counting the
// header) would not be smaller than src, ErrIncompressible is returned so the caller can store the segment
// uncompressed instead.
func Compress(src []byte) ([]byte, error) {
	enc, err := getEncoder()
	if err != nil {
		return nil, fmt.Errorf("oodle: encoder init: %w", err)
	}
	dst := make([]byte, headerSize, headerSize+len(src))
	copy(dst[0:4], Magic[:])
	binary.LittleEndian.PutUint32(dst[4:8], uint32(len(src)))
	dst = enc.EncodeAll(src, dst)
	if len(dst)-headerSize >= len(src) {
		return nil, ErrIncompressible
	}
	return dst, nil
}

// ErrIncompressible is returned by Compress when compressing would not
// shrink the payload.
var ErrIncompressible = fmt.Errorf("oodle: input incompressible")

// DecompressInto decodes src (as in Decompress) into the caller-supplied
// scratch buffer dst, growing it only if it is too small, mirroring the
// archive engine's fixed-scratch-buffer reuse pattern. It returns the
// number of decoded bytes; dst[:n] holds the result and may alias a newly
// grown backing array if the original dst was undersized.
func DecompressInto(src []byte, dst []byte) (int, []byte, error) {
	if len(src) < headerSize {
		return 0, dst, fmt.Errorf("oodle: segment too short: %d bytes", len(src))
	}
	if !bytes.Equal(src[0:4], Magic[:]) {
		return 0, dst, fmt.Errorf("oodle: bad magic %q", src[0:4])
	}
	dec, err := getDecoder()
	if err != nil {
		return 0, dst, fmt.Errorf("oodle: decoder init: %w", err)
	}
	out, err := dec.DecodeAll(src[headerSize:], dst[:0])
	if err != nil {
		return 0, dst, fmt.Errorf("oodle: decode: %w", err)
	}
	return len(out), out, nil
}
