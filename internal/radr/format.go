// Package radr implements the RADR archive engine: header parsing,
// read-only random access to files/segments/dependencies, first-segment
// decompression, and physically-contiguous bulk reads.
package radr

import "github.com/pixelrick/cptk/internal/hashutil"

// Magic is the 4-byte archive header tag.
var Magic = [4]byte{'R', 'A', 'D', 'R'}

// Header is the fixed-size RADR file header.
type Header struct {
	MetaOffset uint64
	MetaSize   uint64
	Version    uint32
}

// SegmentDescriptor describes one physical segment of a file's payload.
// A segment is compressed iff DiskSize != Size.
type SegmentDescriptor struct {
	Offset   uint64
	DiskSize uint32
	Size     uint32
}

// Compressed reports whether this segment is stored compressed on disk.
func (s SegmentDescriptor) Compressed() bool { return s.DiskSize != s.Size }

// U32Range is a half-open [Start, End) index range into a parallel array.
type U32Range struct {
	Start uint32
	End   uint32
}

func (r U32Range) Len() int { return int(r.End - r.Start) }

// FileRecord is one archive entry: identity, timestamp, and the ranges of
// segments/dependencies that belong to it.
type FileRecord struct {
	FileID          uint64
	FileTime        uint64 // Windows FILETIME-like, 100ns since 1601
	SegsRange       U32Range
	DepsRange       U32Range
	InlineBufCount  uint32
	SHA1            hashutil.Digest20
}

// FileInfo is the summary view returned by GetFileInfo. Size is the
// file's full logical length: the decompressed size of the first segment
// plus the raw disk sizes of the remaining segments; the first segment's
// decompressed size alone is not reported. DiskSize is the sum of disk
// sizes across all of the file's segments.
type FileInfo struct {
	FileID   uint64
	FileTime uint64
	DiskSize uint64
	Size     uint64
}
