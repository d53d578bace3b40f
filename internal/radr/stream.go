package radr

import (
	"fmt"
	"io"
)

// FileHandle identifies one file within an Archive and shares its
// ownership; it is cheap to copy and safe to hold onto after the index
// that produced it goes out of scope.
type FileHandle struct {
	archive *Archive
	index   int
}

// Archive returns the owning archive.
func (h *FileHandle) Archive() *Archive { return h.archive }

// Index returns the file_record index this handle refers to.
func (h *FileHandle) Index() int { return h.index }

// Info returns the handle's FileInfo summary.
func (h *FileHandle) Info() (FileInfo, error) {
	return h.archive.GetFileInfo(h.index)
}

// Open wraps the handle as a seekable read-only FileStream.
func (h *FileHandle) Open() (*FileStream, error) {
	segs := append([]SegmentDescriptor(nil), h.archive.fileSegments(h.index)...)
	info, err := h.archive.GetFileInfo(h.index)
	if err != nil {
		return nil, err
	}
	return &FileStream{
		archive: h.archive,
		segs:    segs,
		size:    int64(info.Size),
	}, nil
}

// FileStream is a seekable read-only byte stream over one file handle's
// segments (spec §4.H): a copy of the segment descriptors, a logical
// position, and a small buffer holding at most one recently
// decompressed/raw segment.
type FileStream struct {
	archive *Archive
	segs    []SegmentDescriptor
	size    int64
	pos     int64

	bufStart int64 // logical offset of buf[0]; meaningful only while buf is non-nil
	buf      []byte
}

// Size returns the stream's total decompressed length.
func (f *FileStream) Size() int64 { return f.size }

// Seek repositions the stream; it does not itself invalidate the buffer.
func (f *FileStream) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = f.size + offset
	default:
		return 0, fmt.Errorf("radr: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("radr: negative seek position %d", newPos)
	}
	f.pos = newPos
	return f.pos, nil
}

// segmentLogicalRanges returns, for each segment, its [start,end) range in
// the stream's logical (decompressed-first, raw-rest) address space.
func (f *FileStream) segmentLogicalRanges() []U32Range64 {
	ranges := make([]U32Range64, len(f.segs))
	var pos int64
	for i, sd := range f.segs {
		var n int64
		if i == 0 {
			n = int64(sd.Size)
		} else {
			n = int64(sd.DiskSize)
		}
		ranges[i] = U32Range64{Start: pos, End: pos + n}
		pos += n
	}
	return ranges
}

// U32Range64 is a half-open logical byte range.
type U32Range64 struct {
	Start, End int64
}

// Read implements io.Reader, following the four-step contract of spec
// §4.H: serve from the single-segment buffer when possible, special-case
// segment 0 (always compressed on disk), otherwise linear-scan for the
// containing segment and coalesce contiguous runs into one bulk read.
func (f *FileStream) Read(dst []byte) (int, error) {
	if f.pos >= f.size {
		return 0, io.EOF
	}
	n := int64(len(dst))
	if f.pos+n > f.size {
		n = f.size - f.pos
	}
	dst = dst[:n]

	// Step 1: served entirely from the buffer.
	if f.buf != nil && f.pos >= f.bufStart && f.pos+n <= f.bufStart+int64(len(f.buf)) {
		copy(dst, f.buf[f.pos-f.bufStart:])
		f.pos += n
		return int(n), nil
	}

	ranges := f.segmentLogicalRanges()

	// Step 2: position is inside segment 0.
	if len(ranges) > 0 && f.pos < ranges[0].End {
		sd := f.segs[0]
		if f.pos+n > ranges[0].End {
			// serve only up to the end of segment 0 (a short read).
			n = ranges[0].End - f.pos
			dst = dst[:n]
		}
		if f.pos == ranges[0].Start && n == ranges[0].End-ranges[0].Start {
			// spans all of segment 0: decompress directly into dst.
			if err := f.archive.ReadSegment(sd, dst, true); err != nil {
				return 0, fmt.Errorf("radr: reading segment 0: %w", err)
			}
			f.pos += n
			return int(n), nil
		}
		buf := make([]byte, sd.Size)
		if err := f.archive.ReadSegment(sd, buf, true); err != nil {
			return 0, fmt.Errorf("radr: buffering segment 0: %w", err)
		}
		f.buf = buf
		f.bufStart = ranges[0].Start
		copy(dst, f.buf[f.pos-f.bufStart:f.pos-f.bufStart+n])
		f.pos += n
		return int(n), nil
	}

	// Step 3: linear scan for the containing segment.
	idx := -1
	for i, r := range ranges {
		if f.pos >= r.Start && f.pos < r.End {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("radr: position %d has no containing segment", f.pos)
	}

	// Step 4: fits inside one segment -> buffer it; otherwise read a
	// contiguous physical run in one bulk read and serve dst from it.
	if f.pos+n <= ranges[idx].End {
		sd := f.segs[idx]
		buf := make([]byte, sd.DiskSize)
		if err := f.archive.ReadSegment(sd, buf, false); err != nil {
			return 0, fmt.Errorf("radr: buffering segment %d: %w", idx, err)
		}
		f.buf = buf
		f.bufStart = ranges[idx].Start
		copy(dst, f.buf[f.pos-f.bufStart:f.pos-f.bufStart+n])
		f.pos += n
		return int(n), nil
	}

	j := idx
	for j < len(f.segs) && ranges[j].Start < f.pos+n {
		if j > idx && f.segs[j].Offset != f.segs[j-1].Offset+uint64(f.segs[j-1].DiskSize) {
			break
		}
		j++
	}
	span := f.spanBuf(idx, j)
	if err := f.archive.ReadSegmentsRaw(f.segs[idx:j], span); err != nil {
		return 0, err
	}
	off := f.pos - ranges[idx].Start
	if off+n > int64(len(span)) {
		// the physical run ended early: serve a short read.
		n = int64(len(span)) - off
	}
	copy(dst, span[off:off+n])
	f.pos += n
	return int(n), nil
}

// spanBuf allocates a scratch buffer exactly sized for segs[i:j]'s raw
// disk bytes.
func (f *FileStream) spanBuf(i, j int) []byte {
	var n int64
	for _, sd := range f.segs[i:j] {
		n += int64(sd.DiskSize)
	}
	return make([]byte, n)
}
