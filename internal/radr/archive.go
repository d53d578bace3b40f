package radr

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"

	"github.com/pixelrick/cptk/internal/hashutil"
	"github.com/pixelrick/cptk/internal/oodle"
)

const scratchSize = 256 * 1024 // fixed Oodle scratch buffer, reused across calls

// Archive owns an mmap-backed handle to one RADR file and the parsed
// metadata arrays. All read operations are serialized by mu so that
// multiple logical FileHandles can share one Archive concurrently.
type Archive struct {
	path string
	ra   *mmap.ReaderAt
	fd   *os.File // opened alongside ra purely to expose an fd for readahead hints

	header Header

	mu           sync.Mutex
	records      []FileRecord
	segments     []SegmentDescriptor
	dependencies []uint64

	scratch [scratchSize]byte
}

// Open parses the RADR header and metadata block of path via a memory
// mapping and returns a ready-to-use Archive.
func Open(path string) (*Archive, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("radr: open %s: %w", path, err)
	}
	// A second, plain fd alongside the mapping: mmap.ReaderAt keeps its fd
	// private, and unix.Fadvise needs one to hint readahead for the bulk
	// segment-coalescing path (ReadSegmentsRaw).
	fd, err := os.Open(path)
	if err != nil {
		ra.Close()
		return nil, fmt.Errorf("radr: open %s: %w", path, err)
	}
	a := &Archive{path: path, ra: ra, fd: fd}
	if err := a.parseHeaderAndMeta(); err != nil {
		ra.Close()
		fd.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the underlying memory mapping and its companion fd.
func (a *Archive) Close() error {
	err := a.ra.Close()
	if ferr := a.fd.Close(); err == nil {
		err = ferr
	}
	return err
}

// hintReadahead advises the kernel that [off, off+n) will be read soon, so
// that a coalesced bulk read (ReadSegmentsRaw) over many small on-disk
// segments doesn't pay one page-fault per segment through the mapping.
// Best-effort: advisory failures are never propagated to the caller.
func (a *Archive) hintReadahead(off int64, n int64) {
	unix.Fadvise(int(a.fd.Fd()), off, n, unix.FADV_WILLNEED)
}

func (a *Archive) readAt(p []byte, off int64) error {
	n, err := a.ra.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("radr: short read at offset %d: %w", off, err)
}

func (a *Archive) parseHeaderAndMeta() error {
	var hdr [4 + 8 + 8 + 4]byte
	if err := a.readAt(hdr[:], 0); err != nil {
		return fmt.Errorf("radr: reading header: %w", err)
	}
	if hdr[0] != Magic[0] || hdr[1] != Magic[1] || hdr[2] != Magic[2] || hdr[3] != Magic[3] {
		return fmt.Errorf("radr: bad magic %q", hdr[0:4])
	}
	a.header.MetaOffset = binary.LittleEndian.Uint64(hdr[4:12])
	a.header.MetaSize = binary.LittleEndian.Uint64(hdr[12:20])
	a.header.Version = binary.LittleEndian.Uint32(hdr[20:24])

	meta := make([]byte, a.header.MetaSize)
	if err := a.readAt(meta, int64(a.header.MetaOffset)); err != nil {
		return fmt.Errorf("radr: reading metadata block: %w", err)
	}

	br := &byteReader{b: meta}

	recCount, err := br.u32()
	if err != nil {
		return fmt.Errorf("radr: file_record count: %w", err)
	}
	records := make([]FileRecord, recCount)
	for i := range records {
		fr := &records[i]
		if fr.FileID, err = br.u64(); err != nil {
			return err
		}
		if fr.FileTime, err = br.u64(); err != nil {
			return err
		}
		if fr.SegsRange.Start, err = br.u32(); err != nil {
			return err
		}
		if fr.SegsRange.End, err = br.u32(); err != nil {
			return err
		}
		if fr.DepsRange.Start, err = br.u32(); err != nil {
			return err
		}
		if fr.DepsRange.End, err = br.u32(); err != nil {
			return err
		}
		if fr.InlineBufCount, err = br.u32(); err != nil {
			return err
		}
		if err := br.bytes(fr.SHA1[:]); err != nil {
			return err
		}
	}

	segCount, err := br.u32()
	if err != nil {
		return fmt.Errorf("radr: segment_descriptor count: %w", err)
	}
	segments := make([]SegmentDescriptor, segCount)
	for i := range segments {
		sd := &segments[i]
		if sd.Offset, err = br.u64(); err != nil {
			return err
		}
		if sd.DiskSize, err = br.u32(); err != nil {
			return err
		}
		if sd.Size, err = br.u32(); err != nil {
			return err
		}
	}

	depCount, err := br.u32()
	if err != nil {
		return fmt.Errorf("radr: dependency count: %w", err)
	}
	deps := make([]uint64, depCount)
	for i := range deps {
		if deps[i], err = br.u64(); err != nil {
			return err
		}
	}

	// Invariant (spec §8 property 6): every record's ranges stay inside
	// their parallel arrays.
	for i, fr := range records {
		if int(fr.SegsRange.End) > len(segments) {
			return fmt.Errorf("radr: record %d segs_range.end=%d exceeds %d segments", i, fr.SegsRange.End, len(segments))
		}
		if int(fr.DepsRange.End) > len(deps) {
			return fmt.Errorf("radr: record %d deps_range.end=%d exceeds %d dependencies", i, fr.DepsRange.End, len(deps))
		}
	}

	a.records = records
	a.segments = segments
	a.dependencies = deps
	return nil
}

// Size returns the number of files in the archive.
func (a *Archive) Size() int { return len(a.records) }

// Records exposes the parsed file_record array read-only (debugging tools).
func (a *Archive) Records() []FileRecord { return a.records }

// Segments exposes the parsed segment_descriptor array read-only.
func (a *Archive) Segments() []SegmentDescriptor { return a.segments }

// Dependencies exposes the parsed dependency array read-only.
func (a *Archive) Dependencies() []uint64 { return a.dependencies }

func (a *Archive) fileSegments(i int) []SegmentDescriptor {
	r := a.records[i].SegsRange
	return a.segments[r.Start:r.End]
}

// GetFileInfo returns the summary view of record i.
func (a *Archive) GetFileInfo(i int) (FileInfo, error) {
	if i < 0 || i >= len(a.records) {
		return FileInfo{}, fmt.Errorf("radr: file index %d out of range [0,%d)", i, len(a.records))
	}
	fr := a.records[i]
	segs := a.fileSegments(i)
	var diskSize uint64
	var size uint64
	for n, sd := range segs {
		diskSize += uint64(sd.DiskSize)
		if n == 0 {
			size += uint64(sd.Size)
		} else {
			size += uint64(sd.DiskSize)
		}
	}
	return FileInfo{FileID: fr.FileID, FileTime: fr.FileTime, DiskSize: diskSize, Size: size}, nil
}

// GetFileHandle returns a lightweight handle sharing this Archive's
// ownership, suitable for random access and streaming (internal/radr's
// FileStream type).
func (a *Archive) GetFileHandle(i int) (*FileHandle, error) {
	if i < 0 || i >= len(a.records) {
		return nil, fmt.Errorf("radr: file index %d out of range [0,%d)", i, len(a.records))
	}
	return &FileHandle{archive: a, index: i}, nil
}

// ReadFile reads and decompresses the first segment, then raw-reads the
// remaining segments, concatenated into dst. len(dst) must equal the
// file's total decompressed size (first segment's Size plus the raw
// DiskSize of the rest).
func (a *Archive) ReadFile(i int, dst []byte) error {
	if i < 0 || i >= len(a.records) {
		return fmt.Errorf("radr: file index %d out of range [0,%d)", i, len(a.records))
	}
	segs := a.fileSegments(i)
	var want int
	for n, sd := range segs {
		if n == 0 {
			want += int(sd.Size)
		} else {
			want += int(sd.DiskSize)
		}
	}
	if len(dst) != want {
		return fmt.Errorf("radr: dst length %d does not match file size %d", len(dst), want)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pos := 0
	for n, sd := range segs {
		decompress := n == 0
		var seglen int
		if decompress {
			seglen = int(sd.Size)
		} else {
			seglen = int(sd.DiskSize)
		}
		if err := a.readSegmentLocked(sd, dst[pos:pos+seglen], decompress); err != nil {
			return fmt.Errorf("radr: reading segment %d of file %d: %w", n, i, err)
		}
		pos += seglen
	}
	return nil
}

// ReadSegment reads one logical segment into dst. If decompress is
// requested but the segment is not compressed (DiskSize == Size) this is
// a pass-through raw read.
func (a *Archive) ReadSegment(sd SegmentDescriptor, dst []byte, decompress bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readSegmentLocked(sd, dst, decompress)
}

func (a *Archive) readSegmentLocked(sd SegmentDescriptor, dst []byte, decompress bool) error {
	if !decompress || !sd.Compressed() {
		if len(dst) != int(sd.DiskSize) {
			return fmt.Errorf("radr: dst length %d does not match raw segment size %d", len(dst), sd.DiskSize)
		}
		return a.readAt(dst, int64(sd.Offset))
	}
	if len(dst) != int(sd.Size) {
		return fmt.Errorf("radr: dst length %d does not match decompressed segment size %d", len(dst), sd.Size)
	}
	var raw []byte
	if sd.DiskSize <= scratchSize {
		raw = a.scratch[:sd.DiskSize]
	} else {
		raw = make([]byte, sd.DiskSize)
	}
	if err := a.readAt(raw, int64(sd.Offset)); err != nil {
		return err
	}
	n, out, err := oodle.DecompressInto(raw, dst[:0])
	if err != nil {
		return fmt.Errorf("radr: decompressing segment: %w", err)
	}
	if n != len(dst) || &out[0] != &dst[0] {
		copy(dst, out[:n])
	}
	return nil
}

// ReadSegmentsRaw reads segs[range] into dst without decompression,
// coalescing physically contiguous runs into a single underlying read
// (spec §8 property 7).
func (a *Archive) ReadSegmentsRaw(segs []SegmentDescriptor, dst []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var want int
	for _, sd := range segs {
		want += int(sd.DiskSize)
	}
	if len(dst) != want {
		return fmt.Errorf("radr: dst length %d does not match raw span size %d", len(dst), want)
	}
	if len(segs) > 0 {
		a.hintReadahead(int64(segs[0].Offset), int64(want))
	}

	pos := 0
	i := 0
	for i < len(segs) {
		j := i + 1
		runLen := int(segs[i].DiskSize)
		for j < len(segs) && segs[j].Offset == segs[j-1].Offset+uint64(segs[j-1].DiskSize) {
			runLen += int(segs[j].DiskSize)
			j++
		}
		if err := a.readAt(dst[pos:pos+runLen], int64(segs[i].Offset)); err != nil {
			return fmt.Errorf("radr: bulk-reading segments [%d,%d): %w", i, j, err)
		}
		pos += runLen
		i = j
	}
	return nil
}

// VerifyDigest recomputes the SHA-1 over the concatenated decompressed
// segment payloads of record i and compares it against the stored
// 20-byte digest.
func (a *Archive) VerifyDigest(i int) (bool, error) {
	info, err := a.GetFileInfo(i)
	if err != nil {
		return false, err
	}
	buf := make([]byte, info.Size)
	if err := a.ReadFile(i, buf); err != nil {
		return false, err
	}
	b := hashutil.NewSHA1Builder()
	b.Write(buf)
	got := b.Sum()
	want := a.records[i].SHA1
	return got == want, nil
}

// byteReader is a minimal little-endian cursor over an already-resident
// metadata block; the header/metadata parse is a one-shot operation so a
// full Stream (internal/bstream) would be overkill here.
type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.b) {
		return fmt.Errorf("radr: metadata block truncated (need %d bytes at %d, have %d)", n, r.pos, len(r.b))
	}
	return nil
}

func (r *byteReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes(dst []byte) error {
	if err := r.need(len(dst)); err != nil {
		return err
	}
	copy(dst, r.b[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return nil
}
