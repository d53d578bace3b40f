package radr

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixelrick/cptk/internal/hashutil"
	"github.com/pixelrick/cptk/internal/oodle"
)

// buildTestArchive writes a minimal synthetic RADR file with one file per
// payload, each holding its first 32 bytes as a first segment (compressed
// when that shrinks it) plus at most one raw trailing segment for the
// rest, and returns its path.
func buildTestArchive(t *testing.T, payloads [][]byte) string {
	t.Helper()

	var segs []SegmentDescriptor
	var records []FileRecord
	var body bytes.Buffer // segment payload bytes, appended as we go
	var offset uint64

	for _, p := range payloads {
		first := p
		if len(first) > 32 {
			first = first[:32]
		}
		rest := p[len(first):]

		frame, err := oodle.Compress(first)
		segStart := len(segs)
		if err != nil {
			// Incompressible input (e.g. too short to beat header
			// overhead): store the first segment raw, DiskSize == Size,
			// matching the "compressed iff DiskSize != Size" rule.
			segs = append(segs, SegmentDescriptor{Offset: offset, DiskSize: uint32(len(first)), Size: uint32(len(first))})
			body.Write(first)
			offset += uint64(len(first))
		} else {
			segs = append(segs, SegmentDescriptor{Offset: offset, DiskSize: uint32(len(frame)), Size: uint32(len(first))})
			body.Write(frame)
			offset += uint64(len(frame))
		}

		// store "rest" as a single raw trailing segment.
		if len(rest) > 0 {
			segs = append(segs, SegmentDescriptor{Offset: offset, DiskSize: uint32(len(rest)), Size: uint32(len(rest))})
			body.Write(rest)
			offset += uint64(len(rest))
		}

		digest := hashutil.NewSHA1Builder()
		digest.Write(p)

		records = append(records, FileRecord{
			FileID:    0x1111,
			FileTime:  0,
			SegsRange: U32Range{Start: uint32(segStart), End: uint32(len(segs))},
			DepsRange: U32Range{Start: 0, End: 0},
			SHA1:      digest.Sum(),
		})
	}

	var meta bytes.Buffer
	writeU32 := func(v uint32) { binary.Write(&meta, binary.LittleEndian, v) }
	writeU64 := func(v uint64) { binary.Write(&meta, binary.LittleEndian, v) }

	writeU32(uint32(len(records)))
	for _, r := range records {
		writeU64(r.FileID)
		writeU64(r.FileTime)
		writeU32(r.SegsRange.Start)
		writeU32(r.SegsRange.End)
		writeU32(r.DepsRange.Start)
		writeU32(r.DepsRange.End)
		writeU32(r.InlineBufCount)
		meta.Write(r.SHA1[:])
	}
	writeU32(uint32(len(segs)))
	for _, s := range segs {
		writeU64(s.Offset)
		writeU32(s.DiskSize)
		writeU32(s.Size)
	}
	writeU32(0) // dependency count

	headerSize := int64(4 + 8 + 8 + 4)
	metaOffset := uint64(headerSize) + uint64(body.Len())

	var out bytes.Buffer
	out.Write(Magic[:])
	binary.Write(&out, binary.LittleEndian, metaOffset)
	binary.Write(&out, binary.LittleEndian, uint64(meta.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(1))
	out.Write(body.Bytes())
	out.Write(meta.Bytes())

	dir := t.TempDir()
	path := filepath.Join(dir, "test.archive")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenAndReadFile(t *testing.T) {
	payload0 := bytes.Repeat([]byte("alpha-"), 20) // > 32 bytes: first+rest
	payload1 := []byte("short")                    // fits entirely in first segment
	path := buildTestArchive(t, [][]byte{payload0, payload1})

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if got, want := a.Size(), 2; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	for i, want := range [][]byte{payload0, payload1} {
		info, err := a.GetFileInfo(i)
		if err != nil {
			t.Fatalf("GetFileInfo(%d): %v", i, err)
		}
		got := make([]byte, info.Size)
		if err := a.ReadFile(i, got); err != nil {
			t.Fatalf("ReadFile(%d): %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadFile(%d) = %q, want %q", i, got, want)
		}
		ok, err := a.VerifyDigest(i)
		if err != nil {
			t.Fatalf("VerifyDigest(%d): %v", i, err)
		}
		if !ok {
			t.Errorf("VerifyDigest(%d) = false, want true", i)
		}
	}
}

func TestFileStreamReadSequential(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 10) // 100 bytes, crosses segments
	path := buildTestArchive(t, [][]byte{payload})

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	h, err := a.GetFileHandle(0)
	if err != nil {
		t.Fatalf("GetFileHandle: %v", err)
	}
	fs, err := h.Open()
	if err != nil {
		t.Fatalf("Open stream: %v", err)
	}

	got := make([]byte, len(payload))
	pos := 0
	for pos < len(got) {
		end := pos + 7
		if end > len(got) {
			end = len(got)
		}
		n, err := fs.Read(got[pos:end])
		if err != nil && n == 0 {
			t.Fatalf("Read at %d: %v", pos, err)
		}
		pos += n
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("streamed read = %q, want %q", got, payload)
	}
}

func TestFileStreamSeekAndReread(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 8)
	path := buildTestArchive(t, [][]byte{payload})

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	h, _ := a.GetFileHandle(0)
	fs, err := h.Open()
	if err != nil {
		t.Fatalf("Open stream: %v", err)
	}

	if _, err := fs.Seek(10, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, 5)
	if _, err := fs.Read(got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := payload[10:15]; !bytes.Equal(got, want) {
		t.Errorf("Read after seek = %q, want %q", got, want)
	}
}

func TestSegsRangeLenMatchesFileSegments(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 40)
	path := buildTestArchive(t, [][]byte{payload})
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	if got, want := a.Records()[0].SegsRange.Len(), len(a.fileSegments(0)); got != want {
		t.Fatalf("SegsRange.Len() = %d, want %d", got, want)
	}
}
