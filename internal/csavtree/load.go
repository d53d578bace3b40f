package csavtree

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pixelrick/cptk/internal/bstream"
	"github.com/pixelrick/cptk/internal/csavlz4"
)

// ProgressFunc receives a monotonically increasing fraction in [0,1] as
// Load advances through its fixed checkpoint sequence.
type ProgressFunc func(fraction float64)

// Load reads a CSAV container from r. Equivalent to LoadWithProgress with
// a no-op progress callback.
func Load(r io.ReadSeeker) (*Tree, error) {
	return LoadWithProgress(r, func(float64) {})
}

var loadCheckpoints = []float64{0.00, 0.20, 0.25, 0.30, 0.35, 0.40, 0.45, 0.50, 0.80, 0.90, 1.00}

// LoadWithProgress reads a CSAV container from r, reporting progress at a
// fixed sequence of fractions as it advances through header parsing, chunk
// decompression, and tree reconstruction.
func LoadWithProgress(r io.ReadSeeker, progress ProgressFunc) (*Tree, error) {
	if progress == nil {
		progress = func(float64) {}
	}
	report := checkpointReporter(progress)

	report() // 0.00

	s := bstream.NewReader(r)
	var magic [4]byte
	s.ReadBytes(magic[:])
	if s.HasError() {
		return nil, s.Err()
	}
	if magic != Magic {
		return nil, fmt.Errorf("csavtree: bad file magic %q", magic[:])
	}

	version, err := readVersion(s)
	if err != nil {
		return nil, err
	}
	if err := version.Validate(); err != nil {
		return nil, err
	}
	report() // 0.20

	size, err := seekSize(r)
	if err != nil {
		return nil, err
	}
	s.Seek(size - 8)
	footerOffset := s.U32(0)
	var footerMagic [4]byte
	s.ReadBytes(footerMagic[:])
	if s.HasError() {
		return nil, s.Err()
	}
	if footerMagic != FooterMagic {
		return nil, fmt.Errorf("csavtree: bad footer magic %q", footerMagic[:])
	}
	report() // 0.25

	s.Seek(int64(footerOffset))
	var chunkTag [4]byte
	s.ReadBytes(chunkTag[:])
	if chunkTag != ChunkTableMagic {
		return nil, fmt.Errorf("csavtree: bad chunk table magic %q", chunkTag[:])
	}
	chunkCount := s.U32(0)
	chunks := make([]chunkDesc, chunkCount)
	for i := range chunks {
		chunks[i] = chunkDesc{
			OffsetInFile: s.U32(0),
			DiskSize:     s.U32(0),
			DataSize:     s.U32(0),
		}
	}
	if s.HasError() {
		return nil, s.Err()
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].OffsetInFile < chunks[j].OffsetInFile })
	report() // 0.30

	var logical bytes.Buffer
	for i, c := range chunks {
		raw := make([]byte, c.DiskSize)
		s.Seek(int64(c.OffsetInFile))
		s.ReadBytes(raw)
		if s.HasError() {
			return nil, s.Err()
		}
		if i == 0 && !csavlz4.IsFramed(raw) {
			// PS4 save variant: first chunk stored raw, uncompressed.
			if uint32(len(raw)) != c.DataSize {
				return nil, fmt.Errorf("csavtree: raw chunk 0 size %d != data_size %d", len(raw), c.DataSize)
			}
			logical.Write(raw)
			continue
		}
		dec, err := csavlz4.DecompressFrame(raw)
		if err != nil {
			return nil, fmt.Errorf("csavtree: chunk %d: %w", i, err)
		}
		logical.Write(dec)
	}
	report() // 0.35
	report() // 0.40

	nodeStream := bstream.NewReader(bytes.NewReader(logical.Bytes()))
	var nodeTag [4]byte
	nodeStream.ReadBytes(nodeTag[:])
	if nodeTag != NodeTableMagic {
		return nil, fmt.Errorf("csavtree: bad node table magic %q", nodeTag[:])
	}
	count := nodeStream.PackedInt(0)
	descs := make([]nodeDesc, count)
	for i := range descs {
		descs[i] = nodeDesc{
			Name:           nodeStream.String(""),
			NextSiblingIdx: nodeStream.I32(0),
			FirstChildIdx:  nodeStream.I32(0),
			DataOffset:     nodeStream.U32(0),
			DataSize:       nodeStream.U32(0),
		}
	}
	if nodeStream.HasError() {
		return nil, nodeStream.Err()
	}
	nodeTableEnd := nodeStream.Tell()
	nodeData := logical.Bytes()[nodeTableEnd:]
	report() // 0.45

	report() // 0.50

	if err := verifyAcyclic(descs); err != nil {
		return nil, err
	}
	if err := validateNodeDataInvariants(descs, nodeData); err != nil {
		return nil, err
	}
	report() // 0.80

	root, err := unflattenTree(descs, nodeData)
	if err != nil {
		return nil, err
	}
	report() // 0.90

	report() // 1.00
	return &Tree{Version: version, Root: root}, nil
}

func checkpointReporter(progress ProgressFunc) func() {
	i := 0
	return func() {
		if i < len(loadCheckpoints) {
			progress(loadCheckpoints[i])
			i++
		}
	}
}

func readVersion(s *bstream.Stream) (Version, error) {
	var v Version
	v.V1 = s.U32(0)
	v.V2 = s.U32(0)
	v.Suk = s.String("")
	v.Uk0 = s.U32(0)
	v.Uk1 = s.U32(0)
	if s.HasError() {
		return Version{}, s.Err()
	}
	if v.V1 >= 83 {
		v.V3 = s.U32(0)
		v.HasV3 = true
		if s.HasError() {
			return Version{}, s.Err()
		}
	}
	return v, nil
}

func seekSize(r io.ReadSeeker) (int64, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("csavtree: seek end: %w", err)
	}
	return size, nil
}
