package csavtree

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/orcaman/writerseeker"
	"github.com/pixelrick/cptk/internal/bstream"
	"github.com/pixelrick/cptk/internal/csavlz4"
)

// chunkSize is the uncompressed size of each LZ4-framed chunk written by
// Save. Chosen to match the chunking granularity observed in real save
// files; has no bearing on correctness, only on how finely the node-data
// stream is split for compression.
const chunkSize = 256 * 1024

// Save serializes tree to w as a complete CSAV container: header, version
// block, LZ4-chunked node data, chunk descriptor table, and footer.
func Save(tree *Tree, w io.WriteSeeker) error {
	s := bstream.NewWriter(w)

	magicBuf := Magic
	s.WriteBytes(magicBuf[:])
	writeVersion(s, tree.Version)
	if s.HasError() {
		return s.Err()
	}

	logical, err := encodeNodeStream(tree.Root)
	if err != nil {
		return err
	}

	// The NODE table magic alone guarantees logical is never empty, so a
	// single pass of whole chunkSize-sized pieces always covers it.
	var chunks []chunkDesc
	for off := 0; off < len(logical); off += chunkSize {
		end := off + chunkSize
		if end > len(logical) {
			end = len(logical)
		}
		piece := logical[off:end]

		frameOffset := s.Tell()
		frame, ferr := csavlz4.CompressFrame(piece)
		if ferr != nil {
			if off != 0 {
				return fmt.Errorf("csavtree: chunk at %d: %w", off, ferr)
			}
			// PS4-style raw fallback is only defined for the first chunk.
			frame = piece
		}
		s.WriteBytes(frame)
		chunks = append(chunks, chunkDesc{
			OffsetInFile: uint32(frameOffset),
			DiskSize:     uint32(len(frame)),
			DataSize:     uint32(len(piece)),
		})
	}
	if s.HasError() {
		return s.Err()
	}

	chunkTableOffset := s.Tell()
	tableMagic := ChunkTableMagic
	s.WriteBytes(tableMagic[:])
	s.U32(uint32(len(chunks)))
	for _, c := range chunks {
		s.U32(c.OffsetInFile)
		s.U32(c.DiskSize)
		s.U32(c.DataSize)
	}

	s.U32(uint32(chunkTableOffset))
	footerMagic := FooterMagic
	s.WriteBytes(footerMagic[:])

	return s.Err()
}

func writeVersion(s *bstream.Stream, v Version) {
	s.U32(v.V1)
	s.U32(v.V2)
	s.String(v.Suk)
	s.U32(v.Uk0)
	s.U32(v.Uk1)
	if v.V1 >= 83 {
		s.U32(v.V3)
	}
}

// encodeNodeStream flattens root and prefixes it with the 'NODE' table,
// producing the logical byte stream that gets chunked and compressed.
func encodeNodeStream(root *Node) ([]byte, error) {
	nodeData, descs := flattenTree(root)

	var buf writerseeker.WriterSeeker
	s := bstream.NewWriter(&buf)
	var tag [4]byte = NodeTableMagic
	s.WriteBytes(tag[:])
	s.PackedInt(int64(len(descs)))
	for _, d := range descs {
		s.String(d.Name)
		s.I32(d.NextSiblingIdx)
		s.I32(d.FirstChildIdx)
		s.U32(d.DataOffset)
		s.U32(d.DataSize)
	}
	if s.HasError() {
		return nil, s.Err()
	}
	tableBytes, err := io.ReadAll(buf.BytesReader())
	if err != nil {
		return nil, fmt.Errorf("csavtree: encode node table: %w", err)
	}

	var out bytes.Buffer
	out.Write(tableBytes)
	out.Write(nodeData)
	return out.Bytes(), nil
}

// SaveToFile saves tree to path, backing up any existing file at path to
// "<path>.old" first — but only if no such backup already exists, so the
// oldest backup is preserved across repeated saves.
func SaveToFile(tree *Tree, path string) error {
	if _, err := os.Stat(path); err == nil {
		backupPath := path + ".old"
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			if err := copyFile(path, backupPath); err != nil {
				return fmt.Errorf("csavtree: backing up %s: %w", path, err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("csavtree: stat %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csavtree: create %s: %w", path, err)
	}
	defer f.Close()

	if err := Save(tree, f); err != nil {
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
