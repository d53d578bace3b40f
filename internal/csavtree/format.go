// Package csavtree implements the CSAV container (de)serializer: header and
// version validation, LZ4-chunked node-data framing (over internal/csavlz4),
// the flat node descriptor table, and the in-memory tree it unflattens to.
package csavtree

import "fmt"

// Magic is the 4-byte file header.
var Magic = [4]byte{'C', 'S', 'A', 'V'}

// ChunkTableMagic prefixes the compressed chunk descriptor table.
var ChunkTableMagic = [4]byte{'C', 'L', 'Z', 'F'}

// NodeTableMagic prefixes the node descriptor table.
var NodeTableMagic = [4]byte{'N', 'O', 'D', 'E'}

// FooterMagic is the trailing 4 bytes of the 8-byte footer.
var FooterMagic = [4]byte{'D', 'O', 'N', 'E'}

// Version is the CSAV version block: v1, v2, a free-form tag string (suk,
// typically the editor build that last wrote the file), two unknown u32s,
// and — only present when v1 >= 83 — v3.
type Version struct {
	V1    uint32
	V2    uint32
	Suk   string
	Uk0   uint32
	Uk1   uint32
	V3    uint32 // valid only if HasV3
	HasV3 bool
}

// ErrUnsupportedVersion is returned by Validate for a version outside the
// supported range, or matching the known-bad v1<=168 && v2==4 combination.
var ErrUnsupportedVersion = fmt.Errorf("csavtree: unsupported version")

// Validate checks v against the supported range (spec §6.2): v1 in
// [125,193], v2 in [0,9], v3 <= 195 (when present), and rejects the
// v1<=168 && v2==4 combination the original sources special-case as
// always unsupported regardless of range.
func (v Version) Validate() error {
	if v.V1 < 125 || v.V1 > 193 {
		return fmt.Errorf("%w: v1=%d out of range [125,193]", ErrUnsupportedVersion, v.V1)
	}
	if v.V2 > 9 {
		return fmt.Errorf("%w: v2=%d out of range [0,9]", ErrUnsupportedVersion, v.V2)
	}
	if v.HasV3 && v.V3 > 195 {
		return fmt.Errorf("%w: v3=%d exceeds 195", ErrUnsupportedVersion, v.V3)
	}
	if v.V1 <= 168 && v.V2 == 4 {
		return fmt.Errorf("%w: v1<=168 && v2==4 is always rejected", ErrUnsupportedVersion)
	}
	return nil
}

// chunkDesc is one entry of the compressed chunk descriptor table:
// its position in the file, its on-disk (possibly compressed) size, and
// its decompressed size once concatenated into the logical node-data
// stream.
type chunkDesc struct {
	OffsetInFile uint32
	DiskSize     uint32
	DataSize     uint32
}

// nodeDesc is one entry of the flat node descriptor table.
type nodeDesc struct {
	Name           string
	NextSiblingIdx int32
	FirstChildIdx  int32
	DataOffset     uint32
	DataSize       uint32
}

const noIndex int32 = -1
