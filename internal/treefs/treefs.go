// Package treefs implements the virtual directory tree that merges
// file-record path-ids from one or more RADR archives, optionally
// promoted to named paths via ARDB path-name databases.
package treefs

import (
	"fmt"
	"log"

	"github.com/pixelrick/cptk/internal/ardb"
	"github.com/pixelrick/cptk/internal/radr"
	"github.com/pixelrick/cptk/internal/respath"
)

// EntryKind classifies a tree entry.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindFile
	// KindReservedForFile marks an ARDB-declared leaf that has not yet
	// been linked to an archive file record.
	KindReservedForFile
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindReservedForFile:
		return "reserved_for_file"
	default:
		return "unknown"
	}
}

// entry is one node of the arena-allocated tree. Kept small (a handful of
// indices) so the whole tree can live in one contiguous slice.
type entry struct {
	name   string
	kind   EntryKind
	pathID uint64

	parentIdx      int32
	firstChildIdx  int32
	nextSiblingIdx int32

	// archive linkage, valid only once a file entry has been resolved
	// against a mounted archive.
	hasFile   bool
	archiveIx int // index into TreeFS.archives
	fileIdx   int

	overrideCount int
}

const (
	rootIdx              = 0
	unidentifiedFilesIdx = 1
	invalidIdx           = -1
)

// TreeFS is the merged virtual filesystem: an arena of entries plus a
// path_id -> entry index map.
type TreeFS struct {
	entries []entry
	byPath  map[uint64]int

	archives []mountedArchive
}

type mountedArchive struct {
	path string
	arc  *radr.Archive
}

// New creates an empty TreeFS with its two fixed entries: root and
// unidentified_files.
func New() *TreeFS {
	t := &TreeFS{
		byPath: make(map[uint64]int),
	}
	t.entries = append(t.entries, entry{
		name:           "",
		kind:           KindDirectory,
		pathID:         respath.Root.ID(),
		parentIdx:      invalidIdx,
		firstChildIdx:  invalidIdx,
		nextSiblingIdx: invalidIdx,
	})
	t.byPath[respath.Root.ID()] = rootIdx

	unidentified, _ := respath.New("unidentified_files")
	t.entries = append(t.entries, entry{
		name:           unidentified.String(),
		kind:           KindDirectory,
		pathID:         unidentified.ID(),
		parentIdx:      rootIdx,
		firstChildIdx:  invalidIdx,
		nextSiblingIdx: invalidIdx,
	})
	t.byPath[unidentified.ID()] = unidentifiedFilesIdx
	t.entries[rootIdx].firstChildIdx = unidentifiedFilesIdx
	return t
}

// Mounts lists the archives mounted so far, in mount order.
func (t *TreeFS) Mounts() []string {
	out := make([]string, len(t.archives))
	for i, m := range t.archives {
		out[i] = m.path
	}
	return out
}

// InsertChildEntry returns the index of the child named `name` under
// parentIdx, creating it if absent. If a different entry already owns the
// computed path_id, this is a collision and is refused with an error.
func (t *TreeFS) InsertChildEntry(parentIdx int, name string, kind EntryKind) (idx int, inserted bool, err error) {
	if parentIdx < 0 || parentIdx >= len(t.entries) {
		return 0, false, fmt.Errorf("treefs: invalid parent index %d", parentIdx)
	}
	if containsNonASCII(name) {
		return 0, false, fmt.Errorf("treefs: name %q contains non-ASCII bytes", name)
	}
	parentPathID := t.entries[parentIdx].pathID
	childPathID := respath.JoinIDOf(parentPathID, name)
	if parentIdx == rootIdx {
		// Root has the empty path; joining from empty just yields the
		// normalized child name's own path_id (see respath.Path.Join).
		p, perr := respath.New(name)
		if perr != nil {
			return 0, false, fmt.Errorf("treefs: normalizing %q: %w", name, perr)
		}
		childPathID = p.ID()
	}

	if existingIdx, ok := t.byPath[childPathID]; ok {
		existing := &t.entries[existingIdx]
		switch {
		case existing.parentIdx == int32(parentIdx) && existing.name == name:
			return existingIdx, false, nil
		case existing.parentIdx == unidentifiedFilesIdx && parentIdx != unidentifiedFilesIdx:
			// Promotion: an ARDB-declared named path matches a hash-only
			// leaf already mounted under unidentified_files. Relocate it
			// under its real parent/name instead of treating this as a
			// collision.
			t.unlinkChild(unidentifiedFilesIdx, existingIdx)
			existing.name = name
			existing.parentIdx = int32(parentIdx)
			existing.nextSiblingIdx = invalidIdx
			t.linkChild(parentIdx, existingIdx)
			if kind == KindReservedForFile && existing.hasFile {
				kind = KindFile
			}
			existing.kind = kind
			return existingIdx, false, nil
		default:
			log.Printf("treefs: path_id collision at %#x: existing entry %q under parent %d, requested %q under parent %d",
				childPathID, existing.name, existing.parentIdx, name, parentIdx)
			return 0, false, fmt.Errorf("treefs: path_id collision at %#x", childPathID)
		}
	}

	idx = len(t.entries)
	t.entries = append(t.entries, entry{
		name:           name,
		kind:           kind,
		pathID:         childPathID,
		parentIdx:      int32(parentIdx),
		firstChildIdx:  invalidIdx,
		nextSiblingIdx: invalidIdx,
	})
	t.byPath[childPathID] = idx
	t.linkChild(parentIdx, idx)
	return idx, true, nil
}

// linkChild appends idx to parentIdx's child list.
func (t *TreeFS) linkChild(parentIdx, idx int) {
	p := &t.entries[parentIdx]
	if p.firstChildIdx == invalidIdx {
		p.firstChildIdx = int32(idx)
		return
	}
	sib := p.firstChildIdx
	for t.entries[sib].nextSiblingIdx != invalidIdx {
		sib = t.entries[sib].nextSiblingIdx
	}
	t.entries[sib].nextSiblingIdx = int32(idx)
}

// unlinkChild removes idx from parentIdx's child list.
func (t *TreeFS) unlinkChild(parentIdx, idx int) {
	p := &t.entries[parentIdx]
	if p.firstChildIdx == int32(idx) {
		p.firstChildIdx = t.entries[idx].nextSiblingIdx
		return
	}
	sib := p.firstChildIdx
	for sib != invalidIdx && t.entries[sib].nextSiblingIdx != int32(idx) {
		sib = t.entries[sib].nextSiblingIdx
	}
	if sib != invalidIdx {
		t.entries[sib].nextSiblingIdx = t.entries[idx].nextSiblingIdx
	}
}

func containsNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return true
		}
	}
	return false
}

// GetFileHandle resolves a path_id to an archive file handle, if the tree
// has a linked file entry for it.
func (t *TreeFS) GetFileHandle(pathID uint64) (*radr.FileHandle, bool) {
	idx, ok := t.byPath[pathID]
	if !ok {
		return nil, false
	}
	e := &t.entries[idx]
	if !e.hasFile {
		return nil, false
	}
	h, err := t.archives[e.archiveIx].arc.GetFileHandle(e.fileIdx)
	if err != nil {
		return nil, false
	}
	return h, true
}

// GetPath reconstructs the full path of pathID by walking the parent
// chain, or reports ok=false if pathID is unknown.
func (t *TreeFS) GetPath(pathID uint64) (respath.Path, bool) {
	idx, ok := t.byPath[pathID]
	if !ok {
		return respath.Path{}, false
	}
	var components []string
	for idx != rootIdx {
		e := &t.entries[idx]
		components = append([]string{e.name}, components...)
		idx = int(e.parentIdx)
	}
	p := respath.Root
	for _, c := range components {
		p = p.Join(respath.MustNew(c))
	}
	return p, true
}

// Stat is a lightweight summary of one entry, avoiding materialization of
// a full stream.
type Stat struct {
	Kind          EntryKind
	Size          uint64
	OverrideCount int
}

// Stat returns the lightweight summary for pathID.
func (t *TreeFS) Stat(pathID uint64) (Stat, bool) {
	idx, ok := t.byPath[pathID]
	if !ok {
		return Stat{}, false
	}
	e := &t.entries[idx]
	st := Stat{Kind: e.kind, OverrideCount: e.overrideCount}
	if e.hasFile {
		if info, err := t.archives[e.archiveIx].arc.GetFileInfo(e.fileIdx); err == nil {
			st.Size = info.Size
		}
	}
	return st, true
}

// LoadArchive mounts the RADR archive at path: opens it (internal/radr)
// and, for each file record, either finds the existing entry for its
// path_id (a file's path_id is its file_id; override case — increments
// the override counter and repoints archive/file indices at the latest
// mount) or creates a new hash-named leaf under unidentified_files. If a
// same-named .ardb file is supplied it is used to promote hash-only
// leaves into named paths before linking.
func (t *TreeFS) LoadArchive(path string, db *ardb.DB) error {
	arc, err := radr.Open(path)
	if err != nil {
		return fmt.Errorf("treefs: loading archive %s: %w", path, err)
	}
	archiveIx := len(t.archives)
	t.archives = append(t.archives, mountedArchive{path: path, arc: arc})

	if db != nil {
		if err := t.LoadARDB(db); err != nil {
			return fmt.Errorf("treefs: loading companion ardb for %s: %w", path, err)
		}
	}

	for i, rec := range arc.Records() {
		if existingIdx, ok := t.byPath[rec.FileID]; ok {
			e := &t.entries[existingIdx]
			if e.hasFile {
				e.overrideCount++ // a second mount supplying the same file_id is an override
			}
			e.kind = KindFile
			e.hasFile = true
			e.archiveIx = archiveIx
			e.fileIdx = i
			continue
		}

		hashName := fmt.Sprintf("%016x.bin", rec.FileID)
		idx := t.insertUnidentifiedLeaf(rec.FileID, hashName)
		e := &t.entries[idx]
		e.hasFile = true
		e.archiveIx = archiveIx
		e.fileIdx = i
	}
	return nil
}

// insertUnidentifiedLeaf links a hash-named leaf under unidentified_files
// whose key in byPath is the raw file_id itself (not a path computed from
// "unidentified_files\<hash>.bin") so that a later ARDB mount can still
// find and promote it by path_id, and so that get_file_handle(path_id)
// works without requiring the caller to know the synthetic display name.
func (t *TreeFS) insertUnidentifiedLeaf(pathID uint64, name string) int {
	idx := len(t.entries)
	t.entries = append(t.entries, entry{
		name:           name,
		kind:           KindFile,
		pathID:         pathID,
		parentIdx:      unidentifiedFilesIdx,
		firstChildIdx:  invalidIdx,
		nextSiblingIdx: invalidIdx,
	})
	t.byPath[pathID] = idx
	t.linkChild(unidentifiedFilesIdx, idx)
	return idx
}

