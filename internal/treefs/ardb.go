package treefs

import (
	"fmt"

	"github.com/pixelrick/cptk/internal/ardb"
)

// LoadARDB promotes hash-only leaves into named paths from a parsed path
// database. Records are assumed pre-verified topologically ordered
// (parent index < own index, enforced by ardb.Parse); root records
// (ParentIndex < 0) attach directly under the TreeFS root.
func (t *TreeFS) LoadARDB(db *ardb.DB) error {
	entryOf := make([]int, len(db.Records))
	for i, rec := range db.Records {
		name := db.Names[rec.NameIndex]
		kind := KindReservedForFile
		if db.IsDirName(rec.NameIndex) {
			kind = KindDirectory
		}

		parentIdx := rootIdx
		if !rec.IsRoot() {
			parentIdx = entryOf[rec.ParentIndex]
		}

		// InsertChildEntry itself relocates a matching unidentified_files
		// hash-leaf in place when its path_id matches this ARDB record's
		// computed path_id (see its "promotion" case), so no further
		// merge step is needed here.
		idx, _, err := t.InsertChildEntry(parentIdx, name, kind)
		if err != nil {
			return fmt.Errorf("treefs: ardb record %d (%q): %w", i, name, err)
		}
		entryOf[i] = idx
	}
	return nil
}
