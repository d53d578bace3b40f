package treefs

// DirectoryIterator yields each child of a directory entry in insertion
// order (not sorted) by following firstChildIdx then nextSiblingIdx.
type DirectoryIterator struct {
	t   *TreeFS
	cur int32
}

// NewDirectoryIterator starts iterating the children of pathID's entry.
// ok is false if pathID is unknown or names a non-directory entry.
func (t *TreeFS) NewDirectoryIterator(pathID uint64) (*DirectoryIterator, bool) {
	idx, ok := t.byPath[pathID]
	if !ok {
		return nil, false
	}
	e := &t.entries[idx]
	if e.kind != KindDirectory {
		return nil, false
	}
	return &DirectoryIterator{t: t, cur: e.firstChildIdx}, true
}

// DirEntry is one child yielded by an iterator.
type DirEntry struct {
	Name   string
	Kind   EntryKind
	PathID uint64
	idx    int
}

// Next advances the iterator, returning false once siblings are exhausted.
func (it *DirectoryIterator) Next() (DirEntry, bool) {
	if it.cur == invalidIdx {
		return DirEntry{}, false
	}
	e := &it.t.entries[it.cur]
	out := DirEntry{Name: e.name, Kind: e.kind, PathID: e.pathID, idx: int(it.cur)}
	it.cur = e.nextSiblingIdx
	return out, true
}

// RecursiveDirectoryIterator performs a pre-order traversal of a
// directory subtree: entering a directory pushes the current iterator
// and descends; reaching end-of-siblings pops.
type RecursiveDirectoryIterator struct {
	t     *TreeFS
	stack []*DirectoryIterator
}

// NewRecursiveDirectoryIterator starts a pre-order traversal rooted at
// pathID's directory entry.
func (t *TreeFS) NewRecursiveDirectoryIterator(pathID uint64) (*RecursiveDirectoryIterator, bool) {
	it, ok := t.NewDirectoryIterator(pathID)
	if !ok {
		return nil, false
	}
	return &RecursiveDirectoryIterator{t: t, stack: []*DirectoryIterator{it}}, true
}

// Next advances the pre-order traversal, returning false when the whole
// subtree has been visited.
func (it *RecursiveDirectoryIterator) Next() (DirEntry, bool) {
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		e, ok := top.Next()
		if !ok {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		if e.Kind == KindDirectory {
			child := &DirectoryIterator{t: it.t, cur: it.t.entries[e.idx].firstChildIdx}
			it.stack = append(it.stack, child)
		}
		return e, true
	}
	return DirEntry{}, false
}
