// Package ardb reads the compact ARDB path-name database format used to
// promote hash-only archive leaves into named paths.
package ardb

import (
	"encoding/binary"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Magic is the 4-byte ARDB header tag.
var Magic = [4]byte{'A', 'R', 'D', 'B'}

// Record is one entry: its name index and parent index (-1 marks root).
type Record struct {
	NameIndex   uint32
	ParentIndex int32
}

// IsRoot reports whether r has no parent.
func (r Record) IsRoot() bool { return r.ParentIndex < 0 }

// DB is a parsed ARDB: directory names first, then file names, plus the
// parent-linked record table.
type DB struct {
	DirNamesCount uint32
	Names         []string // dirnames[0:DirNamesCount], then file names
	Records       []Record
}

// IsDirName reports whether nameIdx references the directory-name
// partition of Names.
func (d *DB) IsDirName(nameIdx uint32) bool { return nameIdx < d.DirNamesCount }

// Parse decodes a complete ARDB blob: header, length-prefixed name table
// (directory names first), then records.
func Parse(b []byte) (*DB, error) {
	r := &cursor{b: b}
	var magic [4]byte
	if err := r.bytes(magic[:]); err != nil {
		return nil, fmt.Errorf("ardb: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("ardb: bad magic %q", magic[:])
	}
	namesCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("ardb: names_count: %w", err)
	}
	dirNamesCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("ardb: dirnames_count: %w", err)
	}
	entriesCount, err := r.u32()
	if err != nil {
		return nil, fmt.Errorf("ardb: entries_count: %w", err)
	}
	if dirNamesCount > namesCount {
		return nil, fmt.Errorf("ardb: dirnames_count %d exceeds names_count %d", dirNamesCount, namesCount)
	}

	names := make([]string, namesCount)
	for i := range names {
		s, err := r.lpstring()
		if err != nil {
			return nil, fmt.Errorf("ardb: name %d: %w", i, err)
		}
		names[i] = s
	}

	records := make([]Record, entriesCount)
	for i := range records {
		nameIdx, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("ardb: record %d name_idx: %w", i, err)
		}
		parentIdx, err := r.i32()
		if err != nil {
			return nil, fmt.Errorf("ardb: record %d parent_idx: %w", i, err)
		}
		if nameIdx >= namesCount {
			return nil, fmt.Errorf("ardb: record %d name_idx %d out of range [0,%d)", i, nameIdx, namesCount)
		}
		if parentIdx >= 0 && int(parentIdx) >= i {
			return nil, fmt.Errorf("ardb: record %d parent_idx %d is not topologically before it (parent < child required)", i, parentIdx)
		}
		records[i] = Record{NameIndex: nameIdx, ParentIndex: parentIdx}
	}

	db := &DB{DirNamesCount: dirNamesCount, Names: names, Records: records}
	if err := verifyAcyclic(db); err != nil {
		return nil, err
	}
	return db, nil
}

// verifyAcyclic runs a topological sort over the parent->child edges as a
// defensive check: a cyclic record table (which the parent-index-less-
// than-child-index rule above should already prevent) would otherwise
// hang a naive tree-building walk.
func verifyAcyclic(db *DB) error {
	g := simple.NewDirectedGraph()
	for i := range db.Records {
		g.AddNode(simple.Node(i))
	}
	for i, rec := range db.Records {
		if rec.IsRoot() {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(rec.ParentIndex), T: simple.Node(i)})
	}
	if _, err := topo.Sort(g); err != nil {
		return fmt.Errorf("ardb: record table is not a DAG: %w", err)
	}
	return nil
}

type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.b) {
		return fmt.Errorf("ardb: truncated block (need %d bytes at %d, have %d)", n, c.pos, len(c.b))
	}
	return nil
}

func (c *cursor) bytes(dst []byte) error {
	if err := c.need(len(dst)); err != nil {
		return err
	}
	copy(dst, c.b[c.pos:c.pos+len(dst)])
	c.pos += len(dst)
	return nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.b[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) lpstring() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := c.bytes(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
