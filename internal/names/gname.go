// Package names implements the global identifier types layered on top of
// strpool: gname (a 32-bit handle into a tagged pool), CName (a FNV-1a64
// name hash with optional reverse lookup) and TweakDBID (a CRC-32-based
// identifier with length-aware concatenation). Reverse lookup is seeded
// from the JSON name databases shipped alongside the game
// (db/CNames.json, db/TweakDBIDs.json, db/CEnums.json, db/CFacts.json).
package names

import "github.com/pixelrick/cptk/internal/strpool"

// GName is a handle into a tagged string pool. Equality is index equality
// within the same pool; ordering is lexicographic on the underlying string.
// Distinct tags (e.g. "cname", "class", "type") get distinct pools so that
// an index collision across tags can never be mistaken for name equality.
type GName struct {
	pool *strpool.SyncPool
	idx  uint32
	ok   bool
}

// pools holds one SyncPool per tag, created lazily on first use.
var pools = map[string]*strpool.SyncPool{}

func poolForTag(tag string) *strpool.SyncPool {
	if p, ok := pools[tag]; ok {
		return p
	}
	p := strpool.NewSync()
	pools[tag] = p
	return p
}

// NewGName interns s into the pool tagged by tag.
func NewGName(tag, s string) GName {
	p := poolForTag(tag)
	_, idx := p.Insert(s)
	return GName{pool: p, idx: uint32(idx), ok: true}
}

// Valid reports whether g was ever assigned (the zero value is invalid,
// mirroring the C++ gname() default constructor pointing at index 0, the
// "<gname:uninitialized>" literal).
func (g GName) Valid() bool { return g.ok }

// String returns the underlying interned string.
func (g GName) String() string {
	if !g.ok {
		return "<gname:uninitialized>"
	}
	return g.pool.At(int(g.idx))
}

// Equal reports index equality within the same tagged pool. GNames from
// different tags are never equal, even if their underlying strings match.
func (g GName) Equal(o GName) bool {
	return g.ok && o.ok && g.pool == o.pool && g.idx == o.idx
}

// Less implements the lexicographic-on-string ordering used by UI pickers.
func (g GName) Less(o GName) bool {
	return g.String() < o.String()
}
