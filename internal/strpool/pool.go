// Package strpool implements the append-only, never-relocating interned
// string pool that backs global names (gname). Strings are kept in an
// append-only slice, so indices into the pool remain valid for the pool's
// entire lifetime; they are not packed into fixed-size blocks. A hash
// collision between two distinct strings is logged and the existing entry
// is kept rather than silently overwritten.
package strpool

import (
	"fmt"
	"log"

	"github.com/pixelrick/cptk/internal/hashutil"
)

// blockSize is the block size used by Stats' block accounting; the pool
// does not allocate its storage in blocks of this size.
const blockSize = 256 * 1024

// ErrHashCollision describes a string inserted whose hash already maps to
// a different string. InsertWithHash logs it and returns the existing
// entry; it is not returned as an error.
type ErrHashCollision struct {
	Hash     uint64
	Existing string
	New      string
}

func (e *ErrHashCollision) Error() string {
	return fmt.Sprintf("strpool: hash %#x collision: existing %q, inserted %q", e.Hash, e.Existing, e.New)
}

type entry struct {
	hash uint64
	s    string
}

// Pool is a single-threaded (not goroutine-safe) append-only string pool.
// Use SyncPool for the shared/exclusive-locked variant required wherever
// more than one goroutine may insert or read concurrently.
type Pool struct {
	entries []entry
	byHash  map[uint64]int
	bytes   int
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{byHash: make(map[uint64]int)}
}

// Reserve pre-sizes the pool's backing storage for at least n entries.
func (p *Pool) Reserve(n int) {
	if cap(p.entries)-len(p.entries) < n {
		grown := make([]entry, len(p.entries), len(p.entries)+n)
		copy(grown, p.entries)
		p.entries = grown
	}
}

// Insert interns s, returning its FNV-1a64 hash and dense index. Re-inserting
// an identical string returns the same index. Inserting a string whose hash
// already exists under different content logs the collision and returns the
// existing entry untouched.
func (p *Pool) Insert(s string) (uint64, int) {
	return p.InsertWithHash(s, hashutil.FNV1a64([]byte(s)))
}

// InsertWithHash interns s under a caller-supplied hash, skipping the
// rehash. Used when the hash is already known (e.g. re-deriving a CName).
func (p *Pool) InsertWithHash(s string, hash uint64) (uint64, int) {
	if idx, ok := p.byHash[hash]; ok {
		existing := p.entries[idx].s
		if existing != s {
			log.Printf("%v", &ErrHashCollision{Hash: hash, Existing: existing, New: s})
			return hash, idx
		}
		return hash, idx
	}
	idx := len(p.entries)
	p.entries = append(p.entries, entry{hash: hash, s: s})
	p.byHash[hash] = idx
	p.bytes += blockAccountedSize(s)
	return hash, idx
}

// InsertLiteral interns a string known to have static/program lifetime
// without copying it. In Go there is no meaningful distinction from Insert
// since strings are already immutable and the runtime's string data isn't
// relocated by the GC, but the entry point is kept to mirror the original
// API surface used by call sites that just want to declare their intent.
func (p *Pool) InsertLiteral(s string) (uint64, int) {
	return p.Insert(s)
}

// Find returns the index of a previously inserted string with the given
// hash, if any.
func (p *Pool) Find(hash uint64) (int, bool) {
	idx, ok := p.byHash[hash]
	return idx, ok
}

// At returns the string stored at index i.
func (p *Pool) At(i int) string {
	return p.entries[i].s
}

// HashAt returns the hash stored at index i.
func (p *Pool) HashAt(i int) uint64 {
	return p.entries[i].hash
}

// Size returns the number of distinct strings in the pool.
func (p *Pool) Size() int {
	return len(p.entries)
}

// Stats describes block/byte accounting for diagnostics.
type Stats struct {
	Entries int
	Bytes   int
	Blocks  int
}

// Stats reports pool accounting. Not present in the original C++ API but a
// direct consequence of carrying block-size accounting forward (§4.A).
func (p *Pool) Stats() Stats {
	blocks := (p.bytes + blockSize - 1) / blockSize
	if blocks == 0 && p.bytes > 0 {
		blocks = 1
	}
	return Stats{Entries: len(p.entries), Bytes: p.bytes, Blocks: blocks}
}

// blockAccountedSize mirrors the on-disk entry shape {u16 size, bytes, NUL}
// with 4-byte stride rounding, purely for Stats() bookkeeping.
func blockAccountedSize(s string) int {
	n := 2 + len(s) + 1 // u16 size + bytes + NUL
	if rem := n % 4; rem != 0 {
		n += 4 - rem
	}
	return n
}
