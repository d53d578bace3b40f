package names

import (
	"fmt"

	"github.com/pixelrick/cptk/internal/hashutil"
)

const cnamePoolTag = "cname"

// CName is the 64-bit FNV-1a64 hash of a name, with optional resolution
// back to the original string through a process-wide registry seeded from
// db/CNames.json (and registered ad hoc as new names are constructed with
// register=true, the default).
type CName struct {
	Hash uint64
}

// NewCName hashes name and, unless register is false, adds it to the
// process-wide resolver so Name() can later recover the string.
func NewCName(name string, register ...bool) CName {
	doRegister := true
	if len(register) > 0 {
		doRegister = register[0]
	}
	h := hashutil.FNV1a64([]byte(name))
	if doRegister {
		RegisterCName(name, h)
	}
	return CName{Hash: h}
}

// CNameFromHash wraps a raw hash without touching the resolver (used when
// deserializing a FlagCNameAsHash-encoded property, where the name is not
// guaranteed to be resolvable).
func CNameFromHash(h uint64) CName { return CName{Hash: h} }

func (c CName) Equal(o CName) bool { return c.Hash == o.Hash }

// Name returns the resolved name, or a "<cname:HHHHHHHHHHHHHHHH>" placeholder
// if the hash is unknown to the resolver.
func (c CName) Name() string {
	if s, ok := LookupCName(c.Hash); ok {
		return s
	}
	return fmt.Sprintf("<cname:%016X>", c.Hash)
}

var cnameResolver = newHashResolver()

// RegisterCName adds name (with its precomputed hash) to the process-wide
// CName resolver. A collision between two different strings hashing to the
// same 64-bit value is logged as critical per the pool collision contract.
func RegisterCName(name string, hash uint64) {
	cnameResolver.register(name, hash)
	NewGName(cnamePoolTag, name)
}

// LookupCName reverse-resolves a hash to its registered name.
func LookupCName(hash uint64) (string, bool) {
	return cnameResolver.lookup(hash)
}

// SeedCNames bulk-registers names loaded from db/CNames.json.
func SeedCNames(names []string) {
	for _, n := range names {
		RegisterCName(n, hashutil.FNV1a64([]byte(n)))
	}
}
