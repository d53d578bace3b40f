// Package respath implements the case-folded, backslash-normalized
// resource path type used throughout the archive and TreeFS layers, and
// its 64-bit path_id fingerprint.
package respath

import (
	"fmt"
	"strings"

	"github.com/pixelrick/cptk/internal/hashutil"
)

// ErrInvalidPath is returned when a path string contains a byte that
// cannot occur in a depot path: anything above ASCII (0x7F) or a colon.
type ErrInvalidPath struct {
	Input string
	Byte  byte
}

func (e *ErrInvalidPath) Error() string {
	return fmt.Sprintf("respath: invalid byte %#02x in path %q", e.Byte, e.Input)
}

// Path is a normalized depot path: lower-case ASCII, backslash-separated,
// no leading/trailing separator, no drive letter.
type Path struct {
	str string // already normalized
}

// Root is the well-known empty path (path_id = FNV1a64("")).
var Root = Path{}

// New normalizes s into a Path: rejects non-ASCII and ':', folds case,
// converts '/' to '\', collapses repeated separators, strips a trailing
// separator. Normalization is a single, in-place pass and is idempotent:
// New(New(s).String()) == New(s).
func New(s string) (Path, error) {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x7F {
			return Path{}, &ErrInvalidPath{Input: s, Byte: c}
		}
		if c == ':' {
			return Path{}, &ErrInvalidPath{Input: s, Byte: c}
		}
		if c == '/' {
			c = '\\'
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == '\\' && len(buf) > 0 && buf[len(buf)-1] == '\\' {
			continue // collapse repeated separators
		}
		buf = append(buf, c)
	}
	// strip a single leading separator (no leading separator allowed)
	for len(buf) > 0 && buf[0] == '\\' {
		buf = buf[1:]
	}
	// strip a trailing separator
	for len(buf) > 0 && buf[len(buf)-1] == '\\' {
		buf = buf[:len(buf)-1]
	}
	return Path{str: string(buf)}, nil
}

// MustNew is New, panicking on error. Convenient for literals known to be
// valid ASCII at call sites (tests, constant table data).
func MustNew(s string) Path {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the normalized path string.
func (p Path) String() string { return p.str }

// Empty reports whether p is the root path.
func (p Path) Empty() bool { return p.str == "" }

// ID computes the 64-bit path_id fingerprint: FNV-1a64 of the normalized
// path. The root path's id is FNV-1a64("").
func (p Path) ID() uint64 {
	return hashutil.FNV1a64([]byte(p.str))
}

// Join composes p/child, matching path_id composition:
// a.Join(b).ID() == fnv1a64_continue(fnv1a64_continue(a.ID(), "\\"), b.String())
// when a is not root; when a is root, Join just normalizes b standalone so
// that a root-relative join equals the child path by itself.
func (p Path) Join(child Path) Path {
	if p.Empty() {
		return child
	}
	if child.Empty() {
		return p
	}
	return Path{str: p.str + "\\" + child.str}
}

// JoinIDOf computes the path_id of p.Join(child) without constructing the
// intermediate string, mirroring the incremental hash composition used by
// TreeFS when it only has path_ids, not full paths, in hand.
func JoinIDOf(parentID uint64, childName string) uint64 {
	h := hashutil.FNV1a64Continue(parentID, []byte{'\\'})
	return hashutil.FNV1a64Continue(h, []byte(childName))
}

// Components splits the path into its backslash-separated parts. The root
// path has zero components.
func (p Path) Components() []string {
	if p.Empty() {
		return nil
	}
	return strings.Split(p.str, "\\")
}

// Base returns the final path component (the "filename").
func (p Path) Base() string {
	idx := strings.LastIndexByte(p.str, '\\')
	if idx < 0 {
		return p.str
	}
	return p.str[idx+1:]
}

// Dir returns the path with its final component removed.
func (p Path) Dir() Path {
	idx := strings.LastIndexByte(p.str, '\\')
	if idx < 0 {
		return Root
	}
	return Path{str: p.str[:idx]}
}
