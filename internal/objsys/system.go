package objsys

import (
	"fmt"
	"io"

	"github.com/orcaman/writerseeker"

	"github.com/pixelrick/cptk/internal/bstream"
	"github.com/pixelrick/cptk/internal/prop"
)

// System is one loaded system-local scope: a string pool private to it
// (spec §4.K: "All name references inside any object in the system
// resolve through the system's local pool, not a global one") and its
// object table. Objects reference each other only by object-table index
// through Value.Handle; ResolveHandle is the only "resolution" step,
// looked up on demand so cyclic and forward references need no patching
// pass.
type System struct {
	pool       *localPool
	objects    []*prop.Object
	classNames []string

	blueprints *BlueprintRegistry
	isEnum     prop.IsEnumFunc
}

// NewSystem returns an empty system bound to reg (consulted/extended via
// DiscoverFromObject for unknown classes) and isEnum (an enum-name
// membership test, typically names.EnumRegistry.IsEnum).
func NewSystem(reg *BlueprintRegistry, isEnum prop.IsEnumFunc) *System {
	return &System{pool: newLocalPool(), blueprints: reg, isEnum: isEnum}
}

// Objects returns every object loaded into (or added to) the system, in
// object-table order.
func (sys *System) Objects() []*prop.Object { return sys.objects }

// ResolveHandle looks up the object at a Value.Handle index. idx < 0
// represents a null handle.
func (sys *System) ResolveHandle(idx int32) (*prop.Object, bool) {
	if idx < 0 || int(idx) >= len(sys.objects) {
		return nil, false
	}
	return sys.objects[idx], true
}

// AddObject appends obj to the object table and returns its handle index,
// for callers building a system programmatically rather than loading one.
func (sys *System) AddObject(obj *prop.Object) int32 {
	sys.objects = append(sys.objects, obj)
	sys.classNames = append(sys.classNames, obj.ClassName)
	return int32(len(sys.objects) - 1)
}

// objectTableEntry is the on-disk object table record: a class-name pool
// index and an explicit blob size. A size field is not spelled out by
// name in the source documentation, but one is required for the
// documented "last field reads to end-of-object" rule to have any
// concrete end to read to, and for the loader to know where the next
// table entry begins; every sibling container format in this module
// (archive segments, CSAV node descriptors) carries an explicit size
// alongside its offset for the same reason.
type objectTableEntry struct {
	classNameIdx uint16
	blobSize     uint32
}

// Load parses a system-local scope (string pool, then object table) from
// r: string pool, then iterate the object table instantiating each
// object's class via the blueprint registry and parsing its bytes
// recursively (spec §4.K Read).
func Load(r io.ReadSeeker, reg *BlueprintRegistry, isEnum prop.IsEnumFunc) (*System, error) {
	sys := NewSystem(reg, isEnum)
	s := bstream.NewReader(r)

	poolCount := s.U32(0)
	if s.HasError() {
		return nil, s.Err()
	}
	pool, err := decodeLocalPoolFromStream(s, int(poolCount))
	if err != nil {
		return nil, err
	}
	sys.pool = pool

	objCount := s.U32(0)
	if s.HasError() {
		return nil, s.Err()
	}
	entries := make([]objectTableEntry, objCount)
	for i := range entries {
		entries[i] = objectTableEntry{
			classNameIdx: s.U16(0),
			blobSize:     s.U32(0),
		}
	}
	if s.HasError() {
		return nil, s.Err()
	}

	sys.objects = make([]*prop.Object, objCount)
	sys.classNames = make([]string, objCount)
	for i, e := range entries {
		className, err := sys.pool.at(e.classNameIdx)
		if err != nil {
			return nil, err
		}
		sys.classNames[i] = className
		blobStart := s.Tell()
		blobEnd := blobStart + int64(e.blobSize)
		obj, err := sys.decodeObject(s, className, blobEnd)
		if err != nil {
			return nil, fmt.Errorf("objsys: object %d (%s): %w", i, className, err)
		}
		sys.objects[i] = obj
		s.Seek(blobEnd)
	}
	return sys, s.Err()
}

// Save serializes the system back to its on-disk layout (pool, then
// object table). Field/class names are interned into the pool while each
// object is encoded, so the pool's final contents aren't known until every
// object has been serialized once; each object is therefore encoded into
// a scratch buffer first, and only once that pass completes is the pool
// (now complete) written out, followed by the object table and the
// scratch blobs, matching spec §4.K Write's "emit the string pool... so
// its size is known, then rewrite a short header fixing pool size".
func (sys *System) Save(w io.WriteSeeker) error {
	type encodedObj struct {
		classNameIdx uint16
		blob         []byte
	}
	encoded := make([]encodedObj, len(sys.objects))
	for i, obj := range sys.objects {
		var buf writerseeker.WriterSeeker
		bs := bstream.NewWriter(&buf)
		if err := sys.encodeObject(bs, obj); err != nil {
			return fmt.Errorf("objsys: object %d (%s): %w", i, obj.ClassName, err)
		}
		blob, err := io.ReadAll(buf.BytesReader())
		if err != nil {
			return fmt.Errorf("objsys: object %d (%s): %w", i, obj.ClassName, err)
		}
		encoded[i] = encodedObj{classNameIdx: sys.pool.intern(obj.ClassName), blob: blob}
	}

	s := bstream.NewWriter(w)
	poolBytes := sys.pool.encode()
	s.U32(uint32(len(sys.pool.strings)))
	s.WriteBytes(poolBytes)

	s.U32(uint32(len(encoded)))
	for _, e := range encoded {
		s.U16(e.classNameIdx)
		s.U32(uint32(len(e.blob)))
	}
	for _, e := range encoded {
		s.WriteBytes(e.blob)
	}
	return s.Err()
}
