package prop

// CRUID is an opaque 8-byte content-runtime identifier (CPropertyBase.hpp
// gives it its own concrete shape rather than folding it into the
// generic opaque-bytes fallback).
type CRUID [8]byte

// Equal compares two CRUIDs byte-for-byte.
func (c CRUID) Equal(o CRUID) bool { return c == o }

// NodeRef is a length-prefixed string identifying a scene node; unlike
// CRUID it has variable length on disk, hence its own type rather than a
// fixed-size array.
type NodeRef string

// Equal compares two NodeRefs.
func (n NodeRef) Equal(o NodeRef) bool { return n == o }

// Value holds one property's payload. Exactly one of the typed fields is
// meaningful, selected by Type.Kind (and Type.Primitive for scalars).
type Value struct {
	Type *TypeName

	Bool      bool
	Int       int64  // Int8..Int64
	Uint      uint64 // Uint8..Uint64
	Float32   float32
	Float64   float64
	CName     uint64 // 64-bit hash
	TweakDBID uint64 // 8 bytes, 5 significant (see internal/names.TweakDBID.AsU64)
	CRUID     CRUID
	NodeRef   NodeRef

	Object   *Object // inline nested object
	Handle   int32   // index into the enclosing system's object table, -1 if null
	Elements []Value // Array / DynArray / FixedArray

	// Unknown holds the opaque byte blob for a property whose type name
	// could not be resolved against the schema; it is always serialized
	// verbatim regardless of skippability.
	Unknown []byte

	freshlyConstructed bool
	unskippable        bool
}

// Object is a property-bearing instance of a class, keyed by field name.
type Object struct {
	ClassName string
	Fields    map[string]*Value
	// FieldOrder preserves the class blueprint's declared field order
	// (parent fields first), which write-back depends on.
	FieldOrder []string
}

// NewValue constructs a freshly-default-constructed property of the given
// type: freshly_constructed = true, unskippable = false.
func NewValue(t *TypeName) *Value {
	return &Value{Type: t, Handle: -1, freshlyConstructed: true}
}

// NewUnknownValue constructs the opaque fallback for an unresolvable type
// name; it is never treated as freshly constructed because it must
// always round-trip its raw bytes regardless of edits.
func NewUnknownValue(raw []byte) *Value {
	return &Value{Unknown: append([]byte(nil), raw...), unskippable: true}
}

// MarkEdited clears freshly_constructed: an edited property is always
// written out from this point on.
func (v *Value) MarkEdited() {
	v.freshlyConstructed = false
}

// MarkReadIn sets unskippable: a property that has been serialized-in at
// least once is always present on subsequent writes.
func (v *Value) MarkReadIn() {
	v.unskippable = true
}

// Skippable reports whether v may be omitted from a write. A property is
// skippable iff it is neither unskippable nor holds a non-default value
// and has not been edited since construction (spec §4.J).
func (v *Value) Skippable(isDefault bool) bool {
	if v.unskippable {
		return false
	}
	if !v.freshlyConstructed {
		return false
	}
	return isDefault
}
