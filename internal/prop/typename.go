// Package prop implements the typed property model: type-name grammar
// parsing and the property value kinds that make up an object's fields.
package prop

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeKind classifies a parsed type name.
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindEnum
	KindObject
	KindHandle
	// KindDynArray covers both Array<T> and DynArray<T> from the schema:
	// both share the on-disk "array:T" shape (count then count*T); the
	// Array/DynArray distinction lives in the class blueprint, not here.
	KindDynArray
	KindFixedArray
)

// Primitive enumerates the scalar property payload kinds.
type Primitive int

const (
	PrimBool Primitive = iota
	PrimInt8
	PrimInt16
	PrimInt32
	PrimInt64
	PrimUint8
	PrimUint16
	PrimUint32
	PrimUint64
	PrimFloat
	PrimDouble
	PrimCName
	PrimTweakDBID
	PrimCRUID
	PrimNodeRef
)

var primitiveNames = map[string]Primitive{
	"Bool":       PrimBool,
	"Int8":       PrimInt8,
	"Int16":      PrimInt16,
	"Int32":      PrimInt32,
	"Int64":      PrimInt64,
	"Uint8":      PrimUint8,
	"Uint16":     PrimUint16,
	"Uint32":     PrimUint32,
	"Uint64":     PrimUint64,
	"Float":      PrimFloat,
	"Double":     PrimDouble,
	"CName":      PrimCName,
	"TweakDBID":  PrimTweakDBID,
	"CRUID":      PrimCRUID,
	"NodeRef":    PrimNodeRef,
}

// HandleKind distinguishes strong vs weak object references; both share
// the same on-disk shape (an object-table index) but differ in schema
// semantics.
type HandleKind int

const (
	HandleStrong HandleKind = iota // "handle:T"
	HandleRRef                     // "rRef:T"
	HandleRaRef                    // "raRef:T"
)

// TypeName is the parsed form of a property's on-disk type string.
type TypeName struct {
	Kind TypeKind

	// KindPrimitive
	Primitive Primitive

	// KindEnum / KindObject: the registered name.
	ClassOrEnumName string

	// KindHandle
	HandleKind HandleKind

	// KindHandle / KindDynArray / KindFixedArray: element (or referenced) type.
	Elem *TypeName

	// KindFixedArray
	FixedLen int
}

// IsEnum is consulted by the parser against a live enum registry (the
// json-seeded EnumRegistry in internal/names) to disambiguate an object
// name from an enum name; ParseTypeName takes it as a callback so prop
// stays independent of internal/names.
type IsEnumFunc func(name string) bool

// ParseTypeName parses a type-name string per the grammar:
//
//	"[N]T"                      -> fixed array of length N over T
//	"array:T"                   -> dynamic array of T
//	"handle:T" "rRef:T" "raRef:T" -> handle/reference to T
//	one of the primitive names  -> primitive
//	a name registered as an enum -> enum
//	anything else               -> object of that class name
func ParseTypeName(s string, isEnum IsEnumFunc) (*TypeName, error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("prop: malformed fixed array type %q: missing ']'", s)
		}
		n, err := strconv.Atoi(s[1:end])
		if err != nil {
			return nil, fmt.Errorf("prop: malformed fixed array length in %q: %w", s, err)
		}
		elem, err := ParseTypeName(s[end+1:], isEnum)
		if err != nil {
			return nil, err
		}
		return &TypeName{Kind: KindFixedArray, FixedLen: n, Elem: elem}, nil
	}
	if rest, ok := strings.CutPrefix(s, "array:"); ok {
		elem, err := ParseTypeName(rest, isEnum)
		if err != nil {
			return nil, err
		}
		return &TypeName{Kind: KindDynArray, Elem: elem}, nil
	}
	for prefix, hk := range map[string]HandleKind{
		"handle:": HandleStrong,
		"rRef:":   HandleRRef,
		"raRef:":  HandleRaRef,
	} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			elem, err := ParseTypeName(rest, isEnum)
			if err != nil {
				return nil, err
			}
			return &TypeName{Kind: KindHandle, HandleKind: hk, Elem: elem}, nil
		}
	}
	if p, ok := primitiveNames[s]; ok {
		return &TypeName{Kind: KindPrimitive, Primitive: p}, nil
	}
	if isEnum != nil && isEnum(s) {
		return &TypeName{Kind: KindEnum, ClassOrEnumName: s}, nil
	}
	return &TypeName{Kind: KindObject, ClassOrEnumName: s}, nil
}

// String renders the type name back to its on-disk grammar form.
func (t *TypeName) String() string {
	switch t.Kind {
	case KindFixedArray:
		return fmt.Sprintf("[%d]%s", t.FixedLen, t.Elem.String())
	case KindDynArray:
		return "array:" + t.Elem.String()
	case KindHandle:
		switch t.HandleKind {
		case HandleRRef:
			return "rRef:" + t.Elem.String()
		case HandleRaRef:
			return "raRef:" + t.Elem.String()
		default:
			return "handle:" + t.Elem.String()
		}
	case KindPrimitive:
		for name, p := range primitiveNames {
			if p == t.Primitive {
				return name
			}
		}
		return "Unknown"
	default:
		return t.ClassOrEnumName
	}
}
