package objsys

import (
	"fmt"

	"github.com/pixelrick/cptk/internal/bstream"
	"github.com/pixelrick/cptk/internal/prop"
)

// decodeValue reads one property's payload from s according to t. Handle
// values are left as raw object-table indices (prop.Value.Handle); the
// caller resolves them against sys.objects on demand via ResolveHandle,
// which is all "resolution" means once the handle is stored as a plain
// index — no pointer-patching pass is needed, so cycles and forward
// references just work (spec §4.K).
func (sys *System) decodeValue(s *bstream.Stream, t *prop.TypeName, blobEnd int64) (*prop.Value, error) {
	v := prop.NewValue(t)
	v.MarkReadIn()
	switch t.Kind {
	case prop.KindPrimitive:
		decodePrimitive(s, t, v)
	case prop.KindEnum:
		v.CName = s.U64(0)
	case prop.KindHandle:
		v.Handle = s.I32(0)
	case prop.KindFixedArray:
		v.Elements = make([]prop.Value, t.FixedLen)
		for i := range v.Elements {
			ev, err := sys.decodeValue(s, t.Elem, blobEnd)
			if err != nil {
				return nil, err
			}
			v.Elements[i] = *ev
		}
	case prop.KindDynArray:
		n := s.U32(0)
		v.Elements = make([]prop.Value, n)
		for i := range v.Elements {
			ev, err := sys.decodeValue(s, t.Elem, blobEnd)
			if err != nil {
				return nil, err
			}
			v.Elements[i] = *ev
		}
	case prop.KindObject:
		obj, err := sys.decodeObject(s, t.ClassOrEnumName, blobEnd)
		if err != nil {
			return nil, err
		}
		v.Object = obj
	default:
		return nil, fmt.Errorf("objsys: unhandled type kind %v", t.Kind)
	}
	if s.HasError() {
		return nil, s.Err()
	}
	return v, nil
}

func decodePrimitive(s *bstream.Stream, t *prop.TypeName, v *prop.Value) {
	switch t.Primitive {
	case prop.PrimBool:
		v.Bool = s.Bool(false)
	case prop.PrimInt8:
		v.Int = int64(int8(s.U8(0)))
	case prop.PrimInt16:
		v.Int = int64(int16(s.U16(0)))
	case prop.PrimInt32:
		v.Int = int64(s.I32(0))
	case prop.PrimInt64:
		v.Int = s.I64(0)
	case prop.PrimUint8:
		v.Uint = uint64(s.U8(0))
	case prop.PrimUint16:
		v.Uint = uint64(s.U16(0))
	case prop.PrimUint32:
		v.Uint = uint64(s.U32(0))
	case prop.PrimUint64:
		v.Uint = s.U64(0)
	case prop.PrimFloat:
		v.Float32 = s.F32(0)
	case prop.PrimDouble:
		v.Float64 = s.F64(0)
	case prop.PrimCName:
		v.CName = s.U64(0)
	case prop.PrimTweakDBID:
		v.TweakDBID = s.U64(0)
	case prop.PrimCRUID:
		s.ReadBytes(v.CRUID[:])
	case prop.PrimNodeRef:
		v.NodeRef = prop.NodeRef(s.String(""))
	default:
		s.SetError(fmt.Errorf("objsys: unhandled primitive %v", t.Primitive))
	}
}

// encodeValue mirrors decodeValue in writer mode.
func (sys *System) encodeValue(s *bstream.Stream, t *prop.TypeName, v *prop.Value) error {
	switch t.Kind {
	case prop.KindPrimitive:
		encodePrimitive(s, t, v)
	case prop.KindEnum:
		s.U64(v.CName)
	case prop.KindHandle:
		s.I32(v.Handle)
	case prop.KindFixedArray, prop.KindDynArray:
		if t.Kind == prop.KindDynArray {
			s.U32(uint32(len(v.Elements)))
		}
		for i := range v.Elements {
			if err := sys.encodeValue(s, t.Elem, &v.Elements[i]); err != nil {
				return err
			}
		}
	case prop.KindObject:
		if err := sys.encodeObject(s, v.Object); err != nil {
			return err
		}
	default:
		return fmt.Errorf("objsys: unhandled type kind %v", t.Kind)
	}
	if s.HasError() {
		return s.Err()
	}
	return nil
}

func encodePrimitive(s *bstream.Stream, t *prop.TypeName, v *prop.Value) {
	switch t.Primitive {
	case prop.PrimBool:
		s.Bool(v.Bool)
	case prop.PrimInt8:
		s.U8(uint8(int8(v.Int)))
	case prop.PrimInt16:
		s.U16(uint16(int16(v.Int)))
	case prop.PrimInt32:
		s.I32(int32(v.Int))
	case prop.PrimInt64:
		s.I64(v.Int)
	case prop.PrimUint8:
		s.U8(uint8(v.Uint))
	case prop.PrimUint16:
		s.U16(uint16(v.Uint))
	case prop.PrimUint32:
		s.U32(uint32(v.Uint))
	case prop.PrimUint64:
		s.U64(v.Uint)
	case prop.PrimFloat:
		s.F32(v.Float32)
	case prop.PrimDouble:
		s.F64(v.Float64)
	case prop.PrimCName:
		s.U64(v.CName)
	case prop.PrimTweakDBID:
		s.U64(v.TweakDBID)
	case prop.PrimCRUID:
		s.WriteBytes(v.CRUID[:])
	case prop.PrimNodeRef:
		s.String(string(v.NodeRef))
	default:
		s.SetError(fmt.Errorf("objsys: unhandled primitive %v", t.Primitive))
	}
}

// isDefaultValue reports whether v still holds its type's default, for the
// Skippable(isDefault) check (spec §4.J / §8 property 11). Object and
// handle properties are considered default only when unset/null, which is
// the state NewValue leaves them in.
func isDefaultValue(t *prop.TypeName, v *prop.Value) bool {
	switch t.Kind {
	case prop.KindPrimitive:
		switch t.Primitive {
		case prop.PrimBool:
			return !v.Bool
		case prop.PrimInt8, prop.PrimInt16, prop.PrimInt32, prop.PrimInt64:
			return v.Int == 0
		case prop.PrimUint8, prop.PrimUint16, prop.PrimUint32, prop.PrimUint64:
			return v.Uint == 0
		case prop.PrimFloat:
			return v.Float32 == 0
		case prop.PrimDouble:
			return v.Float64 == 0
		case prop.PrimCName:
			return v.CName == 0
		case prop.PrimTweakDBID:
			return v.TweakDBID == 0
		case prop.PrimCRUID:
			return v.CRUID == prop.CRUID{}
		case prop.PrimNodeRef:
			return v.NodeRef == ""
		}
	case prop.KindEnum:
		return v.CName == 0
	case prop.KindHandle:
		return v.Handle < 0
	case prop.KindFixedArray, prop.KindDynArray:
		return len(v.Elements) == 0
	case prop.KindObject:
		return v.Object == nil
	}
	return false
}
