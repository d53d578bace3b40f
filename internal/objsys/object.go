package objsys

import (
	"fmt"

	"github.com/pixelrick/cptk/internal/bstream"
	"github.com/pixelrick/cptk/internal/prop"
)

// fieldDesc is the on-disk descriptor entry: { name_idx, type_idx,
// data_offset }, all relative to the enclosing object's start.
type fieldDesc struct {
	nameIdx    uint16
	typeIdx    uint16
	dataOffset uint32
}

// decodeObject parses one object_blob spanning [objStart, blobEnd) and
// instantiates className's fields. The original reader visits the last
// descriptor first so its payload, which may be unknown-typed and greedy,
// can be read to end-of-object, then bounds each earlier field by the
// next descriptor's data_offset. Since blobEnd is known up front here (the
// object table entry records each blob's size), every field's end is
// already determined before any payload is read, so the two traversal
// orders parse identical byte ranges; this walks the descriptors forward
// for clarity.
func (sys *System) decodeObject(s *bstream.Stream, className string, blobEnd int64) (*prop.Object, error) {
	objStart := s.Tell()
	fieldCount := s.U16(0)
	if s.HasError() {
		return nil, s.Err()
	}

	descs := make([]fieldDesc, fieldCount)
	for i := range descs {
		descs[i] = fieldDesc{
			nameIdx:    s.U16(0),
			typeIdx:    s.U16(0),
			dataOffset: s.U32(0),
		}
	}
	if s.HasError() {
		return nil, s.Err()
	}

	obj := sys.instantiateDefaults(className, int(fieldCount))
	hasDefaultOrder := len(obj.FieldOrder) > 0
	encountered := make([]FieldDesc, fieldCount)

	for i, d := range descs {
		name, err := sys.pool.at(d.nameIdx)
		if err != nil {
			return nil, err
		}
		typeStr, err := sys.pool.at(d.typeIdx)
		if err != nil {
			return nil, err
		}
		encountered[i] = FieldDesc{Name: name, TypeName: typeStr}

		fieldStart := objStart + int64(d.dataOffset)
		fieldEnd := blobEnd
		if i+1 < len(descs) {
			fieldEnd = objStart + int64(descs[i+1].dataOffset)
		}

		s.Seek(fieldStart)
		tn, perr := prop.ParseTypeName(typeStr, sys.isEnum)
		var val *prop.Value
		if perr != nil {
			raw, rerr := readBoundedRaw(s, fieldEnd)
			if rerr != nil {
				return nil, rerr
			}
			val = prop.NewUnknownValue(raw)
		} else {
			val, err = sys.decodeValue(s, tn, fieldEnd)
			if err != nil {
				return nil, err
			}
		}
		obj.Fields[name] = val
		if !hasDefaultOrder {
			obj.FieldOrder = append(obj.FieldOrder, name)
		}
	}

	if bp, ok := sys.blueprints.Lookup(className); !ok || len(bp.Fields) == 0 {
		sys.blueprints.DiscoverFromObject(className, encountered)
	}

	s.Seek(blobEnd)
	return obj, nil
}

// instantiateDefaults creates className's fields in default state per its
// registered blueprint (spec §4.K Read: "instantiate the object (which
// creates all declared fields in default state)"), so that fields omitted
// from the blob — because they were skippable when last written — still
// read back as their type's default rather than being absent. Unknown
// classes get a bare object with no fields; decodeObject, the caller, fills
// them in from whatever descriptors are actually present and registers a
// discovered blueprint once the object_blob has been read.
func (sys *System) instantiateDefaults(className string, fieldHint int) *prop.Object {
	obj := &prop.Object{ClassName: className, Fields: make(map[string]*prop.Value, fieldHint)}
	bp, ok := sys.blueprints.Lookup(className)
	if !ok {
		return obj
	}
	for _, f := range bp.Fields {
		tn, err := prop.ParseTypeName(f.TypeName, sys.isEnum)
		if err != nil {
			continue
		}
		obj.Fields[f.Name] = prop.NewValue(tn)
		obj.FieldOrder = append(obj.FieldOrder, f.Name)
	}
	return obj
}

// readBoundedRaw reads from s's current position up to the absolute
// offset end.
func readBoundedRaw(s *bstream.Stream, end int64) ([]byte, error) {
	start := s.Tell()
	n := end - start
	if n < 0 {
		return nil, fmt.Errorf("objsys: field range end %d precedes start %d", end, start)
	}
	buf := make([]byte, n)
	s.ReadBytes(buf)
	if s.HasError() {
		return nil, s.Err()
	}
	return buf, nil
}

// encodeObject writes obj back out in field_count / descriptor-table /
// payload order, back-patching data_offset once every payload's length is
// known (spec §4.K Write).
func (sys *System) encodeObject(s *bstream.Stream, obj *prop.Object) error {
	bp, ok := sys.blueprints.Lookup(obj.ClassName)
	if !ok {
		return fmt.Errorf("objsys: no blueprint for class %q", obj.ClassName)
	}

	objStart := s.Tell()

	type pending struct {
		nameIdx, typeIdx uint16
		typeName         string
		val              *prop.Value
	}
	var write []pending
	for _, f := range bp.Fields {
		val, ok := obj.Fields[f.Name]
		if !ok {
			continue
		}
		if val.Unknown == nil {
			tn, err := prop.ParseTypeName(f.TypeName, sys.isEnum)
			if err == nil && val.Skippable(isDefaultValue(tn, val)) {
				continue
			}
		}
		write = append(write, pending{
			nameIdx:  sys.pool.intern(f.Name),
			typeIdx:  sys.pool.intern(f.TypeName),
			typeName: f.TypeName,
			val:      val,
		})
	}

	s.U16(uint16(len(write)))
	descStart := s.Tell()
	s.WriteBytes(make([]byte, 8*len(write)))

	offsets := make([]uint32, len(write))
	for i, p := range write {
		offsets[i] = uint32(s.Tell() - objStart)
		if p.val.Unknown != nil {
			s.WriteBytes(p.val.Unknown)
			continue
		}
		tn, err := prop.ParseTypeName(p.typeName, sys.isEnum)
		if err != nil {
			return err
		}
		if err := sys.encodeValue(s, tn, p.val); err != nil {
			return err
		}
	}
	objEnd := s.Tell()

	s.Seek(descStart)
	for i, p := range write {
		s.U16(p.nameIdx)
		s.U16(p.typeIdx)
		s.U32(offsets[i])
	}
	s.Seek(objEnd)
	return s.Err()
}
