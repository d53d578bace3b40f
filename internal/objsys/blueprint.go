// Package objsys implements the object+system serializer: per-object
// field descriptor tables with last-field-read-first sub-streaming, a
// system-local string pool and object table, and handle resolution
// against that table after all objects are loaded (allowing cycles).
package objsys

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/xerrors"
)

// FieldDesc is one declared field of a class blueprint: its name and
// on-disk type-name string.
type FieldDesc struct {
	Name     string
	TypeName string
}

// Blueprint is a class's ordered field list, parent fields first.
type Blueprint struct {
	ClassName string
	Fields    []FieldDesc // fully resolved, including inherited fields
}

// BlueprintRegistry holds class blueprints sourced from the shipped JSON
// schema, plus any synthesized on the fly when an unknown class is
// encountered during load (spec §3.5: "classes may be discovered on the
// fly when an unknown class is encountered").
type BlueprintRegistry struct {
	byName map[string]*Blueprint
}

// NewBlueprintRegistry returns an empty registry.
func NewBlueprintRegistry() *BlueprintRegistry {
	return &BlueprintRegistry{byName: make(map[string]*Blueprint)}
}

// jsonClassDef mirrors one entry of CObjectBPs.json: a class's own
// (non-inherited) fields plus its parent class name, if any.
type jsonClassDef struct {
	Parent string         `json:"parent"`
	Fields []jsonFieldDef `json:"fields"`
}

type jsonFieldDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoadBlueprints reads CObjectBPs.json (a map of class name to its own
// fields and parent class) and resolves full, inheritance-flattened field
// lists (parent fields first).
func LoadBlueprints(path string) (*BlueprintRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewBlueprintRegistry(), nil
		}
		return nil, xerrors.Errorf("objsys: reading %s: %w", path, err)
	}
	var raw map[string]jsonClassDef
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, xerrors.Errorf("objsys: parsing %s: %w", path, err)
	}

	reg := NewBlueprintRegistry()
	var resolve func(name string, seen map[string]bool) (*Blueprint, error)
	resolve = func(name string, seen map[string]bool) (*Blueprint, error) {
		if bp, ok := reg.byName[name]; ok {
			return bp, nil
		}
		if seen[name] {
			return nil, fmt.Errorf("objsys: inheritance cycle at class %q", name)
		}
		seen[name] = true
		def, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("objsys: class %q not found in blueprint schema", name)
		}
		var fields []FieldDesc
		if def.Parent != "" {
			parent, err := resolve(def.Parent, seen)
			if err != nil {
				return nil, err
			}
			fields = append(fields, parent.Fields...)
		}
		for _, f := range def.Fields {
			fields = append(fields, FieldDesc{Name: f.Name, TypeName: f.Type})
		}
		bp := &Blueprint{ClassName: name, Fields: fields}
		reg.byName[name] = bp
		return bp, nil
	}

	for name := range raw {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Lookup returns the blueprint for className, if registered.
func (r *BlueprintRegistry) Lookup(className string) (*Blueprint, bool) {
	bp, ok := r.byName[className]
	return bp, ok
}

// Register adds or replaces a fully-resolved blueprint, for callers that
// build a schema programmatically rather than loading CObjectBPs.json.
func (r *BlueprintRegistry) Register(bp *Blueprint) {
	r.byName[bp.ClassName] = bp
}

// DiscoverFromObject synthesizes a blueprint for an unknown class from
// the field names/types actually encountered while parsing one instance
// of it, and registers it for subsequent objects of the same class in
// this load. The discovered field order matches encounter order, which
// is the best available approximation absent a real schema entry; a
// later write-back of such an object remains bit-identical only because
// every field round-trips through the same per-field byte ranges it was
// read from, independent of this synthesized order.
func (r *BlueprintRegistry) DiscoverFromObject(className string, fields []FieldDesc) *Blueprint {
	if bp, ok := r.byName[className]; ok {
		return bp
	}
	bp := &Blueprint{ClassName: className, Fields: append([]FieldDesc(nil), fields...)}
	r.byName[className] = bp
	return bp
}
