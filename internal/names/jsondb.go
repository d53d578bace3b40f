package names

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// EnumRegistry maps an enum type name to its ordered value names, loaded
// from db/CEnums.json ({"TypeName": ["Value0", "Value1", ...]}).
type EnumRegistry struct {
	values map[string][]string
}

// NewEnumRegistry returns an empty registry.
func NewEnumRegistry() *EnumRegistry { return &EnumRegistry{values: map[string][]string{}} }

// IsEnum reports whether typeName was registered as an enum type.
func (r *EnumRegistry) IsEnum(typeName string) bool {
	_, ok := r.values[typeName]
	return ok
}

// Values returns the ordered value names for typeName.
func (r *EnumRegistry) Values(typeName string) []string { return r.values[typeName] }

func (r *EnumRegistry) feed(m map[string][]string) {
	for k, v := range m {
		r.values[k] = v
	}
}

// LoadResult carries what LoadDatabases seeded, so the caller (e.g. the
// cptk CLI) can report which of the four JSON files were found.
type LoadResult struct {
	Enums            *EnumRegistry
	TweakDBIDsLoaded bool
	CNamesLoaded     bool
	CEnumsLoaded     bool
	CFactsLoaded     bool
}

// LoadDatabases reads db/TweakDBIDs.json, db/CNames.json, db/CEnums.json and
// the optional db/CFacts.json from dir, seeding the process-wide resolvers.
// The four files are loaded concurrently (golang.org/x/sync/errgroup) since
// they are independent and startup latency otherwise stacks four sequential
// file reads. A missing file degrades the corresponding lookups to
// placeholder rendering rather than halting, per spec §6.5; any other I/O
// or parse error is returned.
func LoadDatabases(dir string) (*LoadResult, error) {
	res := &LoadResult{Enums: NewEnumRegistry()}
	var g errgroup.Group

	g.Go(func() error {
		names, found, err := loadStringArray(filepath.Join(dir, "TweakDBIDs.json"))
		if err != nil {
			return xerrors.Errorf("TweakDBIDs.json: %w", err)
		}
		if found {
			SeedTweakDBIDs(names)
			res.TweakDBIDsLoaded = true
		}
		return nil
	})

	g.Go(func() error {
		names, found, err := loadStringArray(filepath.Join(dir, "CNames.json"))
		if err != nil {
			return xerrors.Errorf("CNames.json: %w", err)
		}
		if found {
			SeedCNames(names)
			res.CNamesLoaded = true
		}
		return nil
	})

	g.Go(func() error {
		m, found, err := loadEnumMap(filepath.Join(dir, "CEnums.json"))
		if err != nil {
			return xerrors.Errorf("CEnums.json: %w", err)
		}
		if found {
			res.Enums.feed(m)
			res.CEnumsLoaded = true
		}
		return nil
	})

	g.Go(func() error {
		// CFacts.json: optional fourth database (present in the original
		// cpnames.cpp loader, dropped from the distilled spec's "optional"
		// framing but kept here — see SPEC_FULL.md §[B]).
		names, found, err := loadStringArray(filepath.Join(dir, "CFacts.json"))
		if err != nil {
			return xerrors.Errorf("CFacts.json: %w", err)
		}
		if found {
			SeedCNames(names) // facts resolve through the same CName space
			res.CFactsLoaded = true
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func loadStringArray(path string) ([]string, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, false, err
	}
	return names, true, nil
}

func loadEnumMap(path string) (map[string][]string, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m map[string][]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}
