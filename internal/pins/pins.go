// Package pins parses a pins.toml override file letting an operator force a
// specific version for a package name during closure expansion, ahead of
// the resolver's own highest-version-wins rule.
package pins

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/aptgo/apt-go/internal/aptcore"
)

// tomlMapper carries a sticky first error across a chain of reads, the same
// shape golang-dep's Gopkg.toml decoder uses so that a malformed table is
// reported once at the end rather than at the first field that touches it.
type tomlMapper struct {
	Tree  *toml.TomlTree
	Error error
}

// Pin forces name to resolve to Version regardless of what else is indexed.
type Pin struct {
	Name    string
	Version aptcore.Version
}

// Load parses a pins.toml file of the form:
//
//	[[pin]]
//	name = "libfoo"
//	version = "2:1.4-3"
func Load(path string) ([]Pin, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	mapper := &tomlMapper{Tree: tree}
	pins := readPinTable(mapper, "pin")
	if mapper.Error != nil {
		return nil, errors.Wrapf(mapper.Error, "mapping %s", path)
	}
	return pins, nil
}

func readPinTable(mapper *tomlMapper, table string) []Pin {
	if mapper.Error != nil {
		return nil
	}

	query, err := mapper.Tree.Query("$." + table)
	if err != nil {
		mapper.Error = errors.Wrapf(err, "querying [[%s]]", table)
		return nil
	}

	matches := query.Values()
	if len(matches) == 0 {
		return nil
	}

	tables, ok := matches[0].([]*toml.TomlTree)
	if !ok {
		mapper.Error = errors.Errorf("invalid type for [[%s]], expected table array, got %T", table, matches[0])
		return nil
	}

	out := make([]Pin, 0, len(tables))
	for _, t := range tables {
		name := readString(mapper, t, "name")
		versionStr := readString(mapper, t, "version")
		if mapper.Error != nil {
			return nil
		}
		v, err := aptcore.ParseVersion(versionStr)
		if err != nil {
			mapper.Error = errors.Wrapf(err, "pin for %q has malformed version %q", name, versionStr)
			return nil
		}
		out = append(out, Pin{Name: name, Version: v})
	}
	return out
}

func readString(mapper *tomlMapper, t *toml.TomlTree, key string) string {
	if mapper.Error != nil {
		return ""
	}
	raw := t.GetDefault(key, "")
	s, ok := raw.(string)
	if !ok {
		mapper.Error = errors.Errorf("invalid type for %q, expected string, got %T", key, raw)
		return ""
	}
	return s
}

// ApplyTo overrides u's candidates for every pinned name found among
// allVersions, the full (non-deduplicated) candidate pool gathered during
// ingestion. A pin naming a version absent from allVersions is a no-op: the
// universe keeps whatever highest-version candidate it already selected.
func ApplyTo(u *aptcore.CandidateUniverse, pinList []Pin, allVersions map[string][]aptcore.PackageWithSource) {
	for _, p := range pinList {
		for _, candidate := range allVersions[p.Name] {
			if candidate.Package.Version.Equal(p.Version) {
				u.Override(candidate.Package, candidate.Source)
				break
			}
		}
	}
}
