package aptcore

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// InstalledState mirrors the dpkg-style package states recorded in the
// status database. Only StateInstalled counts as "present" for dependency
// satisfaction (spec §3).
type InstalledState int

const (
	StateUnknown InstalledState = iota
	StateNotInstalled
	StateUnpacked
	StateHalfConfigured
	StateHalfInstalled
	StateConfigFiles
	StatePostInstFailed
	StateRemovalFailed
	StateRemoved
	StateInstalled
)

var stateNames = map[string]InstalledState{
	"not-installed":    StateNotInstalled,
	"unpacked":         StateUnpacked,
	"half-configured":  StateHalfConfigured,
	"half-installed":   StateHalfInstalled,
	"config-files":     StateConfigFiles,
	"post-inst-failed": StatePostInstFailed,
	"removal-failed":   StateRemovalFailed,
	"removed":          StateRemoved,
	"installed":        StateInstalled,
}

// InstalledStatus is the (want, flag, state) triple parsed from a dpkg-style
// "Status: want flag state" field.
type InstalledStatus struct {
	Want  string
	Flag  string
	State InstalledState
}

// IngestMode selects which fields must be present for a paragraph to be
// accepted, per spec §4.3.
type IngestMode int

const (
	ModeBinary IngestMode = iota
	ModeSource
	ModeStatus
)

// Package is the ingested record for one paragraph of an index or status
// file.
type Package struct {
	Name         string
	Version      Version
	Architecture string
	Priority     string
	Section      string
	Maintainer   string
	Filename     string
	Size         int64
	MD5Sum       string
	SHA1         string
	SHA256       string
	Description  string
	Conffiles    []string
	Depends      []DependencyClause
	Status       *InstalledStatus
}

// multiLineContinuationFields names the unknown multi-line fields whose continuation
// lines must be skipped rather than folded into a scalar value (spec §4.3).
var multiLineContinuationFields = map[string]bool{
	"files":            true,
	"checksums-sha1":   true,
	"checksums-sha256": true,
	"checksums-md5":    true,
	"package-list":     true,
}

// paragraph holds one RFC822-style paragraph (blank-line separated,
// continuation lines beginning with a space) of an index or status file, as
// produced by readParagraphs.
type paragraph struct {
	fields map[string][]string // field name (lowercased) -> lines (first line + continuations)
}

func readParagraphs(r io.Reader) ([]paragraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var paragraphs []paragraph
	var cur paragraph
	var curField string
	var inMultiline bool

	flush := func() {
		if cur.fields != nil {
			paragraphs = append(paragraphs, cur)
		}
		cur = paragraph{}
		curField = ""
		inMultiline = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if (line[0] == ' ' || line[0] == '\t') && curField != "" {
			if cur.fields == nil {
				return nil, errors.New("continuation line with no preceding field")
			}
			if inMultiline && multiLineContinuationFields[curField] {
				continue
			}
			cur.fields[curField] = append(cur.fields[curField], strings.TrimPrefix(line, " "))
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, errors.Errorf("malformed field line: %q", line)
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])

		if cur.fields == nil {
			cur.fields = make(map[string][]string)
		}
		cur.fields[name] = []string{value}
		curField = name
		inMultiline = multiLineContinuationFields[name]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning paragraphs")
	}
	flush()
	return paragraphs, nil
}

func (p paragraph) get(name string) (string, bool) {
	lines, ok := p.fields[name]
	if !ok || len(lines) == 0 {
		return "", false
	}
	return lines[0], true
}

func (p paragraph) getMultiline(name string) []string {
	lines, ok := p.fields[name]
	if !ok || len(lines) <= 1 {
		return nil
	}
	return lines[1:]
}

// IngestReader parses all paragraphs in r under the given mode, returning
// one Package per accepted paragraph. Paragraphs missing required fields
// are rejected with an error naming the missing field.
func IngestReader(r io.Reader, mode IngestMode) ([]Package, error) {
	paragraphs, err := readParagraphs(r)
	if err != nil {
		return nil, err
	}

	pkgs := make([]Package, 0, len(paragraphs))
	for _, p := range paragraphs {
		pkg, err := ingestParagraph(p, mode)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func ingestParagraph(p paragraph, mode IngestMode) (Package, error) {
	name, ok := p.get("package")
	if !ok || name == "" {
		return Package{}, errors.New("paragraph missing required field Package")
	}
	var pkg Package
	pkg.Name = name

	switch mode {
	case ModeBinary:
		if _, ok := p.get("size"); !ok {
			return Package{}, errors.Errorf("package %q missing required field Size", name)
		}
		if _, ok := p.get("maintainer"); !ok {
			return Package{}, errors.Errorf("package %q missing required field Maintainer", name)
		}
		if _, ok := p.get("filename"); !ok {
			return Package{}, errors.Errorf("package %q missing required field Filename", name)
		}
	case ModeSource:
		if _, ok := p.get("maintainer"); !ok {
			return Package{}, errors.Errorf("package %q missing required field Maintainer", name)
		}
	case ModeStatus:
		// only Package is required
	}

	if v, ok := p.get("version"); ok {
		ver, err := ParseVersion(v)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %q", name)
		}
		pkg.Version = ver
	}

	if v, ok := p.get("architecture"); ok {
		pkg.Architecture = v
	}
	if v, ok := p.get("priority"); ok {
		pkg.Priority = v
	}
	if v, ok := p.get("section"); ok {
		pkg.Section = v
	}
	if v, ok := p.get("maintainer"); ok {
		pkg.Maintainer = v
	}
	if v, ok := p.get("filename"); ok {
		pkg.Filename = v
	}
	if v, ok := p.get("size"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %q: bad Size field", name)
		}
		pkg.Size = n
	}
	if v, ok := p.get("md5sum"); ok {
		pkg.MD5Sum = v
	}
	if v, ok := p.get("sha1"); ok {
		pkg.SHA1 = v
	}
	if v, ok := p.get("sha256"); ok {
		pkg.SHA256 = v
	}

	if desc, ok := p.get("description"); ok {
		lines := append([]string{desc}, p.getMultiline("description")...)
		pkg.Description = strings.Join(lines, "\n")
	}

	pkg.Conffiles = p.getMultiline("conffiles")

	for _, kind := range []struct {
		field string
		kind  DependencyKind
	}{
		{"depends", Depends},
		{"pre-depends", PreDepends},
	} {
		if v, ok := p.get(kind.field); ok && v != "" {
			clauses, err := ParseDependencyField(v, kind.kind)
			if err != nil {
				return Package{}, errors.Wrapf(err, "package %q field %s", name, kind.field)
			}
			pkg.Depends = append(pkg.Depends, clauses...)
		}
	}

	if mode == ModeStatus {
		if v, ok := p.get("status"); ok {
			st, err := parseStatusField(v)
			if err != nil {
				return Package{}, errors.Wrapf(err, "package %q", name)
			}
			pkg.Status = &st
		}
	}

	return pkg, nil
}

func parseStatusField(v string) (InstalledStatus, error) {
	fields := strings.Fields(v)
	if len(fields) != 3 {
		return InstalledStatus{}, errors.Errorf("malformed Status field %q", v)
	}
	st, ok := stateNames[fields[2]]
	if !ok {
		st = StateUnknown
	}
	return InstalledStatus{Want: fields[0], Flag: fields[1], State: st}, nil
}

// Universe holds the deduplicated candidate set, keyed by name, highest
// version wins (spec §4.3, §9 "identity by name").
type Universe struct {
	byName map[string]Package
}

// NewUniverse returns an empty universe.
func NewUniverse() *Universe {
	return &Universe{byName: make(map[string]Package)}
}

// Add inserts pkg into the universe. A package already present under the
// same name is replaced only if pkg's version is strictly greater (spec
// §3: "A second package with the same name replaces the stored one only if
// its version is strictly greater").
func (u *Universe) Add(pkg Package) {
	existing, ok := u.byName[pkg.Name]
	if !ok || pkg.Version.Compare(existing.Version) > 0 {
		u.byName[pkg.Name] = pkg
	}
}

// AddAll ingests every package in pkgs.
func (u *Universe) AddAll(pkgs []Package) {
	for _, p := range pkgs {
		u.Add(p)
	}
}

// Get looks up a package by exact name.
func (u *Universe) Get(name string) (Package, bool) {
	p, ok := u.byName[name]
	return p, ok
}

// Len reports the number of distinct names in the universe.
func (u *Universe) Len() int { return len(u.byName) }

// Names returns all names currently held, in no particular order.
func (u *Universe) Names() []string {
	names := make([]string, 0, len(u.byName))
	for n := range u.byName {
		names = append(names, n)
	}
	return names
}
