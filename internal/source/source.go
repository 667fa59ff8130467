// Package source parses the machine's source list and derives the remote
// URLs the cache layer fetches from.
package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/aptgo/apt-go/internal/aptcore"
)

// knownComponents is the enumeration spec.md §6 fixes the source list to,
// beyond the no-component marker "/".
var knownComponents = map[string]bool{
	"main": true, "restricted": true, "universe": true, "multiverse": true,
	"partner": true, "contrib": true, "stable": true,
}

// InvalidSourceListError reports a malformed source-list line.
type InvalidSourceListError struct {
	Line int
	Text string
	Why  string
}

func (e *InvalidSourceListError) Error() string {
	return fmt.Sprintf("invalid source list entry at line %d (%q): %s", e.Line, e.Text, e.Why)
}

// ParseFile reads a source-list file, one entry per line. Comments begin
// with '#'. Each non-comment line is "TYPE URL DISTRIBUTION COMPONENT...";
// a line naming several components expands into one Source per component.
func ParseFile(r io.Reader) ([]aptcore.Source, error) {
	var out []aptcore.Source
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, &InvalidSourceListError{Line: lineNo, Text: line, Why: "expected at least TYPE URL DISTRIBUTION"}
		}

		var archiveType aptcore.ArchiveType
		switch fields[0] {
		case "deb":
			archiveType = aptcore.ArchiveBinary
		case "deb-src":
			archiveType = aptcore.ArchiveSource
		default:
			return nil, &InvalidSourceListError{Line: lineNo, Text: line, Why: "TYPE must be deb or deb-src"}
		}

		url := strings.TrimRight(fields[1], "/")
		distribution := fields[2]
		components := fields[3:]

		if len(components) == 0 || (len(components) == 1 && components[0] == "/") {
			out = append(out, aptcore.Source{Type: archiveType, URL: url, Distribution: distribution})
			continue
		}

		for _, c := range components {
			if !knownComponents[c] {
				return nil, &InvalidSourceListError{Line: lineNo, Text: line, Why: fmt.Sprintf("unknown component %q", c)}
			}
			out = append(out, aptcore.Source{Type: archiveType, URL: url, Distribution: distribution, Component: c})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading source list")
	}
	return out, nil
}

// InReleaseURL returns the release-metadata URL for src.
func InReleaseURL(src aptcore.Source) string {
	return fmt.Sprintf("%s/dists/%s/InRelease", src.URL, src.Distribution)
}

// IndexURL returns the Packages.gz or Sources.gz URL for src, depending on
// its archive type, against the given architecture (ignored for source
// archives).
func IndexURL(src aptcore.Source, arch string) string {
	if src.Component == "" {
		if src.Type == aptcore.ArchiveSource {
			return fmt.Sprintf("%s/%s/Sources.gz", src.URL, src.Distribution)
		}
		return fmt.Sprintf("%s/%s/Packages.gz", src.URL, src.Distribution)
	}
	if src.Type == aptcore.ArchiveSource {
		return fmt.Sprintf("%s/dists/%s/%s/source/Sources.gz", src.URL, src.Distribution, src.Component)
	}
	return fmt.Sprintf("%s/dists/%s/%s/binary-%s/Packages.gz", src.URL, src.Distribution, src.Component, arch)
}

// IndexPath is the InRelease-relative path (e.g. "main/binary-amd64/Packages.gz")
// used to match a source's index entry against an InRelease MD5 line.
func IndexPath(src aptcore.Source, arch string) string {
	if src.Component == "" {
		return "Packages.gz"
	}
	if src.Type == aptcore.ArchiveSource {
		return fmt.Sprintf("%s/source/Sources.gz", src.Component)
	}
	return fmt.Sprintf("%s/binary-%s/Packages.gz", src.Component, arch)
}
