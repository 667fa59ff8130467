package aptcore

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is the Debian-style (epoch, upstream, revision) triple described
// in the package ecosystem's versioning scheme. Unlike a SemVer, a Version
// has no fixed segment count: ordering alternates between non-digit and
// digit runs for as long as both sides have characters left to compare.
type Version struct {
	Epoch    uint64
	Upstream string
	Revision string
}

// String renders a Version back to its canonical [epoch ':']upstream['-'
// revision] form. Epoch 0 is elided, matching how the ecosystem's own
// tooling normally prints versions that were never epoch-qualified.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		b.WriteString(strconv.FormatUint(v.Epoch, 10))
		b.WriteByte(':')
	}
	b.WriteString(v.Upstream)
	if v.Revision != "" {
		b.WriteByte('-')
		b.WriteString(v.Revision)
	}
	return b.String()
}

// ParseVersion parses a Debian-style version string.
func ParseVersion(s string) (Version, error) {
	var v Version

	rest := s
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		epochStr := rest[:idx]
		n, err := strconv.ParseUint(epochStr, 10, 64)
		if err != nil {
			return Version{}, errors.Wrapf(&MalformedVersionError{Input: s, Cause: "non-numeric epoch"}, "parsing %q", s)
		}
		v.Epoch = n
		rest = rest[idx+1:]
	}

	if idx := strings.LastIndexByte(rest, '-'); idx >= 0 {
		v.Upstream = rest[:idx]
		v.Revision = rest[idx+1:]
	} else {
		v.Upstream = rest
	}

	if v.Upstream == "" {
		return Version{}, &MalformedVersionError{Input: s, Cause: "empty upstream component"}
	}

	return v, nil
}

// MustParseVersion is a convenience wrapper for constants and tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Equal reports structural equality of the (epoch, upstream, revision)
// triple.
func (v Version) Equal(o Version) bool {
	return v.Epoch == o.Epoch && v.Upstream == o.Upstream && v.Revision == o.Revision
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o,
// following the epoch-then-upstream-then-revision rule of §4.1.
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		if v.Epoch < o.Epoch {
			return -1
		}
		return 1
	}
	if c := compareVersionPart(v.Upstream, o.Upstream); c != 0 {
		return c
	}
	return compareVersionPart(v.Revision, o.Revision)
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// compareVersionPart implements the alternating non-digit/digit comparison
// described in spec §4.1: take the longest leading non-digit run from each
// side and compare under the modified lexicographic order, then take the
// longest leading digit run from each side and compare numerically, and
// repeat until both strings are exhausted.
func compareVersionPart(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		aAlpha, aRest := splitNonDigits(a)
		bAlpha, bRest := splitNonDigits(b)
		if c := compareNonDigitRun(aAlpha, bAlpha); c != 0 {
			return c
		}
		a, b = aRest, bRest

		aNum, aRest2 := splitDigits(a)
		bNum, bRest2 := splitDigits(b)
		if c := compareDigitRun(aNum, bNum); c != 0 {
			return c
		}
		a, b = aRest2, bRest2
	}
	return 0
}

func splitNonDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func splitDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// charClass orders the modified lexicographic alphabet: '~' sorts before
// the empty string, letters sort before all other non-digit characters, and
// within a class normal byte order applies.
func charClass(c byte) int {
	switch {
	case c == '~':
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return 2
	default:
		return 3
	}
}

// compareNonDigitRun compares two non-digit runs character by character
// under the modified lexicographic order, treating an exhausted run as the
// empty string (class 1: greater than '~', less than letters and symbols).
func compareNonDigitRun(a, b string) int {
	const emptyClass = 1
	for i := 0; ; i++ {
		var ca, cb byte
		haveA := i < len(a)
		haveB := i < len(b)
		if !haveA && !haveB {
			return 0
		}

		classA, classB := emptyClass, emptyClass
		if haveA {
			ca = a[i]
			classA = charClass(ca)
		}
		if haveB {
			cb = b[i]
			classB = charClass(cb)
		}

		if classA != classB {
			if classA < classB {
				return -1
			}
			return 1
		}
		if !haveA && !haveB {
			return 0
		}
		if haveA && haveB && ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		if !haveA || !haveB {
			// One side ran out of real characters but matched class
			// (both '~' exhausted, or both reached the implicit
			// empty-string terminator) -- nothing left to compare.
			return 0
		}
	}
}

func compareDigitRun(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Operator is a Debian-style version relation operator.
type Operator int

const (
	// OpAny matches any version; used for unversioned dependency atoms.
	OpAny Operator = iota
	OpLess
	OpLessEqual
	OpEqual
	OpGreaterEqual
	OpGreater
)

func (o Operator) String() string {
	switch o {
	case OpLess:
		return "<<"
	case OpLessEqual:
		return "<="
	case OpEqual:
		return "="
	case OpGreaterEqual:
		return ">="
	case OpGreater:
		return ">>"
	default:
		return ""
	}
}

// VersionConstraint pairs an operator with the version it is relative to.
// The zero value (OpAny) matches every version.
type VersionConstraint struct {
	Op      Operator
	Version Version
}

// Matches reports whether v satisfies the constraint.
func (c VersionConstraint) Matches(v Version) bool {
	switch c.Op {
	case OpAny:
		return true
	case OpLess:
		return v.Less(c.Version)
	case OpLessEqual:
		return v.Compare(c.Version) <= 0
	case OpEqual:
		return v.Equal(c.Version)
	case OpGreaterEqual:
		return v.Compare(c.Version) >= 0
	case OpGreater:
		return c.Version.Less(v)
	default:
		return false
	}
}

func (c VersionConstraint) String() string {
	if c.Op == OpAny {
		return ""
	}
	return c.Op.String() + " " + c.Version.String()
}

// parseOperator maps the textual forms allowed in a parenthesised
// constraint to an Operator, treating the single-angle forms as aliases of
// the double-angle forms per spec §4.2.
func parseOperator(s string) (Operator, bool) {
	switch s {
	case "<<", "<":
		return OpLess, true
	case "<=":
		return OpLessEqual, true
	case "=":
		return OpEqual, true
	case ">=":
		return OpGreaterEqual, true
	case ">>", ">":
		return OpGreater, true
	default:
		return OpAny, false
	}
}
