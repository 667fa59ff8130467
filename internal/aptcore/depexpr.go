package aptcore

import "strings"

// DependencyKind distinguishes an ordinary Depends edge from a Pre-Depends
// edge. Pre-Depends edges carry the additional requirement (enforced by the
// resolver's layer split, §4.4.6) that the target be fully configured before
// the source package is even unpacked.
type DependencyKind int

const (
	Depends DependencyKind = iota
	PreDepends
)

// DependencyAtom is one alternative within a disjunctive clause: a package
// name, an optional version constraint, and the kind stamped onto it by the
// caller that invoked the parser.
type DependencyAtom struct {
	Name       string
	Constraint VersionConstraint
	Kind       DependencyKind
}

func (a DependencyAtom) String() string {
	if a.Constraint.Op == OpAny {
		return a.Name
	}
	return a.Name + " (" + a.Constraint.String() + ")"
}

// DependencyClause is a non-empty ordered list of DependencyAtom -- a
// disjunction ("any-of"). All atoms within a clause share the same Kind.
type DependencyClause []DependencyAtom

func (c DependencyClause) String() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// ParseDependencyField parses the text body of a Depends or Pre-Depends
// field into a list of clauses, stamping kind onto every atom it produces.
//
// Grammar (spec §4.2): top-level items are separated by ',', alternatives
// within an item by " | ", and each atom is "name" optionally followed by
// "(OP version)". Whitespace around separators is insignificant.
func ParseDependencyField(body string, kind DependencyKind) ([]DependencyClause, error) {
	items := splitTrim(body, ',')
	clauses := make([]DependencyClause, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		alts := splitOnBar(item)
		clause := make(DependencyClause, 0, len(alts))
		for _, alt := range alts {
			atom, err := parseAtom(alt, kind)
			if err != nil {
				return nil, err
			}
			clause = append(clause, atom)
		}
		if len(clause) == 0 {
			return nil, &MalformedDependencyError{Input: body, Cause: "empty clause"}
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// splitOnBar splits an item on the "|" alternative separator, tolerating
// the surrounding whitespace that conventionally pads " | " but is not
// semantically significant.
func splitOnBar(item string) []string {
	raw := strings.Split(item, "|")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func splitTrim(s string, sep byte) []string {
	raw := strings.Split(s, string(sep))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// parseAtom parses a single "name" or "name (OP version)" token.
func parseAtom(s string, kind DependencyKind) (DependencyAtom, error) {
	s = strings.TrimSpace(s)

	open := strings.IndexByte(s, '(')
	if open < 0 {
		name := strings.TrimSpace(s)
		if name == "" {
			return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "empty atom"}
		}
		return DependencyAtom{Name: name, Kind: kind}, nil
	}

	closeIdx := strings.LastIndexByte(s, ')')
	if closeIdx < open {
		return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "unbalanced parentheses"}
	}

	name := strings.TrimSpace(s[:open])
	if name == "" {
		return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "missing package name"}
	}

	body := strings.TrimSpace(s[open+1 : closeIdx])
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "expected \"OP version\" inside parentheses"}
	}

	op, ok := parseOperator(fields[0])
	if !ok {
		return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "unknown operator " + fields[0]}
	}

	ver, err := ParseVersion(fields[1])
	if err != nil {
		return DependencyAtom{}, &MalformedDependencyError{Input: s, Cause: "bad version in constraint: " + err.Error()}
	}

	return DependencyAtom{
		Name:       name,
		Constraint: VersionConstraint{Op: op, Version: ver},
		Kind:       kind,
	}, nil
}
