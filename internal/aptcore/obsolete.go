package aptcore

import "sort"

// Obsolete records that an installed package has a strictly newer version
// available in the candidate universe (spec §4.4.7).
type Obsolete struct {
	Name       string
	OldVersion Version
	NewVersion Version
}

// ComputeObsoleteSet implements spec §4.4.7: restrict to installed entries,
// look up each by name in candidates, and emit an Obsolete record when the
// candidate strictly outranks the installed version -- unless the name is
// marked auto-installed, in which case it is not offered for explicit
// upgrade.
func ComputeObsoleteSet(candidates *CandidateUniverse, installed map[string]Version, autoInstalled map[string]bool) []Obsolete {
	names := make([]string, 0, len(installed))
	for n := range installed {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []Obsolete
	for _, name := range names {
		oldV := installed[name]
		cand, ok := candidates.Get(name)
		if !ok {
			continue // installed but no longer indexed
		}
		if cand.Package.Version.Compare(oldV) <= 0 {
			continue
		}
		if autoInstalled[name] {
			continue
		}
		out = append(out, Obsolete{Name: name, OldVersion: oldV, NewVersion: cand.Package.Version})
	}
	return out
}

// ComputeAutoremoveSet implements spec §4.4.8: given the installed universe
// (candidates restricted by the caller to names whose installed state is
// Installed) and the set of names marked auto-installed, a name is
// auto-removable iff it is auto-installed and no manually-installed package
// transitively depends on it.
func ComputeAutoremoveSet(installedUniverse *CandidateUniverse, autoInstalled map[string]bool) []string {
	names := installedUniverse.Names()

	// a -> b forward edges restricted to names present in installedUniverse,
	// using the first atom of each clause, matching the resolver's edge
	// convention.
	fwd := make(map[string][]string)
	for _, name := range names {
		pkg, _ := installedUniverse.Get(name)
		for _, clause := range pkg.Package.Depends {
			if len(clause) == 0 {
				continue
			}
			target := clause[0].Name
			if _, ok := installedUniverse.Get(target); ok {
				fwd[name] = append(fwd[name], target)
			}
		}
	}

	kept := make(map[string]bool, len(names))
	var stack []string
	for _, name := range names {
		if !autoInstalled[name] {
			if !kept[name] {
				kept[name] = true
				stack = append(stack, name)
			}
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, to := range fwd[n] {
			if !kept[to] {
				kept[to] = true
				stack = append(stack, to)
			}
		}
	}

	var removable []string
	for _, name := range names {
		if autoInstalled[name] && !kept[name] {
			removable = append(removable, name)
		}
	}
	sort.Strings(removable)
	return removable
}
