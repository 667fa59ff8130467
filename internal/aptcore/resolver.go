package aptcore

import (
	"path/filepath"
	"sort"

	"github.com/aptgo/apt-go/internal/aptcore/nametrie"
)

// ArchiveType distinguishes a binary-archive source from a source-archive
// source, per spec §3's Source record.
type ArchiveType int

const (
	ArchiveBinary ArchiveType = iota
	ArchiveSource
)

// Source identifies where a candidate package was indexed from.
type Source struct {
	Type         ArchiveType
	URL          string
	Distribution string
	Component    string
}

// PackageWithSource pairs an ingested Package with the repository Source it
// was indexed from.
type PackageWithSource struct {
	Package Package
	Source  Source
}

// ComparisonKind classifies how a candidate compares against the installed
// state of the same name.
type ComparisonKind int

const (
	NotInstalled ComparisonKind = iota
	Old
	UpToDate
)

// InstalledComparison is the result of probing a candidate against the
// installed-status projection.
type InstalledComparison struct {
	Kind        ComparisonKind
	PrevVersion Version
}

// ProbeFunc reports how a candidate Package compares against whatever is
// currently installed under the same name. The resolver treats this as an
// opaque, already-cached lookup (spec §5: "the installed-status reader
// caches its result for the lifetime of a single process").
type ProbeFunc func(pkg Package) InstalledComparison

// CandidateUniverse is the resolver's view of the world: one
// PackageWithSource per name, highest version wins, matching the
// C3-ingested Universe's dedup rule. Names are indexed through a radix
// trie (internal/aptcore/nametrie) rather than a plain map; Names() walks
// the trie and sorts the collected names, and glob-target lookup (spec
// §4.4.1 step 1) matches against that sorted list.
type CandidateUniverse struct {
	names nametrie.Trie[PackageWithSource]
}

// NewCandidateUniverse returns an empty CandidateUniverse.
func NewCandidateUniverse() *CandidateUniverse {
	return &CandidateUniverse{names: nametrie.New[PackageWithSource]()}
}

// Add inserts pkg (with its source) keeping the higher version on a name
// collision, per spec §3's identity-by-name rule.
func (u *CandidateUniverse) Add(pkg Package, src Source) {
	existing, ok := u.names.Get(pkg.Name)
	if !ok || pkg.Version.Compare(existing.Package.Version) > 0 {
		u.names.Insert(pkg.Name, PackageWithSource{Package: pkg, Source: src})
	}
}

// Override force-sets the candidate for name regardless of the usual
// highest-version-wins rule, used by the pins override mechanism (see
// internal/pins) to pick a specific version out of a wider candidate pool
// without touching the resolver's closure algorithm.
func (u *CandidateUniverse) Override(pkg Package, src Source) {
	u.names.Insert(pkg.Name, PackageWithSource{Package: pkg, Source: src})
}

// Get looks up a candidate by exact name.
func (u *CandidateUniverse) Get(name string) (PackageWithSource, bool) {
	return u.names.Get(name)
}

// Names returns every name in the universe, sorted for deterministic glob
// matching.
func (u *CandidateUniverse) Names() []string {
	names := make([]string, 0, u.names.Len())
	u.names.WalkPrefix("", func(name string, _ PackageWithSource) bool {
		names = append(names, name)
		return false
	})
	sort.Strings(names)
	return names
}

// findTarget resolves a target name, allowing a glob pattern, returning the
// first match in sorted-name order (spec §4.4.1 step 1).
func (u *CandidateUniverse) findTarget(nameOrGlob string) (PackageWithSource, bool) {
	if p, ok := u.names.Get(nameOrGlob); ok {
		return p, true
	}
	for _, name := range u.Names() {
		if ok, _ := filepath.Match(nameOrGlob, name); ok {
			p, _ := u.names.Get(name)
			return p, true
		}
	}
	return PackageWithSource{}, false
}

// PlanEntry is one package in a resolved, ordered install plan.
type PlanEntry struct {
	PackageWithSource
	Comparison InstalledComparison
}

// Layer is a maximal group of PlanEntry values that may be extracted
// together before any of them are configured (spec §4.4.6).
type Layer []PlanEntry

// ResolveOptions controls closure-expansion behavior.
type ResolveOptions struct {
	// IgnoreInstalled disables the "already up to date" short-circuits in
	// closure expansion, forcing a full closure regardless of installed
	// state.
	IgnoreInstalled bool
}

// graph is the ephemeral arena used for one resolution: nodes addressed by
// integer index, forward/reverse adjacency, no cross-node pointers (spec §9
// "Graph representation").
type graph struct {
	names     []string
	nameToID  map[string]int
	entries   []PlanEntry
	fwd       [][]int // "a depends on b" edges, regardless of kind
	preFwd    [][]int // the subset of fwd that are Pre-Depends edges
	rev       [][]int
	targetID  int
}

func newGraph() *graph {
	return &graph{nameToID: make(map[string]int)}
}

func (g *graph) addNode(entry PlanEntry) int {
	id := len(g.names)
	g.names = append(g.names, entry.Package.Name)
	g.entries = append(g.entries, entry)
	g.fwd = append(g.fwd, nil)
	g.preFwd = append(g.preFwd, nil)
	g.rev = append(g.rev, nil)
	g.nameToID[entry.Package.Name] = id
	return id
}

func (g *graph) addEdge(from, to int, kind DependencyKind) {
	for _, existing := range g.fwd[from] {
		if existing == to {
			if kind == PreDepends {
				g.addPreEdgeIfMissing(from, to)
			}
			return
		}
	}
	g.fwd[from] = append(g.fwd[from], to)
	g.rev[to] = append(g.rev[to], from)
	if kind == PreDepends {
		g.addPreEdgeIfMissing(from, to)
	}
}

func (g *graph) addPreEdgeIfMissing(from, to int) {
	for _, existing := range g.preFwd[from] {
		if existing == to {
			return
		}
	}
	g.preFwd[from] = append(g.preFwd[from], to)
}

// Resolve computes the layered, topologically-ordered install plan for
// target within universe, consulting probe for installed-state filtering,
// per spec §4.4.
func Resolve(target string, universe *CandidateUniverse, probe ProbeFunc, opts ResolveOptions) ([]Layer, error) {
	resolvedTarget, ok := universe.findTarget(target)
	if !ok {
		return nil, &PackageNotFoundError{Name: target}
	}

	targetCmp := probe(resolvedTarget.Package)
	if !opts.IgnoreInstalled && targetCmp.Kind == UpToDate {
		return nil, nil
	}

	g := newGraph()
	g.targetID = g.addNode(PlanEntry{PackageWithSource: resolvedTarget, Comparison: targetCmp})

	queue := []int{g.targetID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		pkg := g.entries[id].Package
		for _, clause := range pkg.Depends {
			if len(clause) == 0 {
				continue
			}
			atom := clause[0]

			depCandidate, ok := universe.Get(atom.Name)
			if !ok {
				return nil, &PackageNotFoundError{Name: atom.Name}
			}

			depID, alreadyPresent := g.nameToID[atom.Name]
			if !alreadyPresent {
				cmp := probe(depCandidate.Package)
				if !opts.IgnoreInstalled && cmp.Kind == UpToDate {
					// Already satisfied: do not add the node, do not recurse.
					continue
				}
				depID = g.addNode(PlanEntry{PackageWithSource: depCandidate, Comparison: cmp})
				queue = append(queue, depID)
			}
			g.addEdge(id, depID, atom.Kind)
		}
	}

	order := postOrderFrom(g.fwd, g.targetID)
	groupOf, numGroups := kosarajuGroups(g.rev, order)

	condFwd := buildCondensation(g.fwd, groupOf, numGroups)
	groupOrder := postOrderFrom(condFwd, groupOf[g.targetID])

	plan := make([]int, 0, len(g.names))
	groupMembers := make([][]int, numGroups)
	for id := range g.names {
		gid := groupOf[id]
		groupMembers[gid] = append(groupMembers[gid], id)
	}

	for _, gid := range groupOrder {
		ordered, err := orderGroupByPreDependency(groupMembers[gid], g, g.names)
		if err != nil {
			return nil, err
		}
		plan = append(plan, ordered...)
	}

	// Spec §4.4.5: within the target's group the target itself is
	// positioned last.
	plan = moveToEnd(plan, g.targetID)

	layerOf := computeLayerIndices(plan, g)

	maxLayer := 0
	for _, l := range layerOf {
		if l > maxLayer {
			maxLayer = l
		}
	}
	layers := make([]Layer, maxLayer+1)
	for _, id := range plan {
		layers[layerOf[id]] = append(layers[layerOf[id]], g.entries[id])
	}

	return layers, nil
}

// postOrderFrom runs an iterative depth-first search over fwd starting at
// start, returning nodes in the order they finish (spec §4.4.2 step 1 /
// §4.4.3: leaves finish first, the start node finishes last). Nodes
// unreachable from start are absent from the result and are dropped from
// the plan, per spec's unreachable-pruning invariant.
func postOrderFrom(fwd [][]int, start int) []int {
	visited := make([]bool, len(fwd))
	var order []int

	type frame struct {
		node int
		i    int
	}
	stack := []frame{{start, 0}}
	visited[start] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i < len(fwd[top.node]) {
			next := fwd[top.node][top.i]
			top.i++
			if !visited[next] {
				visited[next] = true
				stack = append(stack, frame{next, 0})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// kosarajuGroups implements the second Kosaraju pass: visiting nodes in
// decreasing post-order (i.e. the reverse of the order produced by
// postOrderFrom), running a reverse-edge DFS from each unassigned node to
// discover its strongly connected component.
func kosarajuGroups(rev [][]int, order []int) ([]int, int) {
	n := len(rev)
	groupOf := make([]int, n)
	for i := range groupOf {
		groupOf[i] = -1
	}

	groupID := 0
	for i := len(order) - 1; i >= 0; i-- {
		start := order[i]
		if groupOf[start] != -1 {
			continue
		}
		groupOf[start] = groupID
		stack := []int{start}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, p := range rev[cur] {
				if groupOf[p] == -1 {
					groupOf[p] = groupID
					stack = append(stack, p)
				}
			}
		}
		groupID++
	}
	return groupOf, groupID
}

// buildCondensation contracts each SCC into a single node, producing the
// condensation DAG's forward adjacency.
func buildCondensation(fwd [][]int, groupOf []int, numGroups int) [][]int {
	cond := make([][]int, numGroups)
	seen := make([]map[int]bool, numGroups)
	for i := range seen {
		seen[i] = make(map[int]bool)
	}
	for from, edges := range fwd {
		gFrom := groupOf[from]
		for _, to := range edges {
			gTo := groupOf[to]
			if gFrom == gTo || seen[gFrom][gTo] {
				continue
			}
			seen[gFrom][gTo] = true
			cond[gFrom] = append(cond[gFrom], gTo)
		}
	}
	return cond
}

// orderGroupByPreDependency returns one SCC's members in an order
// satisfying spec §4.4.4: a pre-depended-on member appears after the member
// that pre-depends on it. This is a topological sort of the intra-group
// Pre-Depends subgraph (edges oriented pre-depender -> pre-depended-on),
// with members outside that subgraph kept in their arbitrary input order.
// A cycle in that subgraph is a hard error (spec: pre-dependencies are
// defined to be acyclic).
func orderGroupByPreDependency(members []int, g *graph, names []string) ([]int, error) {
	if len(members) <= 1 {
		return append([]int{}, members...), nil
	}

	inGroup := make(map[int]bool, len(members))
	for _, m := range members {
		inGroup[m] = true
	}

	// indegree/adjacency restricted to pre-depends edges within the group.
	adj := make(map[int][]int)
	indeg := make(map[int]int)
	for _, m := range members {
		indeg[m] = 0
	}
	for _, m := range members {
		for _, to := range g.preFwd[m] {
			if inGroup[to] && to != m {
				adj[m] = append(adj[m], to)
				indeg[to]++
			}
		}
	}

	// Kahn's algorithm, seeded with members in their given order for
	// deterministic tie-breaking.
	var queue []int
	queued := make(map[int]bool)
	for _, m := range members {
		if indeg[m] == 0 {
			queue = append(queue, m)
			queued[m] = true
		}
	}

	var out []int
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		for _, to := range adj[n] {
			indeg[to]--
			if indeg[to] == 0 && !queued[to] {
				queue = append(queue, to)
				queued[to] = true
			}
		}
	}

	if len(out) != len(members) {
		// A cycle remains among the members never dequeued; find one edge
		// on that cycle for the error.
		remaining := make(map[int]bool)
		for _, m := range members {
			remaining[m] = true
		}
		for _, m := range out {
			delete(remaining, m)
		}
		for n := range remaining {
			for _, to := range adj[n] {
				if remaining[to] {
					return nil, &PreDependencyCycleError{From: names[n], To: names[to]}
				}
			}
		}
		return nil, &InvalidStateError{Detail: "pre-dependency cycle detected but no offending edge located"}
	}

	return out, nil
}

// moveToEnd returns plan with id relocated to the final position,
// preserving the relative order of everything else.
func moveToEnd(plan []int, id int) []int {
	out := make([]int, 0, len(plan))
	for _, p := range plan {
		if p != id {
			out = append(out, p)
		}
	}
	return append(out, id)
}

// computeLayerIndices assigns each node in plan a layer number equal to one
// more than the greatest layer number among everything it pre-depends on
// (and 0 if it has no in-plan pre-dependencies). This directly satisfies
// the layer invariant (spec §8): for every pre-dependency edge a -> b with
// both in the plan, layer(b) < layer(a).
func computeLayerIndices(plan []int, g *graph) []int {
	layer := make([]int, len(g.names))
	computed := make([]bool, len(g.names))

	inPlan := make(map[int]bool, len(plan))
	for _, id := range plan {
		inPlan[id] = true
	}

	var compute func(id int) int
	compute = func(id int) int {
		if computed[id] {
			return layer[id]
		}
		computed[id] = true // guards against re-entry; acyclicity is assumed established

		max := -1
		for _, to := range g.preFwd[id] {
			if !inPlan[to] {
				continue
			}
			if l := compute(to); l > max {
				max = l
			}
		}
		layer[id] = max + 1
		return layer[id]
	}

	for _, id := range plan {
		compute(id)
	}
	return layer
}
