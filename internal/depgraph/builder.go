package depgraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/depscope/depscope/internal/model"
)

// Handler is the narrow contract an ecosystem adapter implements over its raw
// dependency-node type T. It is the only point of contact between the generic
// builder and ecosystem-specific data.
//
// Identify must be a pure function of the node's own fields; it is the
// deduplication key. Children may legitimately contain cycles. CreatePackage
// may perform I/O and reports failures through the collector instead of
// returning an error; it returns nil when the node is a first-party project
// rather than a third-party package. The builder calls CreatePackage at most
// once per distinct Identifier, while the other methods may be called once
// per raw occurrence.
type Handler[T any] interface {
	Identify(node T) model.Identifier
	Children(node T) []T
	Linkage(node T) model.Linkage
	Issues(node T) []model.Issue
	CreatePackage(node T, issues *model.IssueCollector) *model.Package
}

// Builder accumulates one shared, deduplicated dependency graph from repeated
// (project, scope, roots) submissions across a single analyzer run. One
// Builder serves exactly one ecosystem adapter for one run; it is not safe
// for concurrent use (see SyncBuilder).
type Builder[T any] struct {
	handler Handler[T]

	nodes    []Node
	index    map[model.Identifier]int
	edges    []Edge
	edgeSeen map[edgeKey]bool

	// expanded marks identifiers whose children have been recorded, so a node
	// reached again from a different branch is linked but not re-traversed.
	expanded map[model.Identifier]bool

	scopes     map[scopeKey][]int
	scopeSeen  map[scopeKey]map[int]bool
	scopeOrder []scopeKey

	// firstSeen keeps one raw representative per identifier for the lazy
	// CreatePackage call.
	firstSeen map[model.Identifier]T
	pkgs      map[model.Identifier]*model.Package
	resolved  map[model.Identifier]bool

	built *Graph
}

type edgeKey struct {
	from, to int
}

type scopeKey struct {
	project model.Identifier
	scope   string
}

// NewBuilder returns a Builder driving the given handler.
func NewBuilder[T any](handler Handler[T]) *Builder[T] {
	return &Builder[T]{
		handler:   handler,
		index:     make(map[model.Identifier]int),
		edgeSeen:  make(map[edgeKey]bool),
		expanded:  make(map[model.Identifier]bool),
		scopes:    make(map[scopeKey][]int),
		scopeSeen: make(map[scopeKey]map[int]bool),
		firstSeen: make(map[model.Identifier]T),
		pkgs:      make(map[model.Identifier]*model.Package),
		resolved:  make(map[model.Identifier]bool),
	}
}

// AddDependencies merges the dependency trees rooted at roots into the shared
// graph and records the resulting root nodes under (project, scope). Repeated
// calls for the same project and scope are cumulative: roots are unioned in
// insertion order, never replaced. Calling AddDependencies after Build is a
// programming error and panics.
func (b *Builder[T]) AddDependencies(project model.Identifier, scope string, roots []T) {
	if b.built != nil {
		panic("depgraph: AddDependencies called after Build")
	}
	key := scopeKey{project: project, scope: scope}
	if b.scopeSeen[key] == nil {
		b.scopeSeen[key] = make(map[int]bool)
		b.scopeOrder = append(b.scopeOrder, key)
	}
	for _, root := range roots {
		idx := b.visit(root)
		if !b.scopeSeen[key][idx] {
			b.scopeSeen[key][idx] = true
			b.scopes[key] = append(b.scopes[key], idx)
		}
	}
}

// visit runs the cycle-breaking depth-first traversal from one raw root,
// merging every reachable node and edge into the shared tables, and returns
// the root's node index.
//
// The traversal keeps an explicit stack and a per-traversal on-stack set
// keyed by Identifier. A child already on the stack closes a cycle: an edge
// to its existing node is emitted, marked closing, and the branch is not
// descended. A child resolved earlier in a different branch is linked but not
// re-traversed. Raw inputs may be arbitrarily cyclic; the recorded edge set
// without closing edges is a DAG.
func (b *Builder[T]) visit(root T) int {
	rootID := b.handler.Identify(root)
	rootIdx := b.ensureNode(root, rootID)
	if b.expanded[rootID] {
		return rootIdx
	}
	b.expanded[rootID] = true

	type frame struct {
		idx      int
		id       model.Identifier
		children []T
		next     int
	}
	onStack := map[model.Identifier]bool{rootID: true}
	stack := []frame{{idx: rootIdx, id: rootID, children: b.handler.Children(root)}}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next >= len(f.children) {
			delete(onStack, f.id)
			stack = stack[:len(stack)-1]
			continue
		}
		child := f.children[f.next]
		f.next++

		childID := b.handler.Identify(child)
		if onStack[childID] {
			// Cycle: link to the already-materialized node and stop here.
			// The break point is the first re-encountered identifier in
			// DFS preorder.
			ci := b.mustIndex(childID)
			b.mergeIssues(ci, b.handler.Issues(child))
			b.addEdge(f.idx, ci, b.handler.Linkage(child), true)
			continue
		}
		childIdx := b.ensureNode(child, childID)
		b.addEdge(f.idx, childIdx, b.handler.Linkage(child), false)
		if b.expanded[childID] {
			continue
		}
		b.expanded[childID] = true
		onStack[childID] = true
		stack = append(stack, frame{idx: childIdx, id: childID, children: b.handler.Children(child)})
	}
	return rootIdx
}

// ensureNode returns the node index for id, creating the node on first sight
// and merging new issues on later raw occurrences.
func (b *Builder[T]) ensureNode(raw T, id model.Identifier) int {
	if idx, ok := b.index[id]; ok {
		b.mergeIssues(idx, b.handler.Issues(raw))
		return idx
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		ID:      id,
		Linkage: b.handler.Linkage(raw),
		Issues:  b.handler.Issues(raw),
	})
	b.index[id] = idx
	b.firstSeen[id] = raw
	return idx
}

func (b *Builder[T]) mustIndex(id model.Identifier) int {
	idx, ok := b.index[id]
	if !ok {
		panic(fmt.Sprintf("depgraph: identifier %s on traversal stack but not in node table; Handler.Identify is not stable", id))
	}
	return idx
}

// mergeIssues appends issues not already recorded on the node.
func (b *Builder[T]) mergeIssues(idx int, issues []model.Issue) {
	for _, issue := range issues {
		known := false
		for _, have := range b.nodes[idx].Issues {
			if have == issue {
				known = true
				break
			}
		}
		if !known {
			b.nodes[idx].Issues = append(b.nodes[idx].Issues, issue)
		}
	}
}

// addEdge records a directed edge once; repeated raw occurrences of the same
// logical edge collapse.
func (b *Builder[T]) addEdge(from, to int, linkage model.Linkage, closing bool) {
	key := edgeKey{from: from, to: to}
	if b.edgeSeen[key] {
		return
	}
	b.edgeSeen[key] = true
	b.edges = append(b.edges, Edge{From: from, To: to, Linkage: linkage, Closing: closing})
}

// Packages resolves and returns the metadata for every third-party node,
// sorted by Identifier. Resolution runs at most once per Identifier per run,
// however many raw occurrences mapped to it; first-party project nodes are
// excluded. Failures surface as issues on the owning node, never as errors.
func (b *Builder[T]) Packages() []model.Package {
	b.resolvePackages()
	out := make([]model.Package, 0, len(b.pkgs))
	for _, pkg := range b.pkgs {
		if pkg != nil {
			out = append(out, *pkg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

func (b *Builder[T]) resolvePackages() {
	for i := range b.nodes {
		id := b.nodes[i].ID
		if b.resolved[id] {
			continue
		}
		b.resolved[id] = true
		var collector model.IssueCollector
		b.pkgs[id] = b.handler.CreatePackage(b.firstSeen[id], &collector)
		b.mergeIssues(i, collector.Issues())
	}
}

// Build finalizes the builder and returns the immutable compact graph: nodes
// sorted by Identifier, edges remapped and sorted by (From, To), scope roots
// remapped with insertion order preserved. Build is idempotent; a second call
// returns the same result. Pending package resolution runs first so node
// issues are complete in the snapshot.
func (b *Builder[T]) Build() *Graph {
	if b.built != nil {
		return b.built
	}
	b.resolvePackages()

	perm := make([]int, len(b.nodes))
	order := make([]int, len(b.nodes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return b.nodes[order[i]].ID.Less(b.nodes[order[j]].ID)
	})
	for newIdx, oldIdx := range order {
		perm[oldIdx] = newIdx
	}

	nodes := make([]Node, len(b.nodes))
	for newIdx, oldIdx := range order {
		n := b.nodes[oldIdx]
		if len(n.Issues) > 0 {
			n.Issues = append([]model.Issue(nil), n.Issues...)
		}
		nodes[newIdx] = n
	}

	edges := make([]Edge, len(b.edges))
	for i, e := range b.edges {
		edges[i] = Edge{From: perm[e.From], To: perm[e.To], Linkage: e.Linkage, Closing: e.Closing}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	scopes := make(map[model.Identifier]map[string][]int)
	for _, key := range b.scopeOrder {
		if scopes[key.project] == nil {
			scopes[key.project] = make(map[string][]int)
		}
		roots := make([]int, len(b.scopes[key]))
		for i, r := range b.scopes[key] {
			roots[i] = perm[r]
		}
		scopes[key.project][key.scope] = roots
	}

	b.built = &Graph{Nodes: nodes, Edges: edges, Scopes: scopes}
	return b.built
}

// SyncBuilder wraps a Builder with a mutex for adapters whose traversal
// issues concurrent I/O and serializes submissions from several goroutines.
type SyncBuilder[T any] struct {
	mu sync.Mutex
	b  *Builder[T]
}

// NewSyncBuilder returns a mutex-guarded builder for the handler.
func NewSyncBuilder[T any](handler Handler[T]) *SyncBuilder[T] {
	return &SyncBuilder[T]{b: NewBuilder(handler)}
}

func (s *SyncBuilder[T]) AddDependencies(project model.Identifier, scope string, roots []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.b.AddDependencies(project, scope, roots)
}

func (s *SyncBuilder[T]) Packages() []model.Package {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Packages()
}

func (s *SyncBuilder[T]) Build() *Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Build()
}
