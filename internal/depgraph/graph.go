package depgraph

import (
	"fmt"
	"sort"

	"github.com/depscope/depscope/internal/model"
)

// Node is one entry in the compact graph, keyed by its Identifier. The node
// table is index-addressed; edges and scope roots refer to nodes by index.
type Node struct {
	ID      model.Identifier
	Linkage model.Linkage
	Issues  []model.Issue
}

// Edge is a directed dependency between two node indices. A closing edge
// records a dependency cycle that was broken during construction: it
// preserves reachability for reporting but must never be re-expanded.
type Edge struct {
	From    int
	To      int
	Linkage model.Linkage
	Closing bool
}

// Graph is the compact, deduplicated dependency graph produced by one
// Builder for one ecosystem adapter's run. Nodes are sorted by Identifier,
// edges by (From, To), and scope root lists keep their insertion order, so
// repeated builds from the same input serialize byte-identically.
//
// A Graph is immutable once built.
type Graph struct {
	Nodes  []Node
	Edges  []Edge
	Scopes map[model.Identifier]map[string][]int
}

// Projects returns the project identifiers with recorded scopes, sorted.
func (g *Graph) Projects() []model.Identifier {
	projects := make([]model.Identifier, 0, len(g.Scopes))
	for id := range g.Scopes {
		projects = append(projects, id)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Less(projects[j]) })
	return projects
}

// ScopeNames returns the scope names recorded for a project, sorted.
func (g *Graph) ScopeNames(project model.Identifier) []string {
	scopes := g.Scopes[project]
	names := make([]string, 0, len(scopes))
	for name := range scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeByID looks up a node index by Identifier.
func (g *Graph) NodeByID(id model.Identifier) (int, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// Validate checks the structural invariants of a graph, typically after
// deserialization: every edge endpoint and scope root must reference an
// existing node, and the edge set without closing edges must be acyclic.
func (g *Graph) Validate() error {
	n := len(g.Nodes)
	for _, e := range g.Edges {
		if e.From < 0 || e.From >= n {
			return fmt.Errorf("edge %d->%d: from index out of range (have %d nodes)", e.From, e.To, n)
		}
		if e.To < 0 || e.To >= n {
			return fmt.Errorf("edge %d->%d: to index out of range (have %d nodes)", e.From, e.To, n)
		}
	}
	for project, scopes := range g.Scopes {
		for name, roots := range scopes {
			for _, r := range roots {
				if r < 0 || r >= n {
					return fmt.Errorf("scope %s/%s: root index %d out of range (have %d nodes)", project, name, r, n)
				}
			}
		}
	}
	if err := g.checkAcyclic(); err != nil {
		return err
	}
	return nil
}

// checkAcyclic verifies the non-closing edge set is a DAG by iterative
// three-color DFS.
func (g *Graph) checkAcyclic() error {
	adj := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Closing {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Nodes))

	type frame struct {
		node int
		next int
	}
	for start := range g.Nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		color[start] = gray
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next >= len(adj[f.node]) {
				color[f.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := adj[f.node][f.next]
			f.next++
			switch color[child] {
			case gray:
				return fmt.Errorf("cycle through %s not marked closing", g.Nodes[child].ID)
			case white:
				color[child] = gray
				stack = append(stack, frame{node: child})
			}
		}
	}
	return nil
}
