package depgraph

import (
	"fmt"

	"github.com/depscope/depscope/internal/model"
)

// Materialize reconstructs the conventional recursive dependency tree for one
// project and scope from the compact graph. Shared nodes are re-expanded
// independently per parent, so the output is a tree even where the graph has
// shared substructure. A closing back-edge materializes as a terminal
// reference with no children, which bounds the expansion even for arbitrarily
// deep original cycles.
//
// Materialize is a pure read and may run against a deserialized graph in a
// different process than the one that built it.
func (g *Graph) Materialize(project model.Identifier, scope string) ([]model.PackageReference, error) {
	scopes, ok := g.Scopes[project]
	if !ok {
		return nil, fmt.Errorf("no scopes recorded for project %s", project)
	}
	roots, ok := scopes[scope]
	if !ok {
		return nil, fmt.Errorf("project %s has no scope %q", project, scope)
	}

	adj := g.adjacency()
	refs := make([]model.PackageReference, 0, len(roots))
	for _, idx := range roots {
		refs = append(refs, g.expand(idx, g.Nodes[idx].Linkage, adj))
	}
	return refs, nil
}

// adjacency groups edges by source index, preserving the graph's edge order.
func (g *Graph) adjacency() [][]Edge {
	adj := make([][]Edge, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], e)
	}
	return adj
}

func (g *Graph) expand(idx int, linkage model.Linkage, adj [][]Edge) model.PackageReference {
	node := g.Nodes[idx]
	ref := model.PackageReference{
		ID:      node.ID,
		Linkage: linkage,
		Issues:  node.Issues,
	}
	for _, e := range adj[idx] {
		if e.Closing {
			target := g.Nodes[e.To]
			ref.Dependencies = append(ref.Dependencies, model.PackageReference{
				ID:      target.ID,
				Linkage: e.Linkage,
				Issues:  target.Issues,
			})
			continue
		}
		ref.Dependencies = append(ref.Dependencies, g.expand(e.To, e.Linkage, adj))
	}
	return ref
}
