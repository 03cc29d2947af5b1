package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscope/depscope/internal/model"
)

func TestProjectsAndScopeNamesSorted(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: testProject("n"), Linkage: model.LinkageStatic}},
		Scopes: map[model.Identifier]map[string][]int{
			testProject("zeta"):  {"runtime": {0}},
			testProject("alpha"): {"test": {0}, "main": {0}},
		},
	}

	projects := g.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, "zeta", projects[1].Name)

	assert.Equal(t, []string{"main", "test"}, g.ScopeNames(testProject("alpha")))
	assert.Empty(t, g.ScopeNames(testProject("missing")))
}

func TestValidateRejectsBadScopeRoot(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: testProject("n"), Linkage: model.LinkageStatic}},
		Scopes: map[model.Identifier]map[string][]int{
			testProject("p"): {"runtime": {3}},
		},
	}
	err := g.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root index 3 out of range")
}

func TestValidateAcceptsClosingCycle(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			{ID: testProject("a"), Linkage: model.LinkageStatic},
			{ID: testProject("b"), Linkage: model.LinkageStatic},
		},
		Edges: []Edge{
			{From: 0, To: 1, Linkage: model.LinkageStatic},
			{From: 1, To: 0, Linkage: model.LinkageStatic, Closing: true},
		},
		Scopes: map[model.Identifier]map[string][]int{},
	}
	assert.NoError(t, g.Validate())
}

func TestNodeByID(t *testing.T) {
	g := buildSampleGraph(t)
	idx, ok := g.NodeByID(model.Identifier{Type: "test", Name: "b", Version: "1.0"})
	require.True(t, ok)
	assert.Equal(t, "b", g.Nodes[idx].ID.Name)

	_, ok = g.NodeByID(model.Identifier{Type: "test", Name: "nope", Version: "1.0"})
	assert.False(t, ok)
}
