package depgraph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depscope/depscope/internal/model"
)

// fakeNode is a minimal raw dependency node for driving the builder in
// tests. Children reference other nodes by "name@version" key, so fixtures
// can declare cycles directly.
type fakeNode struct {
	key      string
	children []string
	issues   []model.Issue
	project  bool
}

type fakeHandler struct {
	nodes       map[string]*fakeNode
	createCalls map[string]int
}

func newFakeHandler(nodes ...*fakeNode) *fakeHandler {
	h := &fakeHandler{
		nodes:       make(map[string]*fakeNode),
		createCalls: make(map[string]int),
	}
	for _, n := range nodes {
		h.nodes[n.key] = n
	}
	return h
}

func (h *fakeHandler) Identify(n *fakeNode) model.Identifier {
	name, version, _ := strings.Cut(n.key, "@")
	return model.Identifier{Type: "test", Name: name, Version: version}
}

func (h *fakeHandler) Children(n *fakeNode) []*fakeNode {
	out := make([]*fakeNode, 0, len(n.children))
	for _, key := range n.children {
		out = append(out, h.nodes[key])
	}
	return out
}

func (h *fakeHandler) Linkage(n *fakeNode) model.Linkage {
	if n.project {
		return model.LinkageProjectStatic
	}
	return model.LinkageStatic
}

func (h *fakeHandler) Issues(n *fakeNode) []model.Issue {
	return n.issues
}

func (h *fakeHandler) CreatePackage(n *fakeNode, issues *model.IssueCollector) *model.Package {
	h.createCalls[n.key]++
	if n.project {
		return nil
	}
	return &model.Package{ID: h.Identify(n), PURL: "pkg:test/" + n.key}
}

func testProject(name string) model.Identifier {
	return model.Identifier{Type: "test", Name: name, Version: "1.0"}
}

func TestDedupAcrossRawOccurrences(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "util@2.0"},
	)
	// Two distinct raw nodes with the same identifier.
	a := &fakeNode{key: "util@2.0"}
	b := &fakeNode{key: "util@2.0"}

	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{a})
	builder.AddDependencies(testProject("root"), "dev", []*fakeNode{b})
	g := builder.Build()

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "test::util:2.0", g.Nodes[0].ID.String())

	builder.Packages()
	builder.Packages()
	assert.Equal(t, 1, h.createCalls["util@2.0"], "CreatePackage must run at most once per identifier")
}

func TestCycleTermination(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "a@1.0", children: []string{"b@1.0"}},
		&fakeNode{key: "b@1.0", children: []string{"a@1.0"}},
	)

	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["a@1.0"]})
	g := builder.Build()

	require.NoError(t, g.Validate())
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 2)

	closing := 0
	for _, e := range g.Edges {
		if e.Closing {
			closing++
		}
	}
	assert.Equal(t, 1, closing, "the cycle must be broken by exactly one closing edge")

	refs, err := g.Materialize(testProject("root"), "runtime")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "a", refs[0].ID.Name)
	require.Len(t, refs[0].Dependencies, 1)
	b := refs[0].Dependencies[0]
	assert.Equal(t, "b", b.ID.Name)
	require.Len(t, b.Dependencies, 1)
	back := b.Dependencies[0]
	assert.Equal(t, "a", back.ID.Name)
	assert.Empty(t, back.Dependencies, "a cycle reference must materialize as a terminal leaf")
}

func TestSelfCycle(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "selfish@1.0", children: []string{"selfish@1.0"}},
	)

	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["selfish@1.0"]})
	g := builder.Build()

	require.NoError(t, g.Validate())
	require.Len(t, g.Nodes, 1)
	require.Len(t, g.Edges, 1)
	assert.True(t, g.Edges[0].Closing)

	refs, err := g.Materialize(testProject("root"), "runtime")
	require.NoError(t, err)
	require.Len(t, refs[0].Dependencies, 1)
	assert.Empty(t, refs[0].Dependencies[0].Dependencies)
}

func TestScopeAccumulation(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "x@1.0"},
		&fakeNode{key: "y@1.0"},
	)

	builder := NewBuilder[*fakeNode](h)
	project := testProject("p")
	builder.AddDependencies(project, "runtime", []*fakeNode{h.nodes["x@1.0"]})
	builder.AddDependencies(project, "runtime", []*fakeNode{h.nodes["y@1.0"]})
	// Resubmitting a known root must not duplicate it.
	builder.AddDependencies(project, "runtime", []*fakeNode{h.nodes["x@1.0"]})
	g := builder.Build()

	roots := g.Scopes[project]["runtime"]
	require.Len(t, roots, 2)
	assert.Equal(t, "x", g.Nodes[roots[0]].ID.Name)
	assert.Equal(t, "y", g.Nodes[roots[1]].ID.Name)
}

func TestSharedNodeAcrossScopes(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "lib@1.0", children: []string{"util@2.0"}},
		&fakeNode{key: "app@1.0", children: []string{"util@2.0"}},
		&fakeNode{key: "util@2.0"},
	)

	builder := NewBuilder[*fakeNode](h)
	root := testProject("root")
	builder.AddDependencies(root, "runtime", []*fakeNode{h.nodes["lib@1.0"]})
	builder.AddDependencies(root, "dev", []*fakeNode{h.nodes["app@1.0"]})
	g := builder.Build()

	require.Len(t, g.Nodes, 3, "util must be deduplicated")

	utilIdx, ok := g.NodeByID(model.Identifier{Type: "test", Name: "util", Version: "2.0"})
	require.True(t, ok)
	into := 0
	for _, e := range g.Edges {
		if e.To == utilIdx {
			into++
		}
	}
	assert.Equal(t, 2, into, "util must have one edge from lib and one from app")

	runtime, err := g.Materialize(root, "runtime")
	require.NoError(t, err)
	require.Len(t, runtime, 1)
	assert.Equal(t, "lib", runtime[0].ID.Name)
	require.Len(t, runtime[0].Dependencies, 1)
	assert.Equal(t, "util", runtime[0].Dependencies[0].ID.Name)

	dev, err := g.Materialize(root, "dev")
	require.NoError(t, err)
	require.Len(t, dev, 1)
	assert.Equal(t, "app", dev[0].ID.Name)
	require.Len(t, dev[0].Dependencies, 1)
	assert.Equal(t, "util", dev[0].Dependencies[0].ID.Name)
}

func TestIssueNonFatality(t *testing.T) {
	issue := model.Issue{Source: "test", Message: "version range unsatisfiable", Severity: model.SeverityWarning}
	h := newFakeHandler(
		&fakeNode{key: "flaky@1.0", children: []string{"dep@1.0"}, issues: []model.Issue{issue}},
		&fakeNode{key: "dep@1.0"},
	)

	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["flaky@1.0"]})
	g := builder.Build()

	require.Len(t, g.Nodes, 2, "children of a node with issues are still traversed")
	idx, ok := g.NodeByID(model.Identifier{Type: "test", Name: "flaky", Version: "1.0"})
	require.True(t, ok)
	assert.Contains(t, g.Nodes[idx].Issues, issue)
}

func TestDeterminism(t *testing.T) {
	build := func() *Graph {
		h := newFakeHandler(
			&fakeNode{key: "b@1.0", children: []string{"d@1.0"}},
			&fakeNode{key: "c@1.0", children: []string{"d@1.0", "b@1.0"}},
			&fakeNode{key: "d@1.0"},
		)
		builder := NewBuilder[*fakeNode](h)
		builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["c@1.0"], h.nodes["b@1.0"]})
		return builder.Build()
	}

	g1, g2 := build(), build()
	assert.Equal(t, g1, g2)

	var buf1, buf2 bytes.Buffer
	require.NoError(t, WriteYAML(&buf1, g1))
	require.NoError(t, WriteYAML(&buf2, g2))
	assert.Equal(t, buf1.Bytes(), buf2.Bytes(), "serialized graphs must be byte-identical")
}

func TestBuildIdempotent(t *testing.T) {
	h := newFakeHandler(&fakeNode{key: "only@1.0"})
	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["only@1.0"]})

	g1 := builder.Build()
	g2 := builder.Build()
	assert.Same(t, g1, g2)
}

func TestAddDependenciesAfterBuildPanics(t *testing.T) {
	h := newFakeHandler(&fakeNode{key: "only@1.0"})
	builder := NewBuilder[*fakeNode](h)
	builder.Build()

	assert.Panics(t, func() {
		builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["only@1.0"]})
	})
}

func TestPackagesExcludeFirstPartyProjects(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "app@1.0", children: []string{"shared-lib@0.1", "dep@1.0"}},
		&fakeNode{key: "shared-lib@0.1", project: true},
		&fakeNode{key: "dep@1.0"},
	)

	builder := NewBuilder[*fakeNode](h)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["app@1.0"]})
	pkgs := builder.Packages()

	require.Len(t, pkgs, 2)
	for _, pkg := range pkgs {
		assert.NotEqual(t, "shared-lib", pkg.ID.Name)
	}
	assert.Equal(t, 1, h.createCalls["shared-lib@0.1"], "project nodes are probed exactly once")

	// The project node still exists in the graph with project linkage.
	g := builder.Build()
	idx, ok := g.NodeByID(model.Identifier{Type: "test", Name: "shared-lib", Version: "0.1"})
	require.True(t, ok)
	assert.Equal(t, model.LinkageProjectStatic, g.Nodes[idx].Linkage)
}

func TestPackageResolutionIssuesAttachToNodes(t *testing.T) {
	h := newFakeHandler(&fakeNode{key: "broken@1.0"})
	failing := &failingHandler{fakeHandler: h}

	builder := NewBuilder[*fakeNode](failing)
	builder.AddDependencies(testProject("root"), "runtime", []*fakeNode{h.nodes["broken@1.0"]})
	g := builder.Build()

	require.Len(t, g.Nodes, 1)
	require.Len(t, g.Nodes[0].Issues, 1)
	assert.Equal(t, model.SeverityError, g.Nodes[0].Issues[0].Severity)
}

// failingHandler reports a resolution failure for every package.
type failingHandler struct {
	*fakeHandler
}

func (h *failingHandler) CreatePackage(n *fakeNode, issues *model.IssueCollector) *model.Package {
	issues.Errorf("test", "registry unreachable for %s", n.key)
	return &model.Package{ID: h.Identify(n)}
}

func TestSyncBuilder(t *testing.T) {
	h := newFakeHandler(
		&fakeNode{key: "x@1.0"},
		&fakeNode{key: "y@1.0"},
	)
	builder := NewSyncBuilder[*fakeNode](h)

	done := make(chan struct{})
	go func() {
		builder.AddDependencies(testProject("p"), "runtime", []*fakeNode{h.nodes["x@1.0"]})
		close(done)
	}()
	builder.AddDependencies(testProject("p"), "dev", []*fakeNode{h.nodes["y@1.0"]})
	<-done

	g := builder.Build()
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, builder.Packages(), 2)
}
