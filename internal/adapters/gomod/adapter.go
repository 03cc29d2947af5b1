// Package gomod analyzes Go projects. The module relation comes from
// `go mod graph` restricted to the selected versions, pre-filtered to modules
// whose packages the project actually imports, so unused transitive
// requirements do not inflate the graph.
package gomod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/logging"
	"github.com/depscope/depscope/internal/model"
)

// Adapter analyzes one Go module directory per Analyze call.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "go" }

// Detect reports whether dir contains a go.mod.
func (a *Adapter) Detect(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil
}

// Analyze builds the compact dependency graph for the Go module in dir.
func (a *Adapter) Analyze(ctx context.Context, dir string) (*depgraph.ProjectGraph, error) {
	gomod, err := parseGoMod(dir)
	if err != nil {
		return nil, err
	}

	mods, err := listModules(dir)
	if err != nil {
		return nil, fmt.Errorf("go list modules: %w", err)
	}
	reqs, err := modGraph(dir)
	if err != nil {
		return nil, fmt.Errorf("go mod graph: %w", err)
	}

	var projectIssues []model.Issue
	used, err := usedModules(dir)
	if err != nil {
		logging.Warnf("[go] package load failed, keeping all modules: %v", err)
		projectIssues = append(projectIssues, model.Issue{
			Source:   "go",
			Message:  fmt.Sprintf("could not determine used modules, graph includes unused requirements: %v", err),
			Severity: model.SeverityHint,
		})
		used = nil
	}

	nodes := resolveNodes(mods, reqs, gomod, used)
	project := model.Identifier{Type: "go", Name: gomod.path}
	logging.Debugf("[go] %s: %d modules, %d requirement edges", gomod.path, len(nodes), len(reqs))

	roots := make([]*modNode, 0, len(gomod.direct))
	for _, path := range gomod.direct {
		n, ok := nodes[path]
		if !ok {
			projectIssues = append(projectIssues, model.Issue{
				Source:   "go",
				Message:  fmt.Sprintf("direct requirement %q is not in the module list", path),
				Severity: model.SeverityError,
			})
			continue
		}
		roots = append(roots, n)
	}

	builder := depgraph.NewBuilder[*modNode](handler{})
	builder.AddDependencies(project, "main", roots)

	return &depgraph.ProjectGraph{
		Project:  project,
		Graph:    builder.Build(),
		Packages: builder.Packages(),
		Issues:   projectIssues,
	}, nil
}

// goModInfo is what the adapter needs from go.mod: the module path, the
// direct (non-indirect) requirements in declaration order, and the set of
// modules replaced by a local directory, which are first-party projects.
type goModInfo struct {
	path          string
	direct        []string
	localReplaces map[string]bool
}

func parseGoMod(dir string) (*goModInfo, error) {
	path := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse go.mod: %w", err)
	}
	info := &goModInfo{
		path:          f.Module.Mod.Path,
		localReplaces: make(map[string]bool),
	}
	for _, req := range f.Require {
		if !req.Indirect {
			info.direct = append(info.direct, req.Mod.Path)
		}
	}
	for _, rep := range f.Replace {
		// A replacement without a version is a local directory, i.e. another
		// first-party project in the same repository.
		if rep.New.Version == "" {
			info.localReplaces[rep.Old.Path] = true
		}
	}
	return info, nil
}

// usedModules loads the project's packages and returns the set of module
// paths their transitive imports come from. This is the adapter-side
// pre-filter: `go mod graph` lists every requirement, including modules no
// imported package belongs to.
func usedModules(dir string) (map[string]bool, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps | packages.NeedModule,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool)
	seen := make(map[string]bool)
	var walk func(p *packages.Package)
	walk = func(p *packages.Package) {
		if seen[p.PkgPath] {
			return
		}
		seen[p.PkgPath] = true
		if p.Module != nil {
			used[p.Module.Path] = true
		}
		for _, imp := range p.Imports {
			walk(imp)
		}
	}
	for _, p := range pkgs {
		walk(p)
	}
	return used, nil
}

// resolveNodes builds linked raw nodes for the selected module versions,
// filtered to the used set when one is available, and wires requirement
// edges between them.
func resolveNodes(mods []Module, reqs []requirement, gomod *goModInfo, used map[string]bool) map[string]*modNode {
	selected := make(map[string]string, len(mods))
	for _, m := range mods {
		selected[m.Path] = m.Version
	}
	if len(selected) == 0 {
		selected = selectedVersions(reqs)
	}

	direct := make(map[string]bool, len(gomod.direct))
	for _, path := range gomod.direct {
		direct[path] = true
	}
	// Direct requirements always stay: a declared but unimported dependency
	// should show up in the graph rather than silently vanish.
	keep := func(path string) bool {
		if used == nil {
			return true
		}
		return used[path] || direct[path] || gomod.localReplaces[path]
	}

	localReplace := make(map[string]bool, len(mods))
	for _, m := range mods {
		if m.Main {
			delete(selected, m.Path)
			continue
		}
		if m.Replace != nil && m.Replace.Version == "" {
			localReplace[m.Path] = true
		}
	}
	delete(selected, gomod.path)

	nodes := make(map[string]*modNode, len(selected))
	for path, version := range selected {
		if !keep(path) {
			continue
		}
		nodes[path] = &modNode{
			path:       path,
			version:    version,
			firstParty: gomod.localReplaces[path] || localReplace[path],
		}
	}

	for _, r := range reqs {
		// Keep only edges out of each module's selected version; go mod graph
		// also lists requirements of superseded versions.
		if r.fromPath != gomod.path && selected[r.fromPath] != r.fromVersion {
			continue
		}
		from, ok := nodes[r.fromPath]
		if !ok {
			continue
		}
		to, ok := nodes[r.toPath]
		if !ok {
			continue
		}
		from.children = append(from.children, to)
	}
	return nodes
}
