// Package node analyzes npm projects: it parses the project lockfile into a
// flat package set, resolves the declared dependency relation over it, and
// feeds the result through the generic graph builder.
package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/logging"
	"github.com/depscope/depscope/internal/model"
	"github.com/depscope/depscope/internal/registry"
)

// prefetchWorkers bounds concurrent registry lookups per run.
const prefetchWorkers = 8

// Adapter analyzes one npm project directory per Analyze call.
type Adapter struct {
	// Registry supplies package metadata missing from node_modules.
	// Optional; without it, missing metadata becomes a per-node issue.
	Registry *registry.Client
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "node" }

// Detect reports whether dir looks like an npm project with a lockfile.
func (a *Adapter) Detect(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err != nil {
		return false
	}
	for _, lock := range []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, lock)); err == nil {
			return true
		}
	}
	return false
}

// Analyze builds the compact dependency graph for the npm project in dir.
func (a *Adapter) Analyze(ctx context.Context, dir string) (*depgraph.ProjectGraph, error) {
	locked, err := LoadLockfile(dir)
	if err != nil {
		return nil, err
	}
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("read project manifest: %w", err)
	}

	project := projectIdentifier(dir, manifest)
	nodes := resolveNodes(locked)
	logging.Debugf("[node] %s: %d locked packages, %d resolved nodes", dir, len(locked), len(nodes))

	if a.Registry != nil {
		a.prefetch(ctx, nodes)
	}

	var projectIssues []model.Issue
	builder := depgraph.NewBuilder[*pkgNode](&handler{ctx: ctx, registry: a.Registry})
	builder.AddDependencies(project, "dependencies", lookupRoots(nodes, manifest.Dependencies, &projectIssues))
	builder.AddDependencies(project, "devDependencies", lookupRoots(nodes, manifest.DevDependencies, &projectIssues))

	return &depgraph.ProjectGraph{
		Project:  project,
		Graph:    builder.Build(),
		Packages: builder.Packages(),
		Issues:   projectIssues,
	}, nil
}

func projectIdentifier(dir string, manifest Manifest) model.Identifier {
	name := manifest.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	namespace, bare := splitScope(name)
	return model.Identifier{Type: "npm", Namespace: namespace, Name: bare, Version: manifest.Version}
}

// resolveNodes turns the flat lock entries into linked raw nodes. Lockfiles
// may carry several versions of one name (nested installs); dependency names
// resolve against the hoisted candidate, the highest version that parses as
// semver. Unresolvable dependency names become issues on the declaring node,
// not errors.
func resolveNodes(locked []LockPackage) map[string]*pkgNode {
	hoisted := make(map[string]*LockPackage)
	for i := range locked {
		pkg := &locked[i]
		current, ok := hoisted[pkg.Name]
		if !ok || newerVersion(pkg.Version, current.Version) {
			hoisted[pkg.Name] = pkg
		}
	}

	nodes := make(map[string]*pkgNode, len(hoisted))
	for name, pkg := range hoisted {
		nodes[name] = &pkgNode{name: name, version: pkg.Version, dir: pkg.Dir}
	}
	for name, pkg := range hoisted {
		n := nodes[name]
		for _, depName := range pkg.Dependencies {
			child, ok := nodes[depName]
			if !ok {
				n.issues = append(n.issues, model.Issue{
					Source:   "node",
					Message:  fmt.Sprintf("dependency %q of %s@%s is not in the lockfile", depName, pkg.Name, pkg.Version),
					Severity: model.SeverityWarning,
				})
				continue
			}
			n.children = append(n.children, child)
		}
	}
	return nodes
}

func newerVersion(candidate, current string) bool {
	vc, errC := semver.NewVersion(candidate)
	vu, errU := semver.NewVersion(current)
	if errC != nil || errU != nil {
		return candidate > current
	}
	return vc.GreaterThan(vu)
}

func lookupRoots(nodes map[string]*pkgNode, names []string, projectIssues *[]model.Issue) []*pkgNode {
	var roots []*pkgNode
	for _, name := range names {
		n, ok := nodes[name]
		if !ok {
			*projectIssues = append(*projectIssues, model.Issue{
				Source:   "node",
				Message:  fmt.Sprintf("direct dependency %q declared in package.json is not in the lockfile", name),
				Severity: model.SeverityError,
			})
			continue
		}
		roots = append(roots, n)
	}
	return roots
}

// prefetch warms the registry cache for packages without installed metadata,
// bounding concurrency to stay within registry rate limits. Failures are left
// for CreatePackage to report as issues.
func (a *Adapter) prefetch(ctx context.Context, nodes map[string]*pkgNode) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchWorkers)
	for _, n := range nodes {
		if _, err := os.Stat(filepath.Join(n.dir, "package.json")); err == nil {
			continue
		}
		n := n
		g.Go(func() error {
			if _, err := a.Registry.PackageVersion(ctx, n.name, n.version); err != nil {
				logging.Debugf("[node] prefetch %s@%s: %v", n.name, n.version, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
