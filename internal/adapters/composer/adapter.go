// Package composer analyzes PHP projects from composer.lock. Lock entries
// carry their own metadata, so this adapter resolves packages without any
// network I/O.
package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/logging"
	"github.com/depscope/depscope/internal/model"
)

// Adapter analyzes one composer project directory per Analyze call.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "composer" }

// Detect reports whether dir contains a composer.lock.
func (a *Adapter) Detect(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "composer.lock"))
	return err == nil
}

// Analyze builds the compact dependency graph for the composer project in dir.
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
	logging.Debugf("[composer] %s: %d locked packages", dir, len(locked))

	var projectIssues []model.Issue
	builder := depgraph.NewBuilder[*pkgNode](handler{})
	builder.AddDependencies(project, "require", lookupRoots(nodes, manifest.Require, &projectIssues))
	builder.AddDependencies(project, "require-dev", lookupRoots(nodes, manifest.RequireDev, &projectIssues))

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
	namespace, bare := splitVendor(name)
	return model.Identifier{Type: "composer", Namespace: namespace, Name: bare}
}

func resolveNodes(locked []LockPackage) map[string]*pkgNode {
	nodes := make(map[string]*pkgNode, len(locked))
	for i := range locked {
		pkg := &locked[i]
		nodes[pkg.Name] = &pkgNode{pkg: pkg}
	}
	for _, n := range nodes {
		for _, depName := range n.pkg.Dependencies {
			child, ok := nodes[depName]
			if !ok {
				n.issues = append(n.issues, model.Issue{
					Source:   "composer",
					Message:  fmt.Sprintf("requirement %q of %s is not in composer.lock", depName, n.pkg.Name),
					Severity: model.SeverityWarning,
				})
				continue
			}
			n.children = append(n.children, child)
		}
	}
	return nodes
}

func lookupRoots(nodes map[string]*pkgNode, names []string, projectIssues *[]model.Issue) []*pkgNode {
	var roots []*pkgNode
	for _, name := range names {
		n, ok := nodes[name]
		if !ok {
			*projectIssues = append(*projectIssues, model.Issue{
				Source:   "composer",
				Message:  fmt.Sprintf("direct requirement %q declared in composer.json is not in composer.lock", name),
				Severity: model.SeverityError,
			})
			continue
		}
		roots = append(roots, n)
	}
	return roots
}

// splitVendor splits "vendor/name" into namespace and name.
func splitVendor(full string) (namespace, name string) {
	if idx := strings.Index(full, "/"); idx > 0 {
		return full[:idx], full[idx+1:]
	}
	return "", full
}
