package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope/internal/adapters/composer"
	"github.com/depscope/depscope/internal/adapters/gomod"
	"github.com/depscope/depscope/internal/adapters/node"
	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/logging"
	"github.com/depscope/depscope/internal/model"
	"github.com/depscope/depscope/internal/registry"
)

// Adapter is one ecosystem analyzer. Detect inspects a directory for the
// ecosystem's marker files; Analyze builds the compact dependency graph for
// it. Adapters are independent: a failure in one does not affect the others.
type Adapter interface {
	Name() string
	Detect(dir string) bool
	Analyze(ctx context.Context, dir string) (*depgraph.ProjectGraph, error)
}

// Options configures adapter construction.
type Options struct {
	// NpmRegistry overrides the npm registry URL. Empty disables registry
	// lookups entirely; node package metadata then comes from node_modules
	// only.
	NpmRegistry string
}

// ForEcosystem returns the adapters to run for the given specifier. name may
// be "auto", "go", "node", or "composer"; "auto" selects every ecosystem
// whose marker files are present in dir.
func ForEcosystem(name, dir string, opts Options) ([]Adapter, error) {
	all := []Adapter{gomod.New(), newNodeAdapter(opts), composer.New()}

	if name == "auto" {
		var detected []Adapter
		for _, a := range all {
			if a.Detect(dir) {
				detected = append(detected, a)
			}
		}
		if len(detected) == 0 {
			return nil, fmt.Errorf("no supported ecosystem detected in %s", dir)
		}
		return detected, nil
	}

	for _, a := range all {
		if a.Name() == name {
			return []Adapter{a}, nil
		}
	}
	return nil, fmt.Errorf("unknown ecosystem %q; choose auto|go|node|composer", name)
}

func newNodeAdapter(opts Options) *node.Adapter {
	a := node.New()
	if opts.NpmRegistry != "" {
		a.Registry = registry.NewClient(opts.NpmRegistry)
	}
	return a
}

// Analyze runs every adapter against dir in parallel and collects their
// results. Builders share no state, so the only coordination is gathering
// the per-adapter outputs. An adapter failure is isolated: it is recorded as
// an error-severity issue on the run and the remaining adapters still
// produce graphs. Analyze fails only when every adapter fails.
func Analyze(ctx context.Context, dir string, adapters []Adapter) (*Run, error) {
	run := &Run{Root: dir}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, adapter := range adapters {
		adapter := adapter
		g.Go(func() error {
			result, err := adapter.Analyze(ctx, dir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logging.Errorf("[%s] analysis failed: %v", adapter.Name(), err)
				run.Issues = append(run.Issues, model.Issue{
					Source:   adapter.Name(),
					Message:  fmt.Sprintf("analysis failed: %v", err),
					Severity: model.SeverityError,
				})
				return nil
			}
			run.Results = append(run.Results, Result{
				Ecosystem:    adapter.Name(),
				ProjectGraph: *result,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(run.Results) == 0 {
		return nil, fmt.Errorf("all adapters failed for %s", dir)
	}
	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].Ecosystem < run.Results[j].Ecosystem
	})
	return run, nil
}

// MergePackages unions the package sets of all results, deduplicated by
// Identifier and sorted. The union is order-independent: packages for the
// same Identifier are identical within a run.
func MergePackages(results []Result) []model.Package {
	seen := make(map[model.Identifier]bool)
	var merged []model.Package
	for _, r := range results {
		for _, pkg := range r.Packages {
			if seen[pkg.ID] {
				continue
			}
			seen[pkg.ID] = true
			merged = append(merged, pkg)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID.Less(merged[j].ID) })
	return merged
}
