package tree

import (
	"flag"
	"fmt"
	"os"

	"github.com/depscope/depscope/internal/analyzer"
	"github.com/depscope/depscope/internal/model"
	"github.com/depscope/depscope/internal/report"
)

// Run executes the tree subcommand: it materializes one project/scope tree
// from a persisted analyzer run. This is the read path; it never re-analyzes.
func Run(args []string) int {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	projectFlag := fs.String("project", "", "project identifier (defaults to the run's only project)")
	scopeFlag := fs.String("scope", "", "scope name (omit to list available scopes)")
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: depscope tree [--project id] [--scope name] [--json] <run file>")
		return 2
	}

	run, code := readRun(fs.Arg(0))
	if code != 0 {
		return code
	}

	project, code := resolveProject(run, *projectFlag)
	if code != 0 {
		return code
	}

	result, ok := run.ResultFor(project)
	if !ok {
		fmt.Fprintf(os.Stderr, "no result for project %s\n", project)
		return 1
	}

	if *scopeFlag == "" {
		fmt.Fprintf(os.Stderr, "scopes for %s:\n", project)
		for _, name := range result.Graph.ScopeNames(project) {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		return 2
	}

	refs, err := result.Graph.Materialize(project, *scopeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		if err := report.WriteTreeJSON(os.Stdout, report.TreeReport{Project: project, Scope: *scopeFlag, Tree: refs}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	report.WriteTree(os.Stdout, project, *scopeFlag, refs)
	return 0
}

func readRun(path string) (*analyzer.Run, int) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	defer f.Close()
	run, err := analyzer.ReadRunYAML(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, 1
	}
	return run, 0
}

func resolveProject(run *analyzer.Run, flagValue string) (model.Identifier, int) {
	if flagValue != "" {
		project, err := model.ParseIdentifier(flagValue)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return model.Identifier{}, 2
		}
		return project, 0
	}
	projects := run.Projects()
	if len(projects) != 1 {
		fmt.Fprintf(os.Stderr, "run has %d projects; pick one with --project:\n", len(projects))
		for _, p := range projects {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		return model.Identifier{}, 2
	}
	return projects[0], 0
}
