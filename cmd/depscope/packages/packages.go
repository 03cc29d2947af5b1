package packages

import (
	"flag"
	"fmt"
	"os"

	"github.com/depscope/depscope/internal/analyzer"
	"github.com/depscope/depscope/internal/report"
)

// Run executes the packages subcommand: it lists the merged third-party
// package metadata from a persisted analyzer run.
func Run(args []string) int {
	fs := flag.NewFlagSet("packages", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: depscope packages [--json] <run file>")
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer f.Close()

	run, err := analyzer.ReadRunYAML(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	merged := analyzer.MergePackages(run.Results)
	if *jsonOut {
		if err := report.WritePackagesJSON(os.Stdout, merged); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	report.WritePackages(os.Stdout, merged)
	report.WriteIssues(os.Stderr, run.Issues)
	return 0
}
