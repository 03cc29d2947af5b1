package analyze

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/depscope/depscope/internal/analyzer"
	"github.com/depscope/depscope/internal/logging"
)

// Run executes the analyze subcommand and returns a process exit code.
func Run(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	out := fs.String("out", "", "write the run result to this file instead of stdout")
	format := fs.String("format", "yaml", "output format: yaml or json")
	ecosystem := fs.String("ecosystem", "auto", "ecosystem to analyze: auto|go|node|composer")
	npmRegistry := fs.String("npm-registry", "", "npm registry URL for package metadata lookups (empty disables them)")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	fs.Parse(args)

	if *verbose {
		logging.SetVerbose(true)
	}
	if *format != "yaml" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q; choose yaml or json\n", *format)
		return 2
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	adapters, err := analyzer.ForEcosystem(*ecosystem, dir, analyzer.Options{NpmRegistry: *npmRegistry})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	run, err := analyzer.Analyze(context.Background(), dir, adapters)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if *format == "json" {
		err = analyzer.WriteRunJSON(w, run)
	} else {
		err = analyzer.WriteRunYAML(w, run)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "write result: %v\n", err)
		return 1
	}
	return 0
}
