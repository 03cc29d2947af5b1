package sbom

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/depscope/depscope/internal/analyzer"
	"github.com/depscope/depscope/internal/sbom"
)

var toolVersion = "dev"

// Run executes the sbom subcommand: it renders the merged package set of a
// persisted analyzer run as a CycloneDX bill of materials.
func Run(args []string) int {
	fs := flag.NewFlagSet("sbom", flag.ExitOnError)
	out := fs.String("out", "", "write the BOM to this file instead of stdout")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: depscope sbom [--out file] <run file>")
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

	bom := sbom.Generate(analyzer.MergePackages(run.Results), toolVersion)

	w := os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bom); err != nil {
		fmt.Fprintf(os.Stderr, "write BOM: %v\n", err)
		return 1
	}
	return 0
}
