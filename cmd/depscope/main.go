package main

import (
	"fmt"
	"os"

	"github.com/depscope/depscope/cmd/depscope/analyze"
	"github.com/depscope/depscope/cmd/depscope/packages"
	"github.com/depscope/depscope/cmd/depscope/sbom"
	"github.com/depscope/depscope/cmd/depscope/tree"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "analyze":
		os.Exit(analyze.Run(os.Args[2:]))
	case "tree":
		os.Exit(tree.Run(os.Args[2:]))
	case "packages":
		os.Exit(packages.Run(os.Args[2:]))
	case "sbom":
		os.Exit(sbom.Run(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `depscope - dependency graph analyzer

Usage:
  depscope analyze  [--out file] [--format yaml|json] [--ecosystem auto|go|node|composer] [--npm-registry url] [--verbose] [dir]
  depscope tree     [--project id] [--scope name] [--json] <run file>
  depscope packages [--json] <run file>
  depscope sbom     [--out file] <run file>
  depscope version`)
}
