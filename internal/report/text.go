package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/depscope/depscope/internal/model"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
)

func severityColor(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return colorRed
	case model.SeverityWarning:
		return colorYellow
	default:
		return colorGreen
	}
}

// WriteTree renders a materialized scope tree with two-space indentation.
// References without children that appear elsewhere with children are cycle
// break points; they render as plain leaves, which is exactly what they are.
func WriteTree(w io.Writer, project model.Identifier, scope string, refs []model.PackageReference) {
	fmt.Fprintf(w, "%s%s=== %s [%s] ===%s\n\n", colorBold, colorCyan, project, scope, colorReset)
	for _, ref := range refs {
		writeRef(w, ref, 0)
	}
}

func writeRef(w io.Writer, ref model.PackageReference, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s (%s)\n", indent, ref.ID, ref.Linkage)
	for _, issue := range ref.Issues {
		color := severityColor(issue.Severity)
		fmt.Fprintf(w, "%s  %s! %s%s\n", indent, color, issue.Message, colorReset)
	}
	for _, dep := range ref.Dependencies {
		writeRef(w, dep, depth+1)
	}
}

// WritePackages renders the merged package table with license and origin
// details.
func WritePackages(w io.Writer, packages []model.Package) {
	fmt.Fprintf(w, "%s%s=== Packages (%d) ===%s\n\n", colorBold, colorCyan, len(packages), colorReset)
	for _, pkg := range packages {
		fmt.Fprintf(w, "%s%s%s\n", colorBold, pkg.ID, colorReset)
		if len(pkg.DeclaredLicenses) > 0 {
			fmt.Fprintf(w, "  license: %s\n", strings.Join(pkg.DeclaredLicenses, ", "))
		}
		if len(pkg.Authors) > 0 {
			fmt.Fprintf(w, "  authors: %s\n", strings.Join(pkg.Authors, ", "))
		}
		if pkg.Homepage != "" {
			fmt.Fprintf(w, "  homepage: %s\n", pkg.Homepage)
		}
		if pkg.VCS.URL != "" {
			fmt.Fprintf(w, "  vcs: %s\n", pkg.VCS.URL)
		}
	}
}

// WriteIssues renders run- and project-level issues.
func WriteIssues(w io.Writer, issues []model.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s%s=== Issues (%d) ===%s\n\n", colorBold, colorCyan, len(issues), colorReset)
	for _, issue := range issues {
		color := severityColor(issue.Severity)
		fmt.Fprintf(w, "%s[%s]%s %s: %s\n", color, strings.ToUpper(string(issue.Severity)), colorReset, issue.Source, issue.Message)
	}
}
