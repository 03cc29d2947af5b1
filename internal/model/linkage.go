package model

import "fmt"

// Linkage classifies how a dependency is consumed. The project variants mark
// edges into another first-party project within the same analyzer run rather
// than into a third-party package; downstream license and attribution logic
// treats those differently, so the distinction survives compaction.
type Linkage string

const (
	LinkageStatic         Linkage = "static"
	LinkageDynamic        Linkage = "dynamic"
	LinkageProjectStatic  Linkage = "project-static"
	LinkageProjectDynamic Linkage = "project-dynamic"
)

// IsProject reports whether the linkage targets a first-party project.
func (l Linkage) IsProject() bool {
	return l == LinkageProjectStatic || l == LinkageProjectDynamic
}

// ParseLinkage validates a serialized linkage name.
func ParseLinkage(s string) (Linkage, error) {
	switch Linkage(s) {
	case LinkageStatic, LinkageDynamic, LinkageProjectStatic, LinkageProjectDynamic:
		return Linkage(s), nil
	}
	return "", fmt.Errorf("unknown linkage %q", s)
}
