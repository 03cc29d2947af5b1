package depgraph

import "github.com/depscope/depscope/internal/model"

// ProjectGraph bundles one builder's outputs for one analyzed project: the
// compact graph, the resolved third-party packages, and any project-level
// issues that are not attached to a particular node (for example an
// unreadable manifest entry).
type ProjectGraph struct {
	Project  model.Identifier `yaml:"project" json:"project"`
	Graph    *Graph           `yaml:"graph" json:"graph"`
	Packages []model.Package  `yaml:"packages,omitempty" json:"packages,omitempty"`
	Issues   []model.Issue    `yaml:"issues,omitempty" json:"issues,omitempty"`
}
