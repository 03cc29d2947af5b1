package analyzer

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/model"
)

// Result is one ecosystem adapter's output for a run.
type Result struct {
	Ecosystem             string `yaml:"ecosystem" json:"ecosystem"`
	depgraph.ProjectGraph `yaml:",inline" json:",inline"`
}

// Run is the persisted result of one analyzer invocation: one compact graph
// per detected ecosystem plus run-level issues (for example an adapter that
// failed outright). The read path (tree materialization, package listing)
// operates on a deserialized Run, possibly in a different process.
type Run struct {
	Root    string        `yaml:"root" json:"root"`
	Results []Result      `yaml:"results" json:"results"`
	Issues  []model.Issue `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// ResultFor returns the result that recorded scopes for project, if any.
func (r *Run) ResultFor(project model.Identifier) (*Result, bool) {
	for i := range r.Results {
		if _, ok := r.Results[i].Graph.Scopes[project]; ok {
			return &r.Results[i], true
		}
	}
	return nil, false
}

// Projects lists every project across all results, sorted.
func (r *Run) Projects() []model.Identifier {
	var projects []model.Identifier
	for i := range r.Results {
		projects = append(projects, r.Results[i].Graph.Projects()...)
	}
	return projects
}

// WriteRunYAML serializes the run to w.
func WriteRunYAML(w io.Writer, run *Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return err
	}
	return enc.Close()
}

// ReadRunYAML deserializes a run from r.
func ReadRunYAML(r io.Reader) (*Run, error) {
	var run Run
	if err := yaml.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("decode analyzer run: %w", err)
	}
	return &run, nil
}

// WriteRunJSON serializes the run to w with indentation.
func WriteRunJSON(w io.Writer, run *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

// ReadRunJSON deserializes a run from r.
func ReadRunJSON(r io.Reader) (*Run, error) {
	var run Run
	if err := json.NewDecoder(r).Decode(&run); err != nil {
		return nil, fmt.Errorf("decode analyzer run: %w", err)
	}
	return &run, nil
}
