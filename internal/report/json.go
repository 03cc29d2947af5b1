package report

import (
	"encoding/json"
	"io"

	"github.com/depscope/depscope/internal/model"
)

// TreeReport is the JSON shape for one materialized scope tree.
type TreeReport struct {
	Project model.Identifier         `json:"project"`
	Scope   string                   `json:"scope"`
	Tree    []model.PackageReference `json:"tree"`
}

func WriteTreeJSON(w io.Writer, r TreeReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WritePackagesJSON(w io.Writer, packages []model.Package) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(packages)
}
