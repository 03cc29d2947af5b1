// Package sbom renders the merged package set of an analyzer run as a
// CycloneDX bill of materials.
package sbom

import (
	"time"

	"github.com/depscope/depscope/internal/model"
)

type License struct {
	ID string `json:"id"`
}

type LicenseChoice struct {
	License License `json:"license"`
}

type ExternalReference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Component struct {
	Type               string              `json:"type"`
	Name               string              `json:"name"`
	Version            string              `json:"version,omitempty"`
	Description        string              `json:"description,omitempty"`
	PackageURL         string              `json:"purl,omitempty"`
	Licenses           []LicenseChoice     `json:"licenses,omitempty"`
	Author             string              `json:"author,omitempty"`
	ExternalReferences []ExternalReference `json:"externalReferences,omitempty"`
}

type BOMTool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type BOMMetadata struct {
	Timestamp string    `json:"timestamp"`
	Tools     []BOMTool `json:"tools"`
}

type BOM struct {
	BOMFormat   string      `json:"bomFormat"`
	SpecVersion string      `json:"specVersion"`
	Version     int         `json:"version"`
	Metadata    BOMMetadata `json:"metadata"`
	Components  []Component `json:"components"`
}

// Generate builds a CycloneDX 1.4 BOM from the resolved packages. toolVersion
// is the depscope build stamp.
func Generate(packages []model.Package, toolVersion string) BOM {
	components := make([]Component, 0, len(packages))
	for _, pkg := range packages {
		c := Component{
			Type:        "library",
			Name:        componentName(pkg.ID),
			Version:     pkg.ID.Version,
			Description: pkg.Description,
			PackageURL:  pkg.PURL,
		}
		for _, license := range pkg.DeclaredLicenses {
			c.Licenses = append(c.Licenses, LicenseChoice{License: License{ID: license}})
		}
		if len(pkg.Authors) > 0 {
			c.Author = pkg.Authors[0]
		}
		if pkg.VCS.URL != "" {
			c.ExternalReferences = append(c.ExternalReferences, ExternalReference{Type: "vcs", URL: pkg.VCS.URL})
		}
		if pkg.Homepage != "" {
			c.ExternalReferences = append(c.ExternalReferences, ExternalReference{Type: "website", URL: pkg.Homepage})
		}
		components = append(components, c)
	}

	return BOM{
		BOMFormat:   "CycloneDX",
		SpecVersion: "1.4",
		Version:     1,
		Metadata: BOMMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Tools: []BOMTool{
				{Name: "depscope", Version: toolVersion},
			},
		},
		Components: components,
	}
}

func componentName(id model.Identifier) string {
	if id.Namespace != "" {
		return id.Namespace + "/" + id.Name
	}
	return id.Name
}
