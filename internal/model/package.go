package model

// RemoteArtifact points at a downloadable artifact for a package.
type RemoteArtifact struct {
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	Hash string `yaml:"hash,omitempty" json:"hash,omitempty"`
}

// VCSInfo describes the version control location of a package's source.
type VCSInfo struct {
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Revision string `yaml:"revision,omitempty" json:"revision,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Package is the metadata record for one third-party package, resolved at
// most once per Identifier per run. It is one of the two types handed to the
// downstream license and report subsystems.
type Package struct {
	ID               Identifier     `yaml:"id" json:"id"`
	PURL             string         `yaml:"purl,omitempty" json:"purl,omitempty"`
	DeclaredLicenses []string       `yaml:"declared_licenses,omitempty" json:"declared_licenses,omitempty"`
	Authors          []string       `yaml:"authors,omitempty" json:"authors,omitempty"`
	Description      string         `yaml:"description,omitempty" json:"description,omitempty"`
	Homepage         string         `yaml:"homepage,omitempty" json:"homepage,omitempty"`
	SourceArtifact   RemoteArtifact `yaml:"source_artifact,omitempty" json:"source_artifact,omitempty"`
	VCS              VCSInfo        `yaml:"vcs,omitempty" json:"vcs,omitempty"`
}

// PackageReference is one node of a materialized scope tree: the identifier
// of a package together with how its parent consumes it and its own expanded
// dependencies. A reference that closes a dependency cycle has no
// dependencies of its own, however deep the original cycle ran.
type PackageReference struct {
	ID           Identifier         `yaml:"id" json:"id"`
	Linkage      Linkage            `yaml:"linkage" json:"linkage"`
	Issues       []Issue            `yaml:"issues,omitempty" json:"issues,omitempty"`
	Dependencies []PackageReference `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}
