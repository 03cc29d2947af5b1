package node

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/depscope/depscope/internal/model"
	"github.com/depscope/depscope/internal/registry"
)

// pkgNode is the raw dependency node the npm handler feeds into the graph
// builder. Children are resolved pointers into the same node set and may form
// cycles (npm allows mutually dependent packages); the builder breaks them.
type pkgNode struct {
	name     string
	version  string
	dir      string
	children []*pkgNode
	issues   []model.Issue
}

// handler implements depgraph.Handler for npm packages. Package metadata
// comes from the installed package.json when present, falling back to the
// registry client when one is configured.
type handler struct {
	ctx      context.Context
	registry *registry.Client
}

func (h *handler) Identify(n *pkgNode) model.Identifier {
	namespace, name := splitScope(n.name)
	return model.Identifier{Type: "npm", Namespace: namespace, Name: name, Version: n.version}
}

func (h *handler) Children(n *pkgNode) []*pkgNode {
	return n.children
}

func (h *handler) Linkage(n *pkgNode) model.Linkage {
	return model.LinkageDynamic
}

func (h *handler) Issues(n *pkgNode) []model.Issue {
	return n.issues
}

func (h *handler) CreatePackage(n *pkgNode, issues *model.IssueCollector) *model.Package {
	id := h.Identify(n)
	pkg := &model.Package{ID: id, PURL: npmPURL(n.name, n.version)}

	if fillFromInstalled(pkg, n.dir) {
		return pkg
	}
	if h.registry == nil {
		issues.Warnf("node", "no installed metadata for %s and no registry configured", id)
		return pkg
	}

	meta, err := h.registry.PackageVersion(h.ctx, n.name, n.version)
	if err != nil {
		issues.Errorf("node", "registry lookup for %s failed: %v", id, err)
		return pkg
	}
	if meta.License != "" {
		pkg.DeclaredLicenses = []string{meta.License}
	}
	pkg.Authors = meta.Authors
	pkg.Description = meta.Description
	pkg.Homepage = meta.Homepage
	pkg.SourceArtifact = model.RemoteArtifact{URL: meta.Tarball, Hash: meta.Shasum}
	pkg.VCS = model.VCSInfo{Type: meta.Repository.Type, URL: meta.Repository.URL}
	return pkg
}

// fillFromInstalled reads <dir>/package.json and reports whether it supplied
// any metadata.
func fillFromInstalled(pkg *model.Package, dir string) bool {
	if dir == "" {
		return false
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	// author and license use free-form shapes in older packages, so both
	// decode leniently.
	var raw struct {
		Description string          `json:"description"`
		Homepage    string          `json:"homepage"`
		License     json.RawMessage `json:"license"`
		Author      json.RawMessage `json:"author"`
		Repository  struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"repository"`
	}
	if json.Unmarshal(data, &raw) != nil {
		return false
	}
	if license := lenientName(raw.License, "type"); license != "" {
		pkg.DeclaredLicenses = []string{license}
	}
	if author := lenientName(raw.Author, "name"); author != "" {
		pkg.Authors = []string{author}
	}
	pkg.Description = raw.Description
	pkg.Homepage = raw.Homepage
	pkg.VCS = model.VCSInfo{Type: raw.Repository.Type, URL: raw.Repository.URL}
	return true
}

// lenientName extracts a value that may be either a bare JSON string or an
// object carrying the value under key.
func lenientName(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]interface{}
	if json.Unmarshal(raw, &obj) == nil {
		if v, ok := obj[key].(string); ok {
			return v
		}
	}
	return ""
}

// splitScope splits "@scope/name" into namespace "scope" and the bare name.
func splitScope(full string) (namespace, name string) {
	if strings.HasPrefix(full, "@") {
		if idx := strings.Index(full, "/"); idx > 0 {
			return full[1:idx], full[idx+1:]
		}
	}
	return "", full
}

func npmPURL(name, version string) string {
	return "pkg:npm/" + strings.ReplaceAll(name, "@", "%40") + "@" + version
}
