package composer

import (
	"strings"

	"github.com/depscope/depscope/internal/model"
)

// pkgNode wraps one lock entry with its resolved children.
type pkgNode struct {
	pkg      *LockPackage
	children []*pkgNode
	issues   []model.Issue
}

// handler implements depgraph.Handler for composer packages.
type handler struct{}

func (handler) Identify(n *pkgNode) model.Identifier {
	namespace, name := splitVendor(n.pkg.Name)
	return model.Identifier{Type: "composer", Namespace: namespace, Name: name, Version: n.pkg.Version}
}

func (handler) Children(n *pkgNode) []*pkgNode {
	return n.children
}

func (handler) Linkage(n *pkgNode) model.Linkage {
	return model.LinkageDynamic
}

func (handler) Issues(n *pkgNode) []model.Issue {
	return n.issues
}

func (h handler) CreatePackage(n *pkgNode, issues *model.IssueCollector) *model.Package {
	id := h.Identify(n)
	pkg := &model.Package{
		ID:               id,
		PURL:             "pkg:composer/" + n.pkg.Name + "@" + n.pkg.Version,
		DeclaredLicenses: n.pkg.Licenses,
		Authors:          n.pkg.Authors,
		Description:      n.pkg.Description,
		Homepage:         n.pkg.Homepage,
		SourceArtifact:   model.RemoteArtifact{URL: n.pkg.DistURL, Hash: n.pkg.DistShasum},
		VCS: model.VCSInfo{
			Type:     n.pkg.SourceType,
			URL:      n.pkg.SourceURL,
			Revision: n.pkg.SourceRef,
		},
	}
	if len(pkg.DeclaredLicenses) == 0 && !strings.HasPrefix(n.pkg.Version, "dev-") {
		issues.Warnf("composer", "no declared license for %s", id)
	}
	return pkg
}
