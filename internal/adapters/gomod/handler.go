package gomod

import (
	"strings"

	"golang.org/x/mod/module"

	"github.com/depscope/depscope/internal/model"
)

// modNode is one selected module version with its requirement edges resolved
// to other selected modules.
type modNode struct {
	path       string
	version    string
	firstParty bool
	children   []*modNode
	issues     []model.Issue
}

// handler implements depgraph.Handler for Go modules. All metadata derives
// from the module path, so CreatePackage performs no I/O.
type handler struct{}

func (handler) Identify(n *modNode) model.Identifier {
	return model.Identifier{Type: "go", Name: n.path, Version: n.version}
}

func (handler) Children(n *modNode) []*modNode {
	return n.children
}

func (handler) Linkage(n *modNode) model.Linkage {
	// Go links statically; modules replaced by a local directory are
	// first-party projects.
	if n.firstParty {
		return model.LinkageProjectStatic
	}
	return model.LinkageStatic
}

func (handler) Issues(n *modNode) []model.Issue {
	return n.issues
}

func (h handler) CreatePackage(n *modNode, issues *model.IssueCollector) *model.Package {
	if n.firstParty {
		return nil
	}
	id := h.Identify(n)
	pkg := &model.Package{
		ID:       id,
		PURL:     "pkg:golang/" + n.path + "@" + n.version,
		Homepage: "https://pkg.go.dev/" + n.path + "@" + n.version,
		VCS:      vcsFromPath(n.path),
	}
	if escaped, err := module.EscapePath(n.path); err == nil && n.version != "" {
		pkg.SourceArtifact = model.RemoteArtifact{
			URL: "https://proxy.golang.org/" + escaped + "/@v/" + n.version + ".zip",
		}
	}
	return pkg
}

// vcsFromPath guesses the repository location for well-known hosts.
func vcsFromPath(path string) model.VCSInfo {
	parts := strings.Split(path, "/")
	switch parts[0] {
	case "github.com", "gitlab.com", "bitbucket.org":
		if len(parts) >= 3 {
			return model.VCSInfo{
				Type: "git",
				URL:  "https://" + strings.Join(parts[:3], "/") + ".git",
			}
		}
	}
	return model.VCSInfo{}
}
