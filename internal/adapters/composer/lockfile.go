package composer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LockPackage is one resolved PHP package from composer.lock. The lock entry
// carries full metadata, so package records need no further I/O.
type LockPackage struct {
	Name         string
	Version      string
	Dir          string
	Dependencies []string
	Dev          bool
	Licenses     []string
	Authors      []string
	Description  string
	Homepage     string
	SourceType   string
	SourceURL    string
	SourceRef    string
	DistURL      string
	DistShasum   string
}

// Manifest holds the direct requirements from composer.json.
type Manifest struct {
	Name       string
	Require    []string
	RequireDev []string
}

type composerLock struct {
	Packages    []composerPkg `json:"packages"`
	PackagesDev []composerPkg `json:"packages-dev"`
}

type composerPkg struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Homepage    string            `json:"homepage"`
	License     []string          `json:"license"`
	Require     map[string]string `json:"require"`
	Authors     []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Source struct {
		Type      string `json:"type"`
		URL       string `json:"url"`
		Reference string `json:"reference"`
	} `json:"source"`
	Dist struct {
		URL    string `json:"url"`
		Shasum string `json:"shasum"`
	} `json:"dist"`
}

// LoadLockfile parses composer.lock in dir.
func LoadLockfile(dir string) ([]LockPackage, error) {
	data, err := os.ReadFile(filepath.Join(dir, "composer.lock"))
	if err != nil {
		return nil, fmt.Errorf("no composer.lock found in %s", dir)
	}
	var lock composerLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse composer.lock: %w", err)
	}

	var result []LockPackage
	for _, pkg := range lock.Packages {
		result = append(result, toLockPackage(dir, pkg, false))
	}
	for _, pkg := range lock.PackagesDev {
		result = append(result, toLockPackage(dir, pkg, true))
	}
	return result, nil
}

func toLockPackage(dir string, pkg composerPkg, dev bool) LockPackage {
	lp := LockPackage{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Dir:         filepath.Join(dir, "vendor", filepath.FromSlash(pkg.Name)),
		Dev:         dev,
		Licenses:    pkg.License,
		Description: pkg.Description,
		Homepage:    pkg.Homepage,
		SourceType:  pkg.Source.Type,
		SourceURL:   pkg.Source.URL,
		SourceRef:   pkg.Source.Reference,
		DistURL:     pkg.Dist.URL,
		DistShasum:  pkg.Dist.Shasum,
	}
	for _, author := range pkg.Authors {
		if author.Name != "" {
			lp.Authors = append(lp.Authors, author.Name)
		}
	}
	for depName := range pkg.Require {
		if isPlatformRequirement(depName) {
			continue
		}
		lp.Dependencies = append(lp.Dependencies, depName)
	}
	sort.Strings(lp.Dependencies)
	return lp
}

// LoadManifest reads composer.json in dir.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "composer.json"))
	if err != nil {
		return Manifest{}, err
	}
	var raw struct {
		Name       string            `json:"name"`
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("parse composer.json: %w", err)
	}
	m := Manifest{Name: raw.Name}
	for name := range raw.Require {
		if isPlatformRequirement(name) {
			continue
		}
		m.Require = append(m.Require, name)
	}
	for name := range raw.RequireDev {
		if isPlatformRequirement(name) {
			continue
		}
		m.RequireDev = append(m.RequireDev, name)
	}
	sort.Strings(m.Require)
	sort.Strings(m.RequireDev)
	return m, nil
}

// isPlatformRequirement filters PHP version constraints and extensions
// ("php", "php-64bit", "ext-json", "lib-curl") that are not packages.
func isPlatformRequirement(name string) bool {
	return name == "php" ||
		strings.HasPrefix(name, "php-") ||
		strings.HasPrefix(name, "ext-") ||
		strings.HasPrefix(name, "lib-")
}
