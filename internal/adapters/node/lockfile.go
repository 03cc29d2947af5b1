package node

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LockPackage is one resolved npm package extracted from a lockfile.
type LockPackage struct {
	Name         string
	Version      string
	Dir          string
	Dependencies []string
	Dev          bool
}

// Manifest holds the direct dependency declarations from package.json.
type Manifest struct {
	Name            string
	Version         string
	Dependencies    []string
	DevDependencies []string
}

// LoadLockfile detects the lockfile type in dir and parses it. It tries
// package-lock.json, then yarn.lock, then pnpm-lock.yaml.
func LoadLockfile(dir string) ([]LockPackage, error) {
	if _, err := os.Stat(filepath.Join(dir, "package-lock.json")); err == nil {
		return loadPackageLock(dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "yarn.lock")); err == nil {
		return loadYarnLock(dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "pnpm-lock.yaml")); err == nil {
		return loadPnpmLock(dir)
	}
	return nil, fmt.Errorf("no lockfile found (looked for package-lock.json, yarn.lock, pnpm-lock.yaml) in %s", dir)
}

// LoadManifest reads package.json in dir.
func LoadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return Manifest{}, err
	}
	var raw struct {
		Name            string            `json:"name"`
		Version         string            `json:"version"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Manifest{}, fmt.Errorf("parse package.json: %w", err)
	}
	m := Manifest{Name: raw.Name, Version: raw.Version}
	for name := range raw.Dependencies {
		m.Dependencies = append(m.Dependencies, name)
	}
	for name := range raw.DevDependencies {
		m.DevDependencies = append(m.DevDependencies, name)
	}
	sort.Strings(m.Dependencies)
	sort.Strings(m.DevDependencies)
	return m, nil
}

// ---------------------------------------------------------------------------
// package-lock.json (v1, v2, v3)
// ---------------------------------------------------------------------------

type packageLockJSON struct {
	LockfileVersion int                  `json:"lockfileVersion"`
	Dependencies    map[string]lockDepV1 `json:"dependencies"`
	Packages        map[string]lockPkgV2 `json:"packages"`
}

type lockDepV1 struct {
	Version      string               `json:"version"`
	Dev          bool                 `json:"dev"`
	Requires     map[string]string    `json:"requires"`
	Dependencies map[string]lockDepV1 `json:"dependencies"`
}

type lockPkgV2 struct {
	Version      string            `json:"version"`
	Dev          bool              `json:"dev"`
	Link         bool              `json:"link"`
	Dependencies map[string]string `json:"dependencies"`
}

func loadPackageLock(dir string) ([]LockPackage, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package-lock.json"))
	if err != nil {
		return nil, err
	}
	var lf packageLockJSON
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse package-lock.json: %w", err)
	}
	if lf.LockfileVersion >= 2 && len(lf.Packages) > 0 {
		return parsePackageLockV2(dir, lf.Packages), nil
	}
	return parsePackageLockV1(dir, lf.Dependencies), nil
}

func parsePackageLockV2(dir string, packages map[string]lockPkgV2) []LockPackage {
	var result []LockPackage
	for key, pkg := range packages {
		if key == "" || pkg.Link {
			continue
		}
		// key is like "node_modules/express" or
		// "node_modules/foo/node_modules/bar" for a nested install.
		name := strings.TrimPrefix(key, "node_modules/")
		if idx := strings.LastIndex(name, "node_modules/"); idx >= 0 {
			name = name[idx+len("node_modules/"):]
		}
		result = append(result, LockPackage{
			Name:         name,
			Version:      pkg.Version,
			Dir:          filepath.Join(dir, key),
			Dependencies: mapKeys(pkg.Dependencies),
			Dev:          pkg.Dev,
		})
	}
	return result
}

func parsePackageLockV1(dir string, dependencies map[string]lockDepV1) []LockPackage {
	var result []LockPackage
	var walk func(name string, dep lockDepV1, base string)
	walk = func(name string, dep lockDepV1, base string) {
		result = append(result, LockPackage{
			Name:         name,
			Version:      dep.Version,
			Dir:          filepath.Join(base, "node_modules", name),
			Dependencies: mapKeys(dep.Requires),
			Dev:          dep.Dev,
		})
		for nested, nestedDep := range dep.Dependencies {
			walk(nested, nestedDep, filepath.Join(base, "node_modules", name))
		}
	}
	for name, dep := range dependencies {
		walk(name, dep, dir)
	}
	return result
}

// ---------------------------------------------------------------------------
// yarn.lock (v1 classic)
// ---------------------------------------------------------------------------

// reYarnName matches the package name at the start of a yarn.lock block:
// "express@^4.x", express@^4.x, "@babel/core@^7.0.0"
var reYarnName = regexp.MustCompile(`^"?(@?[^@"]+)@`)

func loadYarnLock(dir string) ([]LockPackage, error) {
	data, err := os.ReadFile(filepath.Join(dir, "yarn.lock"))
	if err != nil {
		return nil, err
	}
	return parseYarnLock(dir, data), nil
}

func parseYarnLock(dir string, data []byte) []LockPackage {
	var result []LockPackage

	var (
		name    string
		version string
		deps    []string
		inDeps  bool
	)

	flush := func() {
		if name == "" {
			return
		}
		result = append(result, LockPackage{
			Name:         name,
			Version:      version,
			Dir:          filepath.Join(dir, "node_modules", name),
			Dependencies: deps,
		})
		name, version, deps, inDeps = "", "", nil, false
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		// A block starts at column zero with one or more "name@range" aliases.
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			flush()
			decl := strings.TrimSuffix(strings.TrimSpace(line), ":")
			first := strings.TrimSpace(strings.Split(decl, ",")[0])
			if m := reYarnName.FindStringSubmatch(first); m != nil {
				name = m[1]
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "dependencies:" {
			inDeps = true
			continue
		}
		// Another top-level key in the block ends the dependencies section.
		if strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "    ") && trimmed != "dependencies:" {
			inDeps = false
		}
		if strings.HasPrefix(trimmed, "version ") {
			version = strings.Trim(strings.TrimPrefix(trimmed, "version "), `"`)
			continue
		}
		if inDeps && strings.HasPrefix(line, "    ") {
			if fields := strings.Fields(trimmed); len(fields) >= 1 {
				deps = append(deps, strings.Trim(fields[0], `"`))
			}
		}
	}
	flush()

	return result
}

// ---------------------------------------------------------------------------
// pnpm-lock.yaml (v6, v9)
// ---------------------------------------------------------------------------

type pnpmLock struct {
	Packages  map[string]pnpmPkg `yaml:"packages"`
	Snapshots map[string]pnpmPkg `yaml:"snapshots"`
}

type pnpmPkg struct {
	Dependencies map[string]string `yaml:"dependencies"`
	Dev          bool              `yaml:"dev"`
}

// rePnpmKey splits a packages/snapshots key into name and version:
// v6 "/express@4.18.2" or "/@babel/core@7.0.0", v9 without the leading slash.
var rePnpmKey = regexp.MustCompile(`^/?(@?[^@\s]+)@([^(\s]+)`)

func loadPnpmLock(dir string) ([]LockPackage, error) {
	data, err := os.ReadFile(filepath.Join(dir, "pnpm-lock.yaml"))
	if err != nil {
		return nil, err
	}
	var lock pnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse pnpm-lock.yaml: %w", err)
	}

	// v9 resolves dependency versions under snapshots, v6 under packages.
	entries := lock.Snapshots
	if len(entries) == 0 {
		entries = lock.Packages
	}

	seen := make(map[string]bool)
	var result []LockPackage
	for key, pkg := range entries {
		m := rePnpmKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		name, version := m[1], m[2]
		if seen[name+"@"+version] {
			continue
		}
		seen[name+"@"+version] = true
		result = append(result, LockPackage{
			Name:         name,
			Version:      version,
			Dir:          filepath.Join(dir, "node_modules", name),
			Dependencies: mapKeys(pkg.Dependencies),
			Dev:          pkg.Dev,
		})
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func mapKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
