package gomod

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os/exec"
	"strings"

	"golang.org/x/mod/semver"
)

// Module is one entry from `go list -m -json all`.
type Module struct {
	Path     string  `json:"Path"`
	Version  string  `json:"Version"`
	Dir      string  `json:"Dir"`
	Main     bool    `json:"Main"`
	Indirect bool    `json:"Indirect"`
	Replace  *Module `json:"Replace"`
}

// listModules runs `go list -m -json all` in dir.
func listModules(dir string) ([]Module, error) {
	cmd := exec.Command("go", "list", "-m", "-json", "all")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseModuleList(out)
}

func parseModuleList(out []byte) ([]Module, error) {
	var mods []Module
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var m Module
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// requirement is one edge from `go mod graph`, with versions stripped to
// module paths after selection.
type requirement struct {
	fromPath, fromVersion string
	toPath, toVersion     string
}

// modGraph runs `go mod graph` in dir.
func modGraph(dir string) ([]requirement, error) {
	cmd := exec.Command("go", "mod", "graph")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return parseModGraph(out)
}

func parseModGraph(out []byte) ([]requirement, error) {
	var reqs []requirement
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		fromPath, fromVersion := splitVersion(parts[0])
		toPath, toVersion := splitVersion(parts[1])
		reqs = append(reqs, requirement{
			fromPath: fromPath, fromVersion: fromVersion,
			toPath: toPath, toVersion: toVersion,
		})
	}
	return reqs, scanner.Err()
}

func splitVersion(s string) (path, version string) {
	at := strings.LastIndex(s, "@")
	if at == -1 {
		return s, ""
	}
	return s[:at], s[at+1:]
}

// selectedVersions derives the module selection from the requirement edges
// alone: per path, the highest version in go's semver order. Used as a
// fallback when `go list -m all` is unavailable; minimal version selection
// always picks the maximum of the required versions.
func selectedVersions(reqs []requirement) map[string]string {
	selected := make(map[string]string)
	for _, r := range reqs {
		if cur, ok := selected[r.toPath]; !ok || semver.Compare(r.toVersion, cur) > 0 {
			selected[r.toPath] = r.toVersion
		}
	}
	return selected
}
