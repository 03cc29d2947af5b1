package node

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func byName(pkgs []LockPackage) map[string]LockPackage {
	m := make(map[string]LockPackage, len(pkgs))
	for _, p := range pkgs {
		m[p.Name+"@"+p.Version] = p
	}
	return m
}

func TestLoadLockfileMissing(t *testing.T) {
	_, err := LoadLockfile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no lockfile found")
}

func TestLoadPackageLockV2(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package-lock.json", `{
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "demo", "version": "1.0.0"},
    "node_modules/express": {
      "version": "4.18.2",
      "dependencies": {"accepts": "~1.3.8"}
    },
    "node_modules/accepts": {"version": "1.3.8"},
    "node_modules/express/node_modules/accepts": {"version": "1.2.0"},
    "node_modules/workspace-link": {"version": "0.0.1", "link": true},
    "node_modules/mocha": {"version": "10.2.0", "dev": true}
  }
}`)

	pkgs, err := LoadLockfile(dir)
	require.NoError(t, err)
	m := byName(pkgs)

	require.Contains(t, m, "express@4.18.2")
	assert.Equal(t, []string{"accepts"}, m["express@4.18.2"].Dependencies)
	assert.Equal(t, filepath.Join(dir, "node_modules/express"), m["express@4.18.2"].Dir)

	require.Contains(t, m, "accepts@1.2.0", "nested installs keep their bare name")
	assert.True(t, m["mocha@10.2.0"].Dev)
	assert.NotContains(t, m, "workspace-link@0.0.1", "link entries are skipped")
	assert.NotContains(t, m, "demo@1.0.0", "the root entry is not a dependency")
}

func TestLoadPackageLockV1(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package-lock.json", `{
  "lockfileVersion": 1,
  "dependencies": {
    "express": {
      "version": "4.18.2",
      "requires": {"accepts": "~1.3.8"},
      "dependencies": {
        "accepts": {"version": "1.2.0"}
      }
    },
    "mocha": {"version": "10.2.0", "dev": true}
  }
}`)

	pkgs, err := LoadLockfile(dir)
	require.NoError(t, err)
	m := byName(pkgs)

	require.Contains(t, m, "express@4.18.2")
	assert.Equal(t, []string{"accepts"}, m["express@4.18.2"].Dependencies)
	require.Contains(t, m, "accepts@1.2.0")
	assert.Equal(t,
		filepath.Join(dir, "node_modules/express/node_modules/accepts"),
		m["accepts@1.2.0"].Dir)
	assert.True(t, m["mocha@10.2.0"].Dev)
}

func TestParseYarnLock(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT THIS FILE DIRECTLY.
# yarn lockfile v1


"@babel/core@^7.0.0":
  version "7.24.0"
  resolved "https://registry.yarnpkg.com/@babel/core/-/core-7.24.0.tgz"
  integrity sha512-abc
  dependencies:
    "@babel/types" "^7.24.0"
    semver "^6.3.1"

"@babel/types@^7.24.0":
  version "7.24.0"

semver@^6.3.1, semver@^6.0.0:
  version "6.3.1"
`)
	pkgs := parseYarnLock(dir, data)
	m := byName(pkgs)

	require.Contains(t, m, "@babel/core@7.24.0")
	deps := m["@babel/core@7.24.0"].Dependencies
	sort.Strings(deps)
	assert.Equal(t, []string{"@babel/types", "semver"}, deps)

	require.Contains(t, m, "semver@6.3.1", "multiple range aliases collapse to one entry")
	assert.Empty(t, m["semver@6.3.1"].Dependencies)
}

func TestLoadPnpmLock(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pnpm-lock.yaml", `lockfileVersion: '9.0'

snapshots:
  express@4.18.2:
    dependencies:
      accepts: 1.3.8
  accepts@1.3.8: {}
  '@scope/pkg@1.0.0(peer@2.0.0)':
    dev: true
`)

	pkgs, err := LoadLockfile(dir)
	require.NoError(t, err)
	m := byName(pkgs)

	require.Contains(t, m, "express@4.18.2")
	assert.Equal(t, []string{"accepts"}, m["express@4.18.2"].Dependencies)
	require.Contains(t, m, "@scope/pkg@1.0.0", "peer suffix is stripped from the key")
	assert.True(t, m["@scope/pkg@1.0.0"].Dev)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "name": "@acme/demo",
  "version": "1.2.3",
  "dependencies": {"express": "^4.18.2", "accepts": "~1.3.8"},
  "devDependencies": {"mocha": "^10.0.0"}
}`)

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "@acme/demo", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	assert.Equal(t, []string{"accepts", "express"}, m.Dependencies)
	assert.Equal(t, []string{"mocha"}, m.DevDependencies)
}
