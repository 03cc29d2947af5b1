package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageVersion(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/left-pad/1.3.0" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "left-pad",
			"version": "1.3.0",
			"description": "String left pad",
			"license": "WTFPL",
			"author": {"name": "azer"},
			"repository": {"type": "git", "url": "git+https://github.com/stevemao/left-pad.git"},
			"dist": {
				"tarball": "https://registry.npmjs.org/left-pad/-/left-pad-1.3.0.tgz",
				"shasum": "5b8a3a7765dfe001261dde915589e782f8c94d1e"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	meta, err := c.PackageVersion(context.Background(), "left-pad", "1.3.0")
	require.NoError(t, err)
	assert.Equal(t, "left-pad", meta.Name)
	assert.Equal(t, "WTFPL", meta.License)
	assert.Equal(t, []string{"azer"}, meta.Authors)
	assert.Equal(t, "git+https://github.com/stevemao/left-pad.git", meta.Repository.URL)
	assert.Equal(t, "5b8a3a7765dfe001261dde915589e782f8c94d1e", meta.Shasum)

	// Second lookup is served from the cache.
	again, err := c.PackageVersion(context.Background(), "left-pad", "1.3.0")
	require.NoError(t, err)
	assert.Same(t, meta, again)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPackageVersionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.PackageVersion(context.Background(), "ghost", "0.0.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLenientShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "oldie",
			"version": "0.1.0",
			"license": {"type": "MIT"},
			"author": "Jane Doe <jane@example.com>"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	meta, err := c.PackageVersion(context.Background(), "oldie", "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "MIT", meta.License)
	assert.Equal(t, []string{"Jane Doe <jane@example.com>"}, meta.Authors)
}

func TestNewClientDefaultsToPublicRegistry(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, DefaultNpmURL, c.baseURL)

	c = NewClient("https://mirror.example.com/npm/")
	assert.Equal(t, "https://mirror.example.com/npm", c.baseURL)
}
