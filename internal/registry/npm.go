// Package registry provides a read-only client for the npm registry, used by
// the node adapter to fill package metadata that is missing from the local
// node_modules tree.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultNpmURL is the public npm registry.
	DefaultNpmURL = "https://registry.npmjs.org"

	cacheSize = 512
)

// Metadata is the subset of a registry version document the analyzer needs.
type Metadata struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string
	Authors     []string
	Repository  Repository
	Tarball     string
	Shasum      string
}

// Repository is the VCS location advertised by the registry.
type Repository struct {
	Type string
	URL  string
}

// Client queries one npm-compatible registry. Responses are cached per
// name@version for the lifetime of the client, so repeated lookups within a
// run hit the network at most once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache[string, *Metadata]
}

// NewClient returns a client for the given registry base URL, or the public
// npm registry when baseURL is empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultNpmURL
	}
	cache, err := lru.New[string, *Metadata](cacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
	}
}

// PackageVersion fetches the registry document for one package version.
func (c *Client) PackageVersion(ctx context.Context, name, version string) (*Metadata, error) {
	key := name + "@" + version
	if meta, ok := c.cache.Get(key); ok {
		return meta, nil
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, name, version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request for %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("registry returned %s for %s", resp.Status, key)
	}

	var doc versionDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode registry response for %s: %w", key, err)
	}

	meta := doc.toMetadata()
	c.cache.Add(key, meta)
	return meta, nil
}

// versionDoc mirrors the registry JSON. Older packages use free-form shapes
// for license and author fields, so both decode leniently.
type versionDoc struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Homepage    string          `json:"homepage"`
	License     lenientLicense  `json:"license"`
	Author      lenientPerson   `json:"author"`
	Maintainers []lenientPerson `json:"maintainers"`
	Repository  struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"repository"`
	Dist struct {
		Tarball string `json:"tarball"`
		Shasum  string `json:"shasum"`
	} `json:"dist"`
}

func (d *versionDoc) toMetadata() *Metadata {
	meta := &Metadata{
		Name:        d.Name,
		Version:     d.Version,
		Description: d.Description,
		Homepage:    d.Homepage,
		License:     string(d.License),
		Repository:  Repository{Type: d.Repository.Type, URL: d.Repository.URL},
		Tarball:     d.Dist.Tarball,
		Shasum:      d.Dist.Shasum,
	}
	if d.Author != "" {
		meta.Authors = append(meta.Authors, string(d.Author))
	}
	return meta
}

// lenientLicense accepts both "MIT" and the legacy {"type": "MIT"} shape.
type lenientLicense string

func (l *lenientLicense) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = lenientLicense(s)
		return nil
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil // unrecognized shape, leave empty
	}
	*l = lenientLicense(obj.Type)
	return nil
}

// lenientPerson accepts both "Jane <jane@example.com>" and {"name": ...}.
type lenientPerson string

func (p *lenientPerson) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = lenientPerson(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	*p = lenientPerson(obj.Name)
	return nil
}
