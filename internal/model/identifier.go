package model

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Identifier uniquely names a package within an ecosystem. It is the
// deduplication key used throughout graph construction: two raw dependency
// nodes with equal Identifiers are the same logical package.
type Identifier struct {
	// Type is the ecosystem, e.g. "go", "npm", "composer".
	Type string
	// Namespace groups packages within an ecosystem, e.g. an npm scope or a
	// composer vendor. Empty for ecosystems without one.
	Namespace string
	Name      string
	Version   string
}

// String returns the canonical coordinate form "type:namespace:name:version".
func (id Identifier) String() string {
	return id.Type + ":" + id.Namespace + ":" + id.Name + ":" + id.Version
}

// ParseIdentifier parses the canonical coordinate form produced by String.
func ParseIdentifier(s string) (Identifier, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return Identifier{}, fmt.Errorf("invalid identifier %q: want type:namespace:name:version", s)
	}
	return Identifier{Type: parts[0], Namespace: parts[1], Name: parts[2], Version: parts[3]}, nil
}

// IsEmpty reports whether all coordinate fields are empty.
func (id Identifier) IsEmpty() bool {
	return id == Identifier{}
}

// Compare orders identifiers field by field. Versions compare semver-aware
// when both sides parse as semantic versions, with a bytewise tie-break so
// distinct spellings ("1.0" vs "1.0.0") still order totally.
func (id Identifier) Compare(other Identifier) int {
	if c := strings.Compare(id.Type, other.Type); c != 0 {
		return c
	}
	if c := strings.Compare(id.Namespace, other.Namespace); c != 0 {
		return c
	}
	if c := strings.Compare(id.Name, other.Name); c != 0 {
		return c
	}
	return compareVersions(id.Version, other.Version)
}

// Less reports whether id orders before other.
func (id Identifier) Less(other Identifier) bool {
	return id.Compare(other) < 0
}

func compareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// MarshalText implements encoding.TextMarshaler so identifiers serialize as
// their coordinate string, including as JSON object keys.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalYAML serializes the identifier as its coordinate string.
func (id Identifier) MarshalYAML() (interface{}, error) {
	return id.String(), nil
}

// UnmarshalYAML parses the coordinate string form.
func (id *Identifier) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return id.UnmarshalText([]byte(s))
}
