package depgraph

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/depscope/depscope/internal/model"
)

// rawGraph mirrors the persisted graph shape with string-keyed scope maps.
// Both YAML and JSON render map keys sorted, so output stays diffable and
// byte-stable across identical builds.
type rawGraph struct {
	Nodes  []rawNode                `yaml:"nodes" json:"nodes"`
	Edges  []rawEdge                `yaml:"edges" json:"edges"`
	Scopes map[string]rawScopeRoots `yaml:"scopes" json:"scopes"`
}

type rawScopeRoots map[string][]int

type rawNode struct {
	ID      string        `yaml:"id" json:"id"`
	Linkage string        `yaml:"linkage" json:"linkage"`
	Issues  []model.Issue `yaml:"issues,omitempty" json:"issues,omitempty"`
}

type rawEdge struct {
	From    int    `yaml:"from" json:"from"`
	To      int    `yaml:"to" json:"to"`
	Linkage string `yaml:"linkage" json:"linkage"`
	Closing bool   `yaml:"closing,omitempty" json:"closing,omitempty"`
}

func (g *Graph) toRaw() rawGraph {
	raw := rawGraph{
		Nodes:  make([]rawNode, len(g.Nodes)),
		Edges:  make([]rawEdge, len(g.Edges)),
		Scopes: make(map[string]rawScopeRoots, len(g.Scopes)),
	}
	for i, n := range g.Nodes {
		raw.Nodes[i] = rawNode{ID: n.ID.String(), Linkage: string(n.Linkage), Issues: n.Issues}
	}
	for i, e := range g.Edges {
		raw.Edges[i] = rawEdge{From: e.From, To: e.To, Linkage: string(e.Linkage), Closing: e.Closing}
	}
	for project, scopes := range g.Scopes {
		roots := make(rawScopeRoots, len(scopes))
		for name, idxs := range scopes {
			roots[name] = idxs
		}
		raw.Scopes[project.String()] = roots
	}
	return raw
}

func fromRaw(raw rawGraph) (*Graph, error) {
	g := &Graph{
		Nodes:  make([]Node, len(raw.Nodes)),
		Edges:  make([]Edge, len(raw.Edges)),
		Scopes: make(map[model.Identifier]map[string][]int, len(raw.Scopes)),
	}
	for i, n := range raw.Nodes {
		id, err := model.ParseIdentifier(n.ID)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		linkage, err := model.ParseLinkage(n.Linkage)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, n.ID, err)
		}
		g.Nodes[i] = Node{ID: id, Linkage: linkage, Issues: n.Issues}
	}
	for i, e := range raw.Edges {
		linkage, err := model.ParseLinkage(e.Linkage)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		g.Edges[i] = Edge{From: e.From, To: e.To, Linkage: linkage, Closing: e.Closing}
	}
	for projectStr, scopes := range raw.Scopes {
		project, err := model.ParseIdentifier(projectStr)
		if err != nil {
			return nil, fmt.Errorf("scope project key: %w", err)
		}
		g.Scopes[project] = map[string][]int(scopes)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}

// MarshalYAML implements yaml.Marshaler.
func (g *Graph) MarshalYAML() (interface{}, error) {
	return g.toRaw(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, validating the decoded graph.
func (g *Graph) UnmarshalYAML(value *yaml.Node) error {
	var raw rawGraph
	if err := value.Decode(&raw); err != nil {
		return err
	}
	decoded, err := fromRaw(raw)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.toRaw())
}

// UnmarshalJSON implements json.Unmarshaler, validating the decoded graph.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var raw rawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := fromRaw(raw)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// WriteYAML serializes the graph to w.
func WriteYAML(w io.Writer, g *Graph) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML deserializes and validates a graph from r.
func ReadYAML(r io.Reader) (*Graph, error) {
	var g Graph
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return &g, nil
}

// WriteJSON serializes the graph to w with indentation.
func WriteJSON(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// ReadJSON deserializes and validates a graph from r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return &g, nil
}
