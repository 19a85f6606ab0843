package pipeline

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/model"
)

// Bundle is one analysis input file. YAML and JSON are both accepted.
//
//	inputs:
//	  issue: Should we ...?
//	  proscons: {roots: [...]}
//	  relevance_network: {nodes: [...], links: [...]}
//	  argmap_graph: {nodes: [...], links: [...]}
type Bundle struct {
	Inputs BundleInputs `yaml:"inputs"`
}

// BundleInputs holds the supplied artifacts; absent ones stay nil
type BundleInputs struct {
	Issue            *string              `yaml:"issue,omitempty"`
	ProsCons         *argmap.ProsConsList `yaml:"proscons,omitempty"`
	RelevanceNetwork *argmap.Document     `yaml:"relevance_network,omitempty"`
	ArgmapGraph      *argmap.Document     `yaml:"argmap_graph,omitempty"`
}

// LoadBundle reads and parses a bundle file
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	b, err := ParseBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBundle decodes a bundle. Unknown fields are rejected so that a
// misspelled input never silently goes missing.
func ParseBundle(data []byte) (*Bundle, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if len(b.Artifacts()) == 0 {
		return nil, fmt.Errorf("bundle supplies no inputs")
	}
	return &b, nil
}

// Artifacts returns the supplied inputs as artifacts, in a fixed order
func (b *Bundle) Artifacts() []model.Artifact {
	var out []model.Artifact
	in := b.Inputs
	if in.Issue != nil {
		out = append(out, model.Artifact{ID: model.KeywordIssue, Description: "The issue under deliberation", Data: *in.Issue})
	}
	if in.ProsCons != nil {
		out = append(out, model.Artifact{ID: model.KeywordProsCons, Description: "Pros and cons list", Data: *in.ProsCons})
	}
	if in.RelevanceNetwork != nil {
		out = append(out, model.Artifact{ID: model.KeywordRelevanceNetwork, Description: "Supplied relevance network", Data: *in.RelevanceNetwork})
	}
	if in.ArgmapGraph != nil {
		out = append(out, model.Artifact{ID: model.KeywordArgmapGraph, Description: "Supplied argument map", Data: *in.ArgmapGraph})
	}
	return out
}

// IDs lists the keywords of the supplied inputs
func (b *Bundle) IDs() []model.Keyword {
	arts := b.Artifacts()
	ids := make([]model.Keyword, len(arts))
	for i, a := range arts {
		ids[i] = a.ID
	}
	return ids
}
