package argmap

import (
	"context"

	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/model"
)

// DefaultWeight is used for links that arrive without a weight
const DefaultWeight = 0.0

// Document is the node-link form of a graph as exchanged with upstream
// builders. Optional attributes are pointers so that absence can be told
// apart from a zero value.
type Document struct {
	Directed bool      `json:"directed" yaml:"directed"`
	Nodes    []DocNode `json:"nodes" yaml:"nodes"`
	Links    []DocLink `json:"links" yaml:"links"`
}

// DocNode is a node in a Document
type DocNode struct {
	ID       string  `json:"id" yaml:"id"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty"`
	NodeType *string `json:"node_type,omitempty" yaml:"node_type,omitempty"`
}

// DocLink is an edge in a Document
type DocLink struct {
	Source   string   `json:"source" yaml:"source"`
	Target   string   `json:"target" yaml:"target"`
	Weight   *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Valence  string   `json:"valence" yaml:"valence"`
	InForest *bool    `json:"in_forest,omitempty" yaml:"in_forest,omitempty"`
}

// Decode converts a Document into a Graph.
//
// A node without node_type is a DataError. A link without weight gets
// DefaultWeight and a warning. Any other structural violation is a DataError.
func Decode(ctx context.Context, doc Document, kw model.Keyword) (Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := Graph{
		Nodes: make([]Node, 0, len(doc.Nodes)),
		Edges: make([]Edge, 0, len(doc.Links)),
	}

	for _, dn := range doc.Nodes {
		if dn.NodeType == nil {
			return Graph{}, model.NewDataError(kw, "node %q has no node_type", dn.ID)
		}
		g.Nodes = append(g.Nodes, Node{
			ID:    dn.ID,
			Label: dn.Label,
			Text:  dn.Text,
			Type:  NodeType(*dn.NodeType),
		})
	}

	defaulted := 0
	for _, dl := range doc.Links {
		w := DefaultWeight
		if dl.Weight != nil {
			w = *dl.Weight
		} else {
			defaulted++
		}
		e := Edge{
			Source:  dl.Source,
			Target:  dl.Target,
			Weight:  w,
			Valence: Valence(dl.Valence),
		}
		if dl.InForest != nil {
			e.InForest = *dl.InForest
		}
		g.Edges = append(g.Edges, e)
	}
	if defaulted > 0 {
		logger.Warn("links without weight, using default",
			"keyword", kw, "count", defaulted, "default", DefaultWeight)
	}

	if err := g.Validate(); err != nil {
		return Graph{}, model.NewDataError(kw, "invalid graph").WithCause(err)
	}
	return g, nil
}

// Encode converts a Graph into its Document form.
func Encode(g Graph) Document {
	doc := Document{
		Directed: true,
		Nodes:    make([]DocNode, 0, len(g.Nodes)),
		Links:    make([]DocLink, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		nt := string(n.Type)
		doc.Nodes = append(doc.Nodes, DocNode{ID: n.ID, Label: n.Label, Text: n.Text, NodeType: &nt})
	}
	for _, e := range g.Edges {
		w, f := e.Weight, e.InForest
		doc.Links = append(doc.Links, DocLink{
			Source:   e.Source,
			Target:   e.Target,
			Weight:   &w,
			Valence:  string(e.Valence),
			InForest: &f,
		})
	}
	return doc
}
