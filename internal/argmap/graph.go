// Package argmap defines the weighted, signed argument graph shared by the
// relevance network and the reduced argument map, plus the node-link
// document form in which graphs enter and leave the system.
package argmap

import (
	"fmt"
	"slices"
)

// NodeType distinguishes central claims from reasons
type NodeType string

const (
	CentralClaim NodeType = "central_claim"
	Reason       NodeType = "reason"
)

// Valid reports whether t is a known node type
func (t NodeType) Valid() bool {
	return t == CentralClaim || t == Reason
}

// Valence is the dialectical direction of an edge
type Valence string

const (
	Support Valence = "support"
	Attack  Valence = "attack"
)

// Valid reports whether v is a known valence
func (v Valence) Valid() bool {
	return v == Support || v == Attack
}

// Sign is +1 for support and -1 for attack
func (v Valence) Sign() float64 {
	if v == Attack {
		return -1
	}
	return 1
}

// Node is a claim in the graph
type Node struct {
	ID    string   `json:"id" yaml:"id"`
	Label string   `json:"label" yaml:"label"`
	Text  string   `json:"text" yaml:"text"`
	Type  NodeType `json:"node_type" yaml:"node_type"`
}

// Edge is a directed, weighted relation: Source supports or attacks Target.
type Edge struct {
	Source   string  `json:"source" yaml:"source"`
	Target   string  `json:"target" yaml:"target"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Valence  Valence `json:"valence" yaml:"valence"`
	InForest bool    `json:"in_forest" yaml:"in_forest"`
}

// Key returns the ordered endpoint pair of e
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target}
}

// Signed returns the weight carrying the valence sign
func (e Edge) Signed() float64 {
	return e.Valence.Sign() * e.Weight
}

// EdgeKey identifies an edge in a simple digraph
type EdgeKey struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (k EdgeKey) String() string {
	return k.Source + "->" + k.Target
}

// Graph is an ordered simple digraph. Treat it as a value: transformations
// return new graphs.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Validate checks structural invariants: unique node ids, known node types,
// edges between existing nodes, at most one edge per ordered pair, known
// valences and weights in [0,1].
func (g Graph) Validate() error {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("node %q has invalid node_type %q", n.ID, n.Type)
		}
		ids[n.ID] = struct{}{}
	}

	pairs := make(map[EdgeKey]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("edge %s: unknown source", e.Key())
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("edge %s: unknown target", e.Key())
		}
		if e.Source == e.Target {
			return fmt.Errorf("edge %s: self loop", e.Key())
		}
		if _, dup := pairs[e.Key()]; dup {
			return fmt.Errorf("edge %s: parallel edge", e.Key())
		}
		if !e.Valence.Valid() {
			return fmt.Errorf("edge %s: invalid valence %q", e.Key(), e.Valence)
		}
		if e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("edge %s: weight %v outside [0,1]", e.Key(), e.Weight)
		}
		pairs[e.Key()] = struct{}{}
	}
	return nil
}

// Clone returns a copy that shares no slices with g
func (g Graph) Clone() Graph {
	return Graph{
		Nodes: slices.Clone(g.Nodes),
		Edges: slices.Clone(g.Edges),
	}
}

// Node looks up a node by id
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge looks up the edge source->target
func (g Graph) Edge(source, target string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return Edge{}, false
}

// CentralClaims returns the ids of central-claim nodes in node order
func (g Graph) CentralClaims() []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Type == CentralClaim {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Roots returns the central claims, or when there are none, the nodes
// without outgoing edges.
func (g Graph) Roots() []string {
	if roots := g.CentralClaims(); len(roots) > 0 {
		return roots
	}
	out := g.OutDegrees()
	var roots []string
	for _, n := range g.Nodes {
		if out[n.ID] == 0 {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// OutDegrees counts outgoing edges per node
func (g Graph) OutDegrees() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
	}
	return deg
}

// Index maps node ids to their position in g.Nodes
func (g Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}
