// Package reduce distills a near-complete relevance network into a sparse
// argument map: a maximum branching that gives every reason its strongest
// parent, plus a bounded layer of extra relations that are stronger than
// the typical branching edge of the same valence.
package reduce

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/ctxlog"
)

const (
	// DefaultMaxOutDegree caps outgoing edges per node
	DefaultMaxOutDegree = 3

	pseudoWeight    = 1.0 // claim -> super-root edges
	superRootPrefix = "super-root-"
)

// ThresholdRule picks the admission threshold per valence
type ThresholdRule string

const (
	RuleMedian  ThresholdRule = "median"
	RuleMinimum ThresholdRule = "minimum"
)

// Reducer turns relevance networks into argument maps
type Reducer struct {
	MaxOutDegree int
	Rule         ThresholdRule
}

// New creates a reducer. A non-positive cap uses DefaultMaxOutDegree and an
// empty rule uses RuleMedian.
func New(maxOutDegree int, rule ThresholdRule) *Reducer {
	if maxOutDegree <= 0 {
		maxOutDegree = DefaultMaxOutDegree
	}
	if rule == "" {
		rule = RuleMedian
	}
	return &Reducer{MaxOutDegree: maxOutDegree, Rule: rule}
}

// Result is a reduced argument map plus how it was derived
type Result struct {
	Map        argmap.Graph
	Spine      []argmap.EdgeKey
	Admitted   []argmap.EdgeKey
	Thresholds map[argmap.Valence]float64
	SuperRoot  string
}

// Reduce computes the argument map of network. network is not modified; the
// map shares no slices with it. Anomalies in the network are logged, never
// returned: only a structurally invalid graph is an error.
func (r *Reducer) Reduce(ctx context.Context, network argmap.Graph) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := network.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relevance network: %w", err)
	}
	if r.Rule != RuleMedian && r.Rule != RuleMinimum {
		return nil, fmt.Errorf("unknown threshold rule %q", r.Rule)
	}

	logger := ctxlog.FromContext(ctx)
	claims := network.CentralClaims()
	if len(claims) == 0 {
		logger.Warn("Relevance network has no central claims.", "nodes", len(network.Nodes))
	}
	warnIntraRoot(ctx, network, claims)

	res := &Result{Thresholds: make(map[argmap.Valence]float64)}

	spine := r.branching(network, claims, res)
	if len(spine) == 0 && len(network.Nodes) > 1 {
		logger.Warn("Maximum branching is empty; the map will have no tree edges.",
			"nodes", len(network.Nodes), "edges", len(network.Edges))
	}

	r.setThresholds(network, spine, res)
	admitted := r.admit(network, spine, res)

	out := argmap.Graph{
		Nodes: make([]argmap.Node, len(network.Nodes)),
		Edges: make([]argmap.Edge, 0, len(spine)+len(admitted)),
	}
	copy(out.Nodes, network.Nodes)
	for i, e := range network.Edges {
		switch {
		case spine[i]:
			e.InForest = true
			res.Spine = append(res.Spine, e.Key())
		case admitted[i]:
			e.InForest = false
			res.Admitted = append(res.Admitted, e.Key())
		default:
			continue
		}
		out.Edges = append(out.Edges, e)
	}
	res.Map = out

	logger.Debug("Reduced relevance network.",
		"nodes", len(out.Nodes), "spine", len(res.Spine), "admitted", len(res.Admitted))
	return res, nil
}

// branching returns the input edges chosen by a maximum branching of the
// reversed network, keyed by input position.
//
// With several central claims a super-root collects them through pseudo
// edges, so the branching has a single root. A virtual root above every
// node carries a penalty larger than any achievable weight: the algorithm
// first attaches as many nodes as possible to a real parent and only then
// maximizes weight.
func (r *Reducer) branching(network argmap.Graph, claims []string, res *Result) map[int]bool {
	index := network.Index()
	n := len(network.Nodes)

	isClaim := make(map[string]bool, len(claims))
	for _, c := range claims {
		isClaim[c] = true
	}

	// Edges leaving a central claim never enter the branching: claims stay
	// the roots of their trees.
	var arcs []arc
	for i, e := range network.Edges {
		if isClaim[e.Source] {
			continue
		}
		arcs = append(arcs, arc{from: index[e.Target], to: index[e.Source], weight: e.Weight, order: i})
	}

	if len(claims) > 1 {
		res.SuperRoot = superRootPrefix + uuid.NewString()
		super := n
		n++
		for j, c := range claims {
			arcs = append(arcs, arc{from: super, to: index[c], weight: pseudoWeight, order: len(network.Edges) + j})
		}
	}

	virtual := n
	n++
	penalty := float64(len(arcs)+1) * pseudoWeight
	base := len(network.Edges) + len(claims)
	for v := 0; v < virtual; v++ {
		arcs = append(arcs, arc{from: virtual, to: v, weight: -penalty, order: base + v})
	}

	spine := make(map[int]bool)
	for _, i := range arborescence(n, virtual, arcs) {
		if arcs[i].order < len(network.Edges) {
			spine[arcs[i].order] = true
		}
	}
	return spine
}

func (r *Reducer) setThresholds(network argmap.Graph, spine map[int]bool, res *Result) {
	weights := make(map[argmap.Valence][]float64)
	for i, e := range network.Edges {
		if spine[i] {
			weights[e.Valence] = append(weights[e.Valence], e.Weight)
		}
	}
	for v, ws := range weights {
		switch r.Rule {
		case RuleMinimum:
			res.Thresholds[v] = floats.Min(ws)
		default:
			res.Thresholds[v] = median(ws)
		}
	}
}

// admit walks the non-spine edges in input order and keeps those that are
// stronger than their valence's threshold, join unconnected nodes, and
// leave the source below the out-degree cap.
func (r *Reducer) admit(network argmap.Graph, spine map[int]bool, res *Result) map[int]bool {
	admitted := make(map[int]bool)
	if len(res.Thresholds) == 0 {
		return admitted
	}

	linked := make(map[argmap.EdgeKey]bool)
	outDeg := make(map[string]int)
	for i, e := range network.Edges {
		if spine[i] {
			linked[e.Key()] = true
			outDeg[e.Source]++
		}
	}

	for i, e := range network.Edges {
		if spine[i] {
			continue
		}
		if linked[e.Key()] || linked[argmap.EdgeKey{Source: e.Target, Target: e.Source}] {
			continue
		}
		if outDeg[e.Source] >= r.MaxOutDegree {
			continue
		}
		th, ok := res.Thresholds[e.Valence]
		if !ok || e.Weight <= th {
			continue
		}
		admitted[i] = true
		linked[e.Key()] = true
		outDeg[e.Source]++
	}
	return admitted
}

func warnIntraRoot(ctx context.Context, network argmap.Graph, claims []string) {
	if len(claims) < 2 {
		return
	}
	isClaim := make(map[string]bool, len(claims))
	for _, c := range claims {
		isClaim[c] = true
	}
	for _, e := range network.Edges {
		if isClaim[e.Source] && isClaim[e.Target] {
			ctxlog.FromContext(ctx).Warn("Relevance network contains an edge between central claims.",
				"source", e.Source, "target", e.Target)
		}
	}
}

// median averages the two middle values of an even-length sample
func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
