package score

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/argscope/internal/argmap"
)

// Katz parameters: attenuation per hop and constant base centrality
const (
	KatzAlpha = 0.1
	KatzBeta  = 1.0
)

// Size counts the nodes of g.
func Size(_ context.Context, g argmap.Graph) Result {
	return Result{Value: float64(len(g.Nodes))}
}

// RootCount counts the roots of g: central claims, or nodes without
// outgoing edges when there are none.
func RootCount(_ context.Context, g argmap.Graph) Result {
	return Result{Value: float64(len(g.Roots()))}
}

// AttackRatio is the share of attack edges, 0 for a graph without edges.
func AttackRatio(_ context.Context, g argmap.Graph) Result {
	if len(g.Edges) == 0 {
		return Result{Value: 0}
	}
	attacks := 0
	for _, e := range g.Edges {
		if e.Valence == argmap.Attack {
			attacks++
		}
	}
	return Result{Value: float64(attacks) / float64(len(g.Edges))}
}

// MeanReasonStrength is the mean edge weight, 0 for a graph without edges.
func MeanReasonStrength(_ context.Context, g argmap.Graph) Result {
	if len(g.Edges) == 0 {
		return Result{Value: 0}
	}
	w := make([]float64, len(g.Edges))
	for i, e := range g.Edges {
		w[i] = e.Weight
	}
	return Result{Value: stat.Mean(w, nil)}
}

// AvgKatzCentrality is the mean of the L2-normalized Katz centralities of
// the nodes of g, counting unweighted incoming edges.
func AvgKatzCentrality(_ context.Context, g argmap.Graph) Result {
	if len(g.Nodes) == 0 {
		return Result{Value: 0}
	}
	x, err := KatzCentrality(g, KatzAlpha, KatzBeta)
	if err != nil {
		return Result{Value: 0, Comment: "cannot compute Katz centrality: " + err.Error()}
	}
	values := make([]float64, 0, len(x))
	for _, n := range g.Nodes {
		values = append(values, x[n.ID])
	}
	return Result{Value: stat.Mean(values, nil)}
}

// KatzCentrality solves x = alpha*A^T*x + beta for the adjacency matrix A of
// g and normalizes x to unit length.
func KatzCentrality(g argmap.Graph, alpha, beta float64) (map[string]float64, error) {
	n := len(g.Nodes)
	if n == 0 {
		return map[string]float64{}, nil
	}
	idx := g.Index()

	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	for _, e := range g.Edges {
		i, j := idx[e.Target], idx[e.Source]
		m.Set(i, j, m.At(i, j)-alpha)
	}

	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		b.SetVec(i, beta)
	}

	var x mat.VecDense
	if err := x.SolveVec(m, b); err != nil {
		return nil, err
	}
	if norm := mat.Norm(&x, 2); norm > 0 {
		x.ScaleVec(1/norm, &x)
	}

	out := make(map[string]float64, n)
	for _, node := range g.Nodes {
		out[node.ID] = x.AtVec(idx[node.ID])
	}
	return out, nil
}
