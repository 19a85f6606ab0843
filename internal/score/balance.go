package score

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/argscope/internal/argmap"
)

// Balance scores read the map backwards, from each root claim down to the
// reasons, with attack edges carrying negative weight. The marginal root
// support MRS(n,t) of reason n for root t is the mean product of weights
// over all simple paths from t to n.

// checkEvery is how many path expansions run between context checks
const checkEvery = 4096

// step is an edge of the reversed, signed graph
type step struct {
	to     string
	weight float64
}

// Balance holds the marginal root supports of a map
type Balance struct {
	Roots  []string
	Others []string
	// mrs[t][n] is set only when some path leads from t to n
	mrs map[string]map[string]float64
}

// NewBalance enumerates every simple path from each root. The number of
// paths grows exponentially with density, so unreduced networks can take
// long; the enumeration stops with ctx's error once ctx is done.
func NewBalance(ctx context.Context, g argmap.Graph) (*Balance, error) {
	b := &Balance{
		Roots: g.Roots(),
		mrs:   make(map[string]map[string]float64),
	}
	isRoot := make(map[string]bool, len(b.Roots))
	for _, t := range b.Roots {
		isRoot[t] = true
	}
	for _, n := range g.Nodes {
		if !isRoot[n.ID] {
			b.Others = append(b.Others, n.ID)
		}
	}

	adj := make(map[string][]step)
	for _, e := range g.Edges {
		adj[e.Target] = append(adj[e.Target], step{to: e.Source, weight: e.Signed()})
	}

	for _, t := range b.Roots {
		products, err := pathProducts(ctx, adj, t)
		if err != nil {
			return nil, err
		}
		b.mrs[t] = make(map[string]float64)
		for _, n := range b.Others {
			if ps := products[n]; len(ps) > 0 {
				b.mrs[t][n] = stat.Mean(ps, nil)
			}
		}
	}
	return b, nil
}

// pathProducts returns, per reachable node, the weight product of every
// simple path from start.
func pathProducts(ctx context.Context, adj map[string][]step, start string) (map[string][]float64, error) {
	out := make(map[string][]float64)
	onPath := map[string]bool{start: true}
	expanded := 0
	var err error

	var walk func(node string, prod float64)
	walk = func(node string, prod float64) {
		for _, s := range adj[node] {
			if err != nil {
				return
			}
			if onPath[s.to] {
				continue
			}
			expanded++
			if expanded%checkEvery == 0 {
				if err = ctx.Err(); err != nil {
					return
				}
			}
			p := prod * s.weight
			out[s.to] = append(out[s.to], p)
			onPath[s.to] = true
			walk(s.to, p)
			onPath[s.to] = false
		}
	}
	walk(start, 1)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MRS returns the marginal root support of n for t, and whether any path
// connects them. Unconnected pairs have support 0.
func (b *Balance) MRS(n, t string) (float64, bool) {
	v, ok := b.mrs[t][n]
	return v, ok
}

// RootSupport is the mean MRS over all non-root nodes, counting
// unconnected nodes as 0.
func (b *Balance) RootSupport(t string) float64 {
	if len(b.Others) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range b.Others {
		sum += b.mrs[t][n]
	}
	return sum / float64(len(b.Others))
}

// imputed is MRS'(n,t): the MRS when t reaches n, else minus the mean
// support n gives the roots it does reach, divided by their number.
func (b *Balance) imputed(n, t string) float64 {
	if v, ok := b.mrs[t][n]; ok {
		return v
	}
	var reached []float64
	for _, other := range b.Roots {
		if v, ok := b.mrs[other][n]; ok {
			reached = append(reached, v)
		}
	}
	if len(reached) == 0 {
		return 0
	}
	return -stat.Mean(reached, nil) / float64(len(reached))
}

// GlobalBalance is the mean over roots of |mean_n MRS'(n,t)|.
func (b *Balance) GlobalBalance() float64 {
	if len(b.Roots) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range b.Roots {
		if len(b.Others) == 0 {
			continue
		}
		vals := make([]float64, len(b.Others))
		for i, n := range b.Others {
			vals[i] = b.imputed(n, t)
		}
		total += math.Abs(stat.Mean(vals, nil))
	}
	return total / float64(len(b.Roots))
}

func noRoots(name string) Result {
	return Result{Value: 0, Comment: fmt.Sprintf("No central claims or root nodes found, cannot calculate %s", name)}
}

func interrupted(name string, err error) Result {
	return Result{Value: 0, Comment: fmt.Sprintf("Path enumeration stopped, cannot calculate %s: %v", name, err)}
}

func rootSupports(b *Balance) map[string]float64 {
	out := make(map[string]float64, len(b.Roots))
	for _, t := range b.Roots {
		out[t] = b.RootSupport(t)
	}
	return out
}

// MeanRootSupport averages the root support over all roots. Imbalances of
// different roots may cancel out.
func MeanRootSupport(ctx context.Context, g argmap.Graph) Result {
	b, err := NewBalance(ctx, g)
	if err != nil {
		return interrupted("mean root support", err)
	}
	if len(b.Roots) == 0 {
		return noRoots("mean root support")
	}
	rs := rootSupports(b)
	vals := make([]float64, 0, len(rs))
	for _, t := range b.Roots {
		vals = append(vals, rs[t])
	}
	return Result{Value: stat.Mean(vals, nil), Metadata: map[string]any{"root_support": rs}}
}

// MeanAbsRootSupport averages the absolute root support over all roots, so
// local imbalances do not cancel out.
func MeanAbsRootSupport(ctx context.Context, g argmap.Graph) Result {
	b, err := NewBalance(ctx, g)
	if err != nil {
		return interrupted("mean absolute root support", err)
	}
	if len(b.Roots) == 0 {
		return noRoots("mean absolute root support")
	}
	rs := rootSupports(b)
	vals := make([]float64, 0, len(rs))
	for _, t := range b.Roots {
		vals = append(vals, math.Abs(rs[t]))
	}
	return Result{Value: stat.Mean(vals, nil), Metadata: map[string]any{"root_support": rs}}
}

// GlobalBalance scores g assuming its roots are mutually exclusive and
// collectively exhaustive: a reason backing one root counts against the
// roots it does not reach.
func GlobalBalance(ctx context.Context, g argmap.Graph) Result {
	b, err := NewBalance(ctx, g)
	if err != nil {
		return interrupted("global balance", err)
	}
	if len(b.Roots) == 0 {
		return noRoots("global balance")
	}
	return Result{Value: b.GlobalBalance()}
}
