package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

const tolerance = 1e-12

func approx(a, b float64) bool { return math.Abs(a-b) < tolerance }

func claim(id string) argmap.Node  { return argmap.Node{ID: id, Type: argmap.CentralClaim} }
func reason(id string) argmap.Node { return argmap.Node{ID: id, Type: argmap.Reason} }

func sup(s, t string, w float64) argmap.Edge {
	return argmap.Edge{Source: s, Target: t, Weight: w, Valence: argmap.Support}
}

func att(s, t string, w float64) argmap.Edge {
	return argmap.Edge{Source: s, Target: t, Weight: w, Valence: argmap.Attack}
}

// oneClaimMap: one pro and one con of equal weight
func oneClaimMap() argmap.Graph {
	return argmap.Graph{
		Nodes: []argmap.Node{claim("n0"), reason("n1"), reason("n2")},
		Edges: []argmap.Edge{sup("n1", "n0", 0.5), att("n2", "n0", 0.5)},
	}
}

// twoClaimMap: n3 attacks both claims, n2 only supports n0
func twoClaimMap() argmap.Graph {
	return argmap.Graph{
		Nodes: []argmap.Node{claim("n0"), claim("n1"), reason("n2"), reason("n3")},
		Edges: []argmap.Edge{sup("n2", "n0", 0.5), att("n3", "n0", 0.5), att("n3", "n1", 0.5)},
	}
}

// threeClaimMap adds a claim nothing relates to
func threeClaimMap() argmap.Graph {
	g := twoClaimMap()
	g.Nodes = append([]argmap.Node{claim("n00")}, g.Nodes...)
	return g
}

func TestBalance_Scores(t *testing.T) {
	tests := []struct {
		name    string
		g       argmap.Graph
		mean    float64
		meanAbs float64
		global  float64
	}{
		{name: "one claim balanced", g: oneClaimMap(), mean: 0, meanAbs: 0, global: 0},
		{name: "two claims", g: twoClaimMap(), mean: -0.125, meanAbs: 0.125, global: 0.25},
		{name: "three claims", g: threeClaimMap(), mean: -0.25 / 3, meanAbs: 0.25 / 3, global: 0.625 / 3},
		{
			name: "one reason for and against exclusive claims",
			g: argmap.Graph{
				Nodes: []argmap.Node{claim("c1"), claim("c2"), reason("a")},
				Edges: []argmap.Edge{sup("a", "c1", 0.5), att("a", "c2", 0.5)},
			},
			mean: 0, meanAbs: 0.5, global: 0.5,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeanRootSupport(ctx, tt.g).Value; !approx(got, tt.mean) {
				t.Errorf("mean root support = %v, want %v", got, tt.mean)
			}
			if got := MeanAbsRootSupport(ctx, tt.g).Value; !approx(got, tt.meanAbs) {
				t.Errorf("mean absolute root support = %v, want %v", got, tt.meanAbs)
			}
			if got := GlobalBalance(ctx, tt.g).Value; !approx(got, tt.global) {
				t.Errorf("global balance = %v, want %v", got, tt.global)
			}
		})
	}
}

func TestBalance_MRS(t *testing.T) {
	g := argmap.Graph{
		Nodes: []argmap.Node{claim("c"), reason("a"), reason("b"), reason("x")},
		Edges: []argmap.Edge{
			sup("a", "c", 0.5),
			att("b", "a", 0.4),
			sup("b", "c", 0.5),
		},
	}
	b, err := NewBalance(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}

	if v, ok := b.MRS("a", "c"); !ok || !approx(v, 0.5) {
		t.Errorf("MRS(a,c) = %v, %v", v, ok)
	}
	// Paths c->b (0.5) and c->a->b (0.5 * -0.4) average to 0.15.
	if v, ok := b.MRS("b", "c"); !ok || !approx(v, 0.15) {
		t.Errorf("MRS(b,c) = %v, %v", v, ok)
	}
	if v, ok := b.MRS("x", "c"); ok || v != 0 {
		t.Errorf("MRS(x,c) = %v, %v; want 0 without path", v, ok)
	}
	if got := b.RootSupport("c"); !approx(got, (0.5+0.15+0)/3) {
		t.Errorf("RS(c) = %v", got)
	}
}

// denseNetwork relates n reasons to one claim and to each other, as an
// unreduced relevance network does.
func denseNetwork(n int) argmap.Graph {
	g := argmap.Graph{Nodes: []argmap.Node{claim("c")}}
	for i := range n {
		id := fmt.Sprintf("r%d", i)
		g.Nodes = append(g.Nodes, reason(id))
		g.Edges = append(g.Edges, sup(id, "c", 0.5))
		for j := range n {
			if j != i {
				g.Edges = append(g.Edges, att(id, fmt.Sprintf("r%d", j), 0.5))
			}
		}
	}
	return g
}

func TestBalance_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBalance(ctx, denseNetwork(12)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	res := GlobalBalance(ctx, denseNetwork(12))
	if res.Value != 0 || !strings.Contains(res.Comment, "stopped") {
		t.Errorf("got %v (%q)", res.Value, res.Comment)
	}

	state, _ := model.NewState(model.Artifact{ID: model.KeywordArgmapGraph, Data: denseNetwork(12)})
	p, _ := Descriptors()[7].New(producer.Deps{})
	if _, err := p.Analyze(ctx, state); !errors.Is(err, context.Canceled) {
		t.Errorf("producer: expected context.Canceled, got %v", err)
	}
}

func TestBalance_NoRoots(t *testing.T) {
	cyclic := argmap.Graph{
		Nodes: []argmap.Node{reason("a"), reason("b")},
		Edges: []argmap.Edge{sup("a", "b", 0.5), sup("b", "a", 0.5)},
	}

	for name, fn := range map[string]Scorer{
		"mean":     MeanRootSupport,
		"mean abs": MeanAbsRootSupport,
		"global":   GlobalBalance,
	} {
		res := fn(context.Background(), cyclic)
		if res.Value != 0 {
			t.Errorf("%s: value = %v, want 0", name, res.Value)
		}
		if !strings.Contains(res.Comment, "No central claims") {
			t.Errorf("%s: comment = %q", name, res.Comment)
		}
	}
}

func TestBalance_RootFallback(t *testing.T) {
	// Without central claims, nodes without outgoing edges act as roots.
	g := argmap.Graph{
		Nodes: []argmap.Node{reason("top"), reason("a")},
		Edges: []argmap.Edge{att("a", "top", 0.8)},
	}
	res := MeanRootSupport(context.Background(), g)
	if res.Comment != "" || !approx(res.Value, -0.8) {
		t.Errorf("got %v (%q), want -0.8", res.Value, res.Comment)
	}
}

func TestGraphScores_NoEdges(t *testing.T) {
	g := argmap.Graph{Nodes: []argmap.Node{claim("c"), reason("a"), reason("b")}}
	ctx := context.Background()

	if got := Size(ctx, g).Value; got != 3 {
		t.Errorf("size = %v, want 3", got)
	}
	if got := AttackRatio(ctx, g).Value; got != 0 {
		t.Errorf("attack ratio = %v, want 0", got)
	}
	if got := MeanReasonStrength(ctx, g).Value; got != 0 {
		t.Errorf("mean reason strength = %v, want 0", got)
	}
	if got := RootCount(ctx, g).Value; got != 1 {
		t.Errorf("root count = %v, want 1", got)
	}
}

func TestGraphScores(t *testing.T) {
	ctx := context.Background()
	g := twoClaimMap()

	if got := AttackRatio(ctx, g).Value; !approx(got, 2.0/3) {
		t.Errorf("attack ratio = %v", got)
	}
	if got := MeanReasonStrength(ctx, g).Value; !approx(got, 0.5) {
		t.Errorf("mean reason strength = %v", got)
	}
	if got := RootCount(ctx, g).Value; got != 2 {
		t.Errorf("root count = %v", got)
	}
}

func TestKatzCentrality(t *testing.T) {
	g := argmap.Graph{
		Nodes: []argmap.Node{reason("a"), claim("b")},
		Edges: []argmap.Edge{sup("a", "b", 0.9)},
	}

	x, err := KatzCentrality(g, KatzAlpha, KatzBeta)
	if err != nil {
		t.Fatalf("KatzCentrality: %v", err)
	}
	norm := math.Sqrt(1 + 1.1*1.1)
	if !approx(x["a"], 1/norm) || !approx(x["b"], 1.1/norm) {
		t.Errorf("centralities = %v", x)
	}

	avg := AvgKatzCentrality(context.Background(), g)
	if !approx(avg.Value, 2.1/2/norm) {
		t.Errorf("average = %v", avg.Value)
	}

	single := argmap.Graph{Nodes: []argmap.Node{claim("c")}}
	if got := AvgKatzCentrality(context.Background(), single).Value; !approx(got, 1) {
		t.Errorf("single node average = %v, want 1", got)
	}
	if got := AvgKatzCentrality(context.Background(), argmap.Graph{}).Value; got != 0 {
		t.Errorf("empty graph average = %v, want 0", got)
	}
}

func TestProducers(t *testing.T) {
	ctx := context.Background()
	state, err := model.NewState(model.Artifact{ID: model.KeywordArgmapGraph, Data: twoClaimMap()})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[model.Keyword]bool)
	for _, d := range Descriptors() {
		if seen[d.Product] {
			t.Errorf("keyword %s registered twice", d.Product)
		}
		seen[d.Product] = true
		if d.Requirements.String() != "any of {fuzzy_argmap} | {argmap_graph}" {
			t.Errorf("%s requirements = %s", d.Name, d.Requirements)
		}

		p, err := d.New(producer.Deps{})
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		next, err := p.Analyze(ctx, state)
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		sc, ok := next.Score(d.Product)
		if !ok {
			t.Fatalf("%s: no score", d.Name)
		}
		if sc.Metadata["source"] != string(model.KeywordArgmapGraph) {
			t.Errorf("%s: source = %v", d.Name, sc.Metadata["source"])
		}
	}

	gb, _ := Descriptors()[7].New(producer.Deps{})
	next, _ := gb.Analyze(ctx, state)
	if sc, _ := next.Score(model.KeywordGlobalBalance); !approx(sc.Value, 0.25) {
		t.Errorf("global balance = %v", sc.Value)
	}
}

func TestProducer_PrefersReducedMap(t *testing.T) {
	state, _ := model.NewState(
		model.Artifact{ID: model.KeywordArgmapGraph, Data: twoClaimMap()},
	)
	state, _ = state.WithArtifact(model.Artifact{ID: model.KeywordFuzzyArgmap, Data: oneClaimMap()})

	p, _ := Descriptors()[0].New(producer.Deps{})
	next, err := p.Analyze(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	sc, _ := next.Score(model.KeywordArgmapSize)
	if sc.Value != 3 || sc.Metadata["source"] != string(model.KeywordFuzzyArgmap) {
		t.Errorf("got %v from %v", sc.Value, sc.Metadata["source"])
	}
}

func TestProducer_MissingMap(t *testing.T) {
	p, _ := Descriptors()[0].New(producer.Deps{})
	if _, err := p.Analyze(context.Background(), model.AnalysisState{}); !model.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}
