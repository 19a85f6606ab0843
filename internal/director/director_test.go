package director

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

// stepProducer appends its product, or fails, or misbehaves on request
type stepProducer struct {
	info  producer.Info
	fail  error
	noop  bool
	calls *int32
}

func (p *stepProducer) Info() producer.Info { return p.info }

func (p *stepProducer) Analyze(ctx context.Context, s model.AnalysisState) (model.AnalysisState, error) {
	if p.calls != nil {
		atomic.AddInt32(p.calls, 1)
	}
	if p.fail != nil {
		return s, p.fail
	}
	if p.noop {
		return s, nil
	}
	if p.info.Kind == model.KindScore {
		return s.WithScore(p.info.Score(1, "", nil))
	}
	return s.WithArtifact(p.info.Artifact(string(p.info.Product)+"-data", nil))
}

type stepOption func(*stepProducer)

func descriptor(name string, product model.Keyword, kind model.Kind, req producer.Requirements, opts ...stepOption) producer.Descriptor {
	info := producer.Info{Name: name, Product: product, Kind: kind, Requirements: req}
	return producer.Descriptor{
		Info: info,
		New: func(producer.Deps) (producer.Producer, error) {
			p := &stepProducer{info: info}
			for _, o := range opts {
				o(p)
			}
			return p, nil
		},
	}
}

func kws(ids ...string) []model.Keyword {
	out := make([]model.Keyword, len(ids))
	for i, id := range ids {
		out[i] = model.Keyword(id)
	}
	return out
}

// testRegistry mirrors the shape of the real one: an issue and a list feed a
// network, the network feeds two reducers, and scores accept either map.
func testRegistry(opts map[string][]stepOption) *producer.Registry {
	r := producer.NewRegistry()
	r.Register(descriptor("builder", "network", model.KindArtifact, producer.Flat(kws("issue", "list")...), opts["builder"]...))
	r.Register(descriptor("median", "map", model.KindArtifact, producer.Flat(kws("network")...), opts["median"]...))
	r.Register(descriptor("minimum", "map", model.KindArtifact, producer.Flat(kws("network")...), opts["minimum"]...))
	r.Register(descriptor("decoder", "graph", model.KindArtifact, producer.Flat(kws("network")...), opts["decoder"]...))
	r.Register(descriptor("size", "size", model.KindScore, producer.Alternatives(kws("map"), kws("graph")), opts["size"]...))
	r.Register(descriptor("balance", "balance", model.KindScore, producer.Alternatives(kws("map"), kws("graph")), opts["balance"]...))
	return r
}

func names(p *Plan) []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Name
	}
	return out
}

func goals(t *testing.T, items ...string) []Goal {
	t.Helper()
	g, err := ParseGoals(items)
	if err != nil {
		t.Fatalf("ParseGoals: %v", err)
	}
	return g
}

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in      string
		want    Goal
		wantErr bool
	}{
		{in: "map", want: Goal{Keyword: "map"}},
		{in: " map@minimum ", want: Goal{Keyword: "map", Producer: "minimum"}},
		{in: "map@", wantErr: true},
		{in: "@minimum", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGoal(tt.in)
			if tt.wantErr {
				if !model.IsConfigurationError(err) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.String() != strings.TrimSpace(tt.in) {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestPlan_ClosureAndOrder(t *testing.T) {
	d := New(testRegistry(nil))

	p, err := d.Plan(context.Background(), Request{
		Goals:    goals(t, "balance", "size"),
		InputIDs: kws("issue", "list"),
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if diff := cmp.Diff([]string{"builder", "median", "balance", "size"}, names(p)); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_AlternativeAlreadySupplied(t *testing.T) {
	d := New(testRegistry(nil))

	p, err := d.Plan(context.Background(), Request{
		Goals:    goals(t, "size"),
		InputIDs: kws("graph"),
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"size"}, names(p)); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_SecondAlternativeInChain(t *testing.T) {
	d := New(testRegistry(nil))

	// graph is requested, so size can run on it and no map is pulled in.
	p, err := d.Plan(context.Background(), Request{
		Goals:    goals(t, "size", "graph"),
		InputIDs: kws("network"),
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"decoder", "size"}, names(p)); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_PinnedProducer(t *testing.T) {
	d := New(testRegistry(nil))

	p, err := d.Plan(context.Background(), Request{
		Goals:    goals(t, "size", "map@minimum"),
		InputIDs: kws("network"),
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"minimum", "size"}, names(p)); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_ConfigurationErrors(t *testing.T) {
	cyclic := producer.NewRegistry()
	cyclic.Register(descriptor("a", "a", model.KindArtifact, producer.Flat(kws("b")...)))
	cyclic.Register(descriptor("b", "b", model.KindArtifact, producer.Flat(kws("a")...)))

	dangling := producer.NewRegistry()
	dangling.Register(descriptor("a", "a", model.KindArtifact, producer.Flat(kws("ghost")...)))

	tests := []struct {
		name    string
		reg     *producer.Registry
		req     Request
		wantMsg string
	}{
		{
			name:    "unknown keyword",
			reg:     testRegistry(nil),
			req:     Request{Goals: []Goal{{Keyword: "nope"}}},
			wantMsg: "no producer is registered",
		},
		{
			name:    "requested and supplied",
			reg:     testRegistry(nil),
			req:     Request{Goals: []Goal{{Keyword: "size"}}, InputIDs: kws("size", "graph")},
			wantMsg: "already supplied",
		},
		{
			name:    "unknown producer",
			reg:     testRegistry(nil),
			req:     Request{Goals: []Goal{{Keyword: "map", Producer: "mode"}}},
			wantMsg: "unknown producer",
		},
		{
			name:    "producer makes another keyword",
			reg:     testRegistry(nil),
			req:     Request{Goals: []Goal{{Keyword: "map", Producer: "size"}}},
			wantMsg: "makes 'size'",
		},
		{
			name:    "conflicting pins",
			reg:     testRegistry(nil),
			req:     Request{Goals: []Goal{{Keyword: "map", Producer: "median"}, {Keyword: "map", Producer: "minimum"}}},
			wantMsg: "conflicting producers",
		},
		{
			name:    "duplicate input",
			reg:     testRegistry(nil),
			req:     Request{InputIDs: kws("issue", "issue")},
			wantMsg: "supplied twice",
		},
		{
			name:    "cycle",
			reg:     cyclic,
			req:     Request{Goals: []Goal{{Keyword: "a"}}},
			wantMsg: "unsatisfiable chain",
		},
		{
			name:    "requirement nothing makes",
			reg:     dangling,
			req:     Request{Goals: []Goal{{Keyword: "a"}}},
			wantMsg: "requires a product nothing makes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.reg).Plan(context.Background(), tt.req)
			var cfgErr *model.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestPlan_CycleNamesStuckKeywords(t *testing.T) {
	r := producer.NewRegistry()
	r.Register(descriptor("a", "a", model.KindArtifact, producer.Flat(kws("b")...)))
	r.Register(descriptor("b", "b", model.KindArtifact, producer.Flat(kws("a")...)))

	_, err := New(r).Plan(context.Background(), Request{Goals: goals(t, "a")})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, kw := range []string{"a (a needs {b})", "b (b needs {a})"} {
		if !strings.Contains(err.Error(), kw) {
			t.Errorf("error %q does not name %q", err, kw)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	d := New(testRegistry(nil))
	req := Request{Goals: goals(t, "size", "balance", "graph"), InputIDs: kws("list", "issue")}

	first, err := d.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := d.Plan(context.Background(), req)
		if err != nil {
			t.Fatalf("Plan: %v", err)
		}
		if diff := cmp.Diff(names(first), names(again)); diff != "" {
			t.Fatalf("plan changed between runs (-first +again):\n%s", diff)
		}
	}
}

func TestPlan_EveryStepIsSatisfiedByEarlierSteps(t *testing.T) {
	d := New(testRegistry(nil))
	inputs := kws("issue", "list")

	p, err := d.Plan(context.Background(), Request{Goals: goals(t, "balance", "graph", "size"), InputIDs: inputs})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	available := make(map[model.Keyword]bool)
	for _, id := range inputs {
		available[id] = true
	}
	for _, step := range p.Steps {
		if len(step.Requirements.Satisfied(func(kw model.Keyword) bool { return available[kw] })) == 0 {
			t.Errorf("step %s runs before its requirements %s", step.Name, step.Requirements)
		}
		available[step.Product] = true
	}
}

func TestPlan_EmptyRequest(t *testing.T) {
	p, err := New(testRegistry(nil)).Plan(context.Background(), Request{InputIDs: kws("issue")})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !p.Empty() {
		t.Errorf("expected empty plan, got %v", names(p))
	}
}
