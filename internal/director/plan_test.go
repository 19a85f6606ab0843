package director

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

func mustPipeline(t *testing.T, reg *producer.Registry, req Request) *Pipeline {
	t.Helper()
	p, err := New(reg).Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	pipe, err := p.Instantiate(producer.Deps{})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return pipe
}

func inputArtifacts(ids ...string) []model.Artifact {
	out := make([]model.Artifact, len(ids))
	for i, id := range ids {
		out[i] = model.Artifact{ID: model.Keyword(id), Data: id}
	}
	return out
}

func TestPipeline_RunFoldsChain(t *testing.T) {
	pipe := mustPipeline(t, testRegistry(nil), Request{
		Goals:    goals(t, "balance", "size"),
		InputIDs: kws("issue", "list"),
	})

	state, err := pipe.Run(context.Background(), model.AnalysisState{}, inputArtifacts("issue", "list")...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := kws("issue", "list", "network", "map", "balance", "size")
	if diff := cmp.Diff(want, state.IDs()); diff != "" {
		t.Errorf("state ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_TemplateIsolation(t *testing.T) {
	pipe := mustPipeline(t, testRegistry(nil), Request{
		Goals:    goals(t, "size"),
		InputIDs: kws("graph"),
	})

	template, err := model.NewState(inputArtifacts("graph")...)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state, err := pipe.Run(context.Background(), template)
			if err == nil && !state.Has("size") {
				err = errors.New("size missing")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("run %d: %v", i, err)
		}
	}
	if template.Has("size") || template.Products() != 0 {
		t.Error("template state was modified by a run")
	}
}

func TestPipeline_EmptyChainIsNoop(t *testing.T) {
	pipe := mustPipeline(t, testRegistry(nil), Request{InputIDs: kws("issue")})

	state, err := pipe.Run(context.Background(), model.AnalysisState{}, inputArtifacts("issue")...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Products() != 0 || !state.Has("issue") {
		t.Errorf("unexpected state: %v", state.IDs())
	}
}

func TestPipeline_FailFast(t *testing.T) {
	var sizeCalls int32
	reg := testRegistry(map[string][]stepOption{
		"median": {func(p *stepProducer) { p.fail = model.NewDataError("network", "broken graph") }},
		"size":   {func(p *stepProducer) { p.calls = &sizeCalls }},
	})

	pipe := mustPipeline(t, reg, Request{Goals: goals(t, "size"), InputIDs: kws("network")})

	_, err := pipe.Run(context.Background(), model.AnalysisState{}, inputArtifacts("network")...)
	if !model.IsDataError(err) {
		t.Fatalf("expected DataError to propagate, got %v", err)
	}
	if sizeCalls != 0 {
		t.Errorf("producer after the failing one ran %d times", sizeCalls)
	}
}

func TestPipeline_ContractViolation(t *testing.T) {
	reg := testRegistry(map[string][]stepOption{
		"size": {func(p *stepProducer) { p.noop = true }},
	})
	pipe := mustPipeline(t, reg, Request{Goals: goals(t, "size"), InputIDs: kws("graph")})

	_, err := pipe.Run(context.Background(), model.AnalysisState{}, inputArtifacts("graph")...)
	var dataErr *model.DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError, got %v", err)
	}
	if dataErr.Producer != "size" {
		t.Errorf("error attributed to %q", dataErr.Producer)
	}
}

func TestPipeline_InputErrors(t *testing.T) {
	pipe := mustPipeline(t, testRegistry(nil), Request{Goals: goals(t, "size"), InputIDs: kws("graph")})

	template, _ := model.NewState(inputArtifacts("graph")...)
	if _, err := pipe.Run(context.Background(), template, inputArtifacts("graph")...); !model.IsConfigurationError(err) {
		t.Errorf("expected ConfigurationError for colliding input, got %v", err)
	}

	if _, err := pipe.Run(context.Background(), model.AnalysisState{}); !model.IsConfigurationError(err) {
		t.Errorf("expected ConfigurationError for missing planned input, got %v", err)
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	pipe := mustPipeline(t, testRegistry(nil), Request{Goals: goals(t, "size"), InputIDs: kws("graph")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pipe.Run(ctx, model.AnalysisState{}, inputArtifacts("graph")...); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPlan_Summary(t *testing.T) {
	p, err := New(testRegistry(nil)).Plan(context.Background(), Request{Goals: goals(t, "size"), InputIDs: kws("network")})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	want := []model.PlanStep{
		{Name: "median", Product: "map", Kind: model.KindArtifact, Requirements: "{network}"},
		{Name: "size", Product: "size", Kind: model.KindScore, Requirements: "any of {map} | {graph}"},
	}
	if diff := cmp.Diff(want, p.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InstantiateError(t *testing.T) {
	r := producer.NewRegistry()
	r.Register(producer.Descriptor{
		Info: producer.Info{Name: "broken", Product: "x", Kind: model.KindArtifact, Requirements: producer.Flat()},
		New: func(producer.Deps) (producer.Producer, error) {
			return nil, errors.New("no oracle")
		},
	})

	p, err := New(r).Plan(context.Background(), Request{Goals: goals(t, "x")})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, err := p.Instantiate(producer.Deps{}); !model.IsConfigurationError(err) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}
