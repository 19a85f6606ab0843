package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/argscope/internal/cache"
)

func TestDialecticRelation(t *testing.T) {
	req := DialecticRelation("Cats are great.", "Cats purr")
	if req.Text != "Claim: Cats are great. Reason: Cats purr." {
		t.Errorf("unexpected text %q", req.Text)
	}
	hyps := req.Hypotheses()
	if hyps[0] != "The claim is directly confirmed by the given reason." {
		t.Errorf("unexpected hypothesis %q", hyps[0])
	}
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestJudgmentRequest_Validate(t *testing.T) {
	if err := (JudgmentRequest{}).Validate(); err == nil {
		t.Error("expected error for empty labels")
	}
	bad := JudgmentRequest{Labels: []string{"a", "b"}, Verbalized: []string{"x"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for mismatched verbalizations")
	}
}

func TestLetterLabel(t *testing.T) {
	labels := []string{"support", "attack", "neutral"}
	tests := map[string]string{"A": "support", " b": "attack", "C)": "neutral", "(A)": "support"}
	for token, want := range tests {
		got, ok := letterLabel(token, labels)
		if !ok || got != want {
			t.Errorf("letterLabel(%q) = %q, %v; want %q", token, got, ok, want)
		}
	}
	for _, token := range []string{"D", "AB", "", "yes"} {
		if _, ok := letterLabel(token, labels); ok {
			t.Errorf("letterLabel(%q) should not match", token)
		}
	}
}

func TestParseVerbalized(t *testing.T) {
	labels := []string{"support", "attack", "neutral"}

	d, err := parseVerbalized(`sure: {"Support": 2, "attack": 1, "neutral": 1, "other": 5}`, labels)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d["support"] != 0.5 || d["attack"] != 0.25 {
		t.Errorf("unexpected normalized distribution %v", d)
	}

	if _, err := parseVerbalized("no idea", labels); err == nil {
		t.Error("expected error for missing JSON")
	}
	if _, err := parseVerbalized(`{"maybe": 1}`, labels); err == nil {
		t.Error("expected error for zero mass")
	}
}

func TestDistribution_Argmax(t *testing.T) {
	labels := []string{"support", "attack", "neutral"}
	if got := NeutralRelation().Argmax(labels); got != LabelNeutral {
		t.Errorf("Argmax = %q", got)
	}
	tie := Distribution{"support": 0.5, "attack": 0.5}
	if got := tie.Argmax(labels); got != "support" {
		t.Errorf("ties should go to the earlier label, got %q", got)
	}
}

type countingOracle struct {
	calls atomic.Int32
	err   error
}

func (o *countingOracle) Name() string                     { return "fake" }
func (o *countingOracle) IsAvailable(context.Context) bool { return true }
func (o *countingOracle) Judge(ctx context.Context, req JudgmentRequest) (Distribution, error) {
	o.calls.Add(1)
	if o.err != nil {
		return nil, o.err
	}
	return Distribution{LabelSupport: 0.9, LabelAttack: 0.1, LabelNeutral: 0}, nil
}

func TestCachedOracle_ServesRepeats(t *testing.T) {
	inner := &countingOracle{}
	o := NewCachedOracle(inner, cache.NewMemoryCache(time.Minute, time.Minute), "m", 0)
	req := DialecticRelation("c", "r")

	for i := 0; i < 3; i++ {
		d, err := o.Judge(context.Background(), req)
		if err != nil {
			t.Fatalf("Judge failed: %v", err)
		}
		if d[LabelSupport] != 0.9 {
			t.Errorf("unexpected distribution %v", d)
		}
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls.Load())
	}

	if _, err := o.Judge(context.Background(), DialecticRelation("c", "other")); err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("expected distinct request to miss, got %d calls", inner.calls.Load())
	}
}

func TestCachedOracle_DoesNotCacheErrors(t *testing.T) {
	inner := &countingOracle{err: errors.New("boom")}
	o := NewCachedOracle(inner, cache.NewMemoryCache(time.Minute, time.Minute), "m", 0)

	for i := 0; i < 2; i++ {
		if _, err := o.Judge(context.Background(), DialecticRelation("c", "r")); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls.Load() != 2 {
		t.Errorf("expected errors to bypass cache, got %d calls", inner.calls.Load())
	}
}

func TestNewOracle_Factory(t *testing.T) {
	o, err := NewOracle(Config{})
	if err != nil || o != nil {
		t.Errorf("expected disabled oracle, got %v, %v", o, err)
	}
	if _, err := NewOracle(Config{Provider: "bogus"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	o, err = NewOracle(Config{Provider: "ollama", Model: "llama3.1"})
	if err != nil || o.Name() != "ollama" {
		t.Errorf("expected ollama oracle, got %v, %v", o, err)
	}
}
