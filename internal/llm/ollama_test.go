package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaOracle_Judge_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Format != "json" {
			t.Errorf("expected json format, got %q", req.Format)
		}
		if req.Model != "llama3.1" {
			t.Errorf("unexpected model %q", req.Model)
		}

		resp := ollamaResponse{
			Model:    "llama3.1",
			Response: `{"support": 0.2, "attack": 0.6, "neutral": 0.2}`,
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oracle, err := NewOllamaOracle(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create oracle: %v", err)
	}

	dist, err := oracle.Judge(context.Background(), DialecticRelation("c", "r"))
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if math.Abs(dist[LabelAttack]-0.6) > 1e-9 {
		t.Errorf("unexpected distribution: %v", dist)
	}
}

func TestOllamaOracle_Judge_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not found"})
	}))
	defer server.Close()

	oracle, _ := NewOllamaOracle(Config{BaseURL: server.URL, Model: "missing", Timeout: 5})
	if _, err := oracle.Judge(context.Background(), DialecticRelation("c", "r")); err == nil {
		t.Error("expected error")
	}
}

func TestOllamaOracle_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	oracle, _ := NewOllamaOracle(Config{BaseURL: server.URL, Model: "llama3.1"})
	if !oracle.IsAvailable(context.Background()) {
		t.Error("expected oracle to be available")
	}
}

func TestNewOllamaOracle_RequiresModel(t *testing.T) {
	if _, err := NewOllamaOracle(Config{}); err == nil {
		t.Error("expected error without model")
	}
}
