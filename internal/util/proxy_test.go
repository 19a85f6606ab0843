package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc_Configured(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "", "internal.example")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1/chat/completions", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u == nil || u.Host != "proxy:3128" {
		t.Errorf("expected https to fall back to http proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://internal.example/api", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected NO_PROXY host to bypass proxy, got %v", u)
	}
}

func TestNewProxyFunc_SeparateHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain:80", "http://secure:443", "")

	req, _ := http.NewRequest(http.MethodGet, "https://example.org", nil)
	u, _ := proxy(req)
	if u == nil || u.Host != "secure:443" {
		t.Errorf("expected https proxy, got %v", u)
	}
}
