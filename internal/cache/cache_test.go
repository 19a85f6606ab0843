package cache

import (
	"strings"
	"testing"
	"time"
)

func TestCacheKey_Stable(t *testing.T) {
	a := CacheKey("ab", "c")
	b := CacheKey("a", "bc")
	if a == b {
		t.Error("expected length-prefixed parts to produce distinct keys")
	}
	if CacheKey("x", "y") != CacheKey("x", "y") {
		t.Error("expected deterministic key")
	}
	if !strings.HasPrefix(a, "argscope:v1:") {
		t.Errorf("unexpected prefix: %s", a)
	}
}

func TestJudgmentKey_ProviderCaseInsensitive(t *testing.T) {
	k1 := JudgmentKey("OpenAI", "m", "text", "hyp {}", []string{"a"}, []string{"x"})
	k2 := JudgmentKey("openai", "m", "text", "hyp {}", []string{"a"}, []string{"x"})
	if k1 != k2 {
		t.Error("expected provider name to be case-insensitive")
	}
	k3 := JudgmentKey("openai", "other", "text", "hyp {}", []string{"a"}, []string{"x"})
	if k1 == k3 {
		t.Error("expected model to be part of the key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := CacheKey("judgment")
	if err := c.Set(key, []byte(`{"support":1}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := c.Get(key); !ok || string(v) != `{"support":1}` {
		t.Errorf("Get = %q, %v", v, ok)
	}

	if err := c.Set(key, []byte("old"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	memory := NewMemoryCache(time.Hour, time.Minute)
	c := &LayeredCache{memory: memory, disk: disk}

	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := memory.Get("k"); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after Clear")
	}
}
