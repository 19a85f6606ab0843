package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from its parts. Parts are length-prefixed
// so that ("ab", "c") and ("a", "bc") never collide.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return "argscope:v1:" + hex.EncodeToString(h.Sum(nil))
}

// JudgmentKey is the cache key of an oracle judgment
func JudgmentKey(provider, model, text, hypothesis string, labels, verbalized []string) string {
	return CacheKey(
		"judgment",
		strings.ToLower(provider),
		model,
		text,
		hypothesis,
		strings.Join(labels, "\x1f"),
		strings.Join(verbalized, "\x1f"),
	)
}
