package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/argscope/internal/cache"
	"github.com/ppiankov/argscope/internal/ctxlog"
)

// CachedOracle serves repeated judgments from a cache
type CachedOracle struct {
	inner Oracle
	cache cache.Cache
	model string
	ttl   time.Duration
}

// NewCachedOracle wraps inner. model is part of the cache key so that
// switching models never returns stale judgments.
func NewCachedOracle(inner Oracle, c cache.Cache, model string, ttl time.Duration) *CachedOracle {
	return &CachedOracle{inner: inner, cache: c, model: model, ttl: ttl}
}

// Name returns the wrapped provider name
func (o *CachedOracle) Name() string {
	return o.inner.Name()
}

// IsAvailable delegates to the wrapped oracle
func (o *CachedOracle) IsAvailable(ctx context.Context) bool {
	return o.inner.IsAvailable(ctx)
}

// Judge returns a cached distribution or asks the wrapped oracle and caches
// its answer. Errors are never cached.
func (o *CachedOracle) Judge(ctx context.Context, req JudgmentRequest) (Distribution, error) {
	key := cache.JudgmentKey(o.inner.Name(), o.model, req.Text, req.Hypothesis, req.Labels, req.Verbalized)
	logger := ctxlog.FromContext(ctx)

	if data, ok := o.cache.Get(key); ok {
		var dist Distribution
		if err := json.Unmarshal(data, &dist); err == nil {
			logger.Debug("judgment cache hit", "provider", o.inner.Name())
			return dist, nil
		}
		_ = o.cache.Delete(key)
	}

	dist, err := o.inner.Judge(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(dist)
	if err == nil {
		if err := o.cache.Set(key, data, o.ttl); err != nil {
			logger.Warn("failed to cache judgment", "error", err)
		}
	}
	return dist, nil
}
