package pipeline

import (
	"fmt"

	"github.com/ppiankov/argscope/internal/cache"
	"github.com/ppiankov/argscope/internal/llm"
	"github.com/ppiankov/argscope/internal/model"
)

// NewOracle builds the configured judgment oracle, behind the judgment
// cache when caching is enabled. It returns nil when no provider is set.
func NewOracle(cfg *model.Config) (llm.Oracle, error) {
	oracle, err := llm.NewOracle(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}
	if oracle == nil || !cfg.Cache.Enabled {
		return oracle, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
	return llm.NewCachedOracle(oracle, c, cfg.LLM.Model, cfg.Cache.DiskTTL), nil
}
