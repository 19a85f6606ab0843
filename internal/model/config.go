package model

import "time"

// Config is the complete argscope configuration
type Config struct {
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Reducer      ReducerConfig      `yaml:"reducer" mapstructure:"reducer"`
	Builder      BuilderConfig      `yaml:"builder" mapstructure:"builder"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// AnalysisConfig lists the goals of a run. Entries are keywords, optionally
// pinned to a producer with "keyword@producer".
type AnalysisConfig struct {
	Artifacts []string `yaml:"artifacts" mapstructure:"artifacts"`
	Metrics   []string `yaml:"metrics" mapstructure:"metrics"`
}

// ReducerConfig tunes the relevance network reduction
type ReducerConfig struct {
	MaxOutDegree int `yaml:"max_out_degree" mapstructure:"max_out_degree"`
}

// BuilderConfig tunes the oracle-driven relevance network builder
type BuilderConfig struct {
	MaxRelations     int   `yaml:"max_relations" mapstructure:"max_relations"`
	KeepListValences bool  `yaml:"keep_list_valences" mapstructure:"keep_list_valences"`
	Seed             int64 `yaml:"seed" mapstructure:"seed"`
}

// LLMConfig configures the judgment oracle
type LLMConfig struct {
	Provider        string        `yaml:"provider" mapstructure:"provider"` // openai, ollama, "" (disabled)
	Model           string        `yaml:"model" mapstructure:"model"`
	APIKey          string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL         string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout         int           `yaml:"timeout" mapstructure:"timeout"` // seconds, whole request
	JudgmentTimeout time.Duration `yaml:"judgment_timeout" mapstructure:"judgment_timeout"`
	TopLogProbs     int           `yaml:"top_logprobs" mapstructure:"top_logprobs"`
}

// CacheConfig configures the oracle response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds worker pools
type ConcurrencyConfig struct {
	Workers       int `yaml:"workers" mapstructure:"workers"`               // batch runs
	OracleWorkers int `yaml:"oracle_workers" mapstructure:"oracle_workers"` // judgments per run
}

// RateLimitingConfig throttles oracle calls per provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// HTTPConfig holds proxy settings for the oracle client
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Artifacts: []string{string(KeywordFuzzyArgmap)},
			Metrics: []string{
				string(KeywordArgmapSize),
				string(KeywordNRootNodes),
				string(KeywordAttackRatio),
				string(KeywordMeanRootSupport),
				string(KeywordMeanAbsRootSupport),
				string(KeywordGlobalBalance),
			},
		},
		Reducer: ReducerConfig{
			MaxOutDegree: 3,
		},
		Builder: BuilderConfig{
			MaxRelations:     20,
			KeepListValences: true,
			Seed:             0,
		},
		LLM: LLMConfig{
			Provider:        "", // disabled
			Model:           "gpt-4o-mini",
			Timeout:         30,
			JudgmentTimeout: 20 * time.Second,
			TopLogProbs:     5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:       4,
			OracleWorkers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Dir: "./argscope-reports",
		},
	}
}

// Goals returns artifact goals followed by metric goals.
func (c *Config) Goals() []string {
	goals := make([]string, 0, len(c.Analysis.Artifacts)+len(c.Analysis.Metrics))
	goals = append(goals, c.Analysis.Artifacts...)
	goals = append(goals, c.Analysis.Metrics...)
	return goals
}
