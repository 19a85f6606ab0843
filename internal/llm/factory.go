package llm

import (
	"fmt"
	"strings"
)

// NewOracle creates a judgment oracle based on configuration.
// An empty provider disables the oracle and returns nil, nil.
func NewOracle(config Config) (Oracle, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIOracle(config)

	case "anthropic", "claude":
		return NewAnthropicOracle(config)

	case "ollama":
		return NewOllamaOracle(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
