package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOracle judges with an OpenAI-compatible chat model. It asks for a
// single answer letter and reads the label distribution off the top log
// probabilities of that token.
type OpenAIOracle struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIOracle creates a new OpenAI oracle
func NewOpenAIOracle(config Config) (*OpenAIOracle, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient(30 * time.Second)

	return &OpenAIOracle{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return o.name
}

// IsAvailable checks if the provider is properly configured
func (o *OpenAIOracle) IsAvailable(ctx context.Context) bool {
	_, err := o.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Judge returns the label distribution for req
func (o *OpenAIOracle) Judge(ctx context.Context, req JudgmentRequest) (Distribution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := o.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	topLogProbs := o.config.TopLogProbs
	if topLogProbs <= 0 {
		topLogProbs = 5
	}
	if topLogProbs > 20 {
		topLogProbs = 20
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, o.config.timeout(30*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildChoicePrompt(req),
			},
		},
		MaxTokens:   1,
		Temperature: 0,
		LogProbs:    true,
		TopLogProbs: topLogProbs,
	}

	resp, err := o.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}
	choice := resp.Choices[0]

	if choice.LogProbs != nil && len(choice.LogProbs.Content) > 0 {
		dist := make(Distribution, len(req.Labels))
		for _, alt := range choice.LogProbs.Content[0].TopLogProbs {
			if label, ok := letterLabel(alt.Token, req.Labels); ok {
				dist[label] += math.Exp(alt.LogProb)
			}
		}
		dist = dist.Normalize(req.Labels)
		if dist[dist.Argmax(req.Labels)] > 0 {
			return dist, nil
		}
	}

	// No usable log probabilities: fall back to the answered letter.
	answer := strings.TrimSpace(choice.Message.Content)
	label, ok := letterLabel(answer, req.Labels)
	if !ok && answer != "" {
		label, ok = letterLabel(answer[:1], req.Labels)
	}
	if !ok {
		return nil, fmt.Errorf("unrecognized answer from OpenAI: %q", truncate(answer, 40))
	}
	dist := make(Distribution, len(req.Labels))
	for _, l := range req.Labels {
		dist[l] = 0
	}
	dist[label] = 1
	return dist, nil
}
