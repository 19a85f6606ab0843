package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Oracle judges how well a hypothesis fits a text, returning a probability
// distribution over a fixed set of labels.
type Oracle interface {
	// Name returns the provider name
	Name() string

	// Judge returns the label distribution for req
	Judge(ctx context.Context, req JudgmentRequest) (Distribution, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// JudgmentRequest is a zero-shot multiple-choice classification query.
// Each label's verbalization is substituted into Hypothesis at "{}".
type JudgmentRequest struct {
	Text       string   `json:"text"`
	Hypothesis string   `json:"hypothesis"`
	Labels     []string `json:"labels"`
	Verbalized []string `json:"verbalized"`
}

// Validate checks that labels and verbalizations line up
func (r JudgmentRequest) Validate() error {
	if len(r.Labels) == 0 {
		return fmt.Errorf("judgment request has no labels")
	}
	if len(r.Labels) != len(r.Verbalized) {
		return fmt.Errorf("judgment request has %d labels but %d verbalizations", len(r.Labels), len(r.Verbalized))
	}
	if len(r.Labels) > len(choiceLetters) {
		return fmt.Errorf("judgment request has %d labels, at most %d supported", len(r.Labels), len(choiceLetters))
	}
	return nil
}

// Hypotheses returns the hypothesis filled with each verbalization
func (r JudgmentRequest) Hypotheses() []string {
	out := make([]string, len(r.Verbalized))
	for i, v := range r.Verbalized {
		out[i] = strings.Replace(r.Hypothesis, "{}", v, 1)
	}
	return out
}

// Distribution maps labels to probabilities
type Distribution map[string]float64

// Normalize rescales d over labels so it sums to 1. Labels absent from d get
// probability 0. A distribution with no mass is returned unchanged.
func (d Distribution) Normalize(labels []string) Distribution {
	total := 0.0
	for _, l := range labels {
		total += d[l]
	}
	out := make(Distribution, len(labels))
	for _, l := range labels {
		if total > 0 {
			out[l] = d[l] / total
		} else {
			out[l] = d[l]
		}
	}
	return out
}

// Argmax returns the most probable label; ties go to the earlier label.
func (d Distribution) Argmax(labels []string) string {
	best := ""
	bestP := math.Inf(-1)
	for _, l := range labels {
		if d[l] > bestP {
			best, bestP = l, d[l]
		}
	}
	return best
}

// Labels used for dialectical relation judgments
const (
	LabelSupport = "support"
	LabelAttack  = "attack"
	LabelNeutral = "neutral"
)

// DialecticRelation builds the query asking how reason bears on claim.
func DialecticRelation(claim, reason string) JudgmentRequest {
	return JudgmentRequest{
		Text:       fmt.Sprintf("Claim: %s. Reason: %s.", strings.TrimRight(claim, ". "), strings.TrimRight(reason, ". ")),
		Hypothesis: "The claim is {} the given reason.",
		Labels:     []string{LabelSupport, LabelAttack, LabelNeutral},
		Verbalized: []string{"directly confirmed by", "directly disconfirmed by", "independent of"},
	}
}

// NeutralRelation is used whenever a dialectical judgment is unavailable.
func NeutralRelation() Distribution {
	return Distribution{LabelSupport: 0, LabelAttack: 0, LabelNeutral: 1}
}

const choiceLetters = "ABCDEFG"

const systemPrompt = "You are a careful analyst of argumentation. You judge how statements relate to each other and answer exactly in the requested format."

// buildChoicePrompt asks for a single answer letter.
func buildChoicePrompt(req JudgmentRequest) string {
	var b strings.Builder
	b.WriteString("Read the following text.\n\n")
	b.WriteString(req.Text)
	b.WriteString("\n\nWhich of the following statements is most accurate?\n")
	for i, h := range req.Hypotheses() {
		fmt.Fprintf(&b, "%c) %s\n", choiceLetters[i], h)
	}
	b.WriteString("\nAnswer with a single letter.")
	return b.String()
}

// buildDistributionPrompt asks for a JSON object with a probability per label.
func buildDistributionPrompt(req JudgmentRequest) string {
	var b strings.Builder
	b.WriteString("Read the following text.\n\n")
	b.WriteString(req.Text)
	b.WriteString("\n\nEstimate how likely each of the following statements is to be accurate:\n")
	hyps := req.Hypotheses()
	for i, l := range req.Labels {
		fmt.Fprintf(&b, "- %q: %s\n", l, hyps[i])
	}
	b.WriteString("\nAnswer only with a JSON object mapping each key above to a probability between 0 and 1. The probabilities must sum to 1.")
	return b.String()
}

// letterLabel maps an answer token such as " B" or "B)" to its label.
func letterLabel(token string, labels []string) (string, bool) {
	t := strings.ToUpper(strings.Trim(token, " \t\n().:"))
	if len(t) != 1 {
		return "", false
	}
	idx := strings.IndexByte(choiceLetters, t[0])
	if idx < 0 || idx >= len(labels) {
		return "", false
	}
	return labels[idx], true
}

// parseVerbalized extracts a distribution from a JSON answer, tolerating
// surrounding prose or code fences.
func parseVerbalized(answer string, labels []string) (Distribution, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in answer: %q", truncate(answer, 80))
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse answer: %w", err)
	}

	d := make(Distribution, len(labels))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		for _, l := range labels {
			if key == l && v > 0 && !math.IsNaN(v) {
				d[l] = v
			}
		}
	}
	d = d.Normalize(labels)

	mass := 0.0
	for _, l := range labels {
		mass += d[l]
	}
	if mass == 0 {
		return nil, fmt.Errorf("answer assigns no probability to known labels: %q", truncate(answer, 80))
	}
	return d, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
