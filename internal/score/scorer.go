// Package score computes scalar scores over argument maps: structural
// measures (size, roots, attack ratio, Katz centrality, reason strength)
// and path-based balance measures (root support and global balance).
package score

import (
	"context"
	"fmt"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

// Result is the outcome of one scorer
type Result struct {
	Value    float64
	Comment  string
	Metadata map[string]any
}

// Scorer calculates a score from an argument map
type Scorer func(ctx context.Context, g argmap.Graph) Result

// mapRequirements: a reduced map when one can be made, else any graph
var mapRequirements = producer.Alternatives(
	[]model.Keyword{model.KeywordFuzzyArgmap},
	[]model.Keyword{model.KeywordArgmapGraph},
)

// Descriptors returns the score producers, one per keyword.
func Descriptors() []producer.Descriptor {
	return []producer.Descriptor{
		descriptor(model.KeywordArgmapSize, "argmap-size",
			"Size of the argument map (number of nodes)", Size),
		descriptor(model.KeywordNRootNodes, "root-count",
			"Number of central claims (or root nodes) in the argument map", RootCount),
		descriptor(model.KeywordAttackRatio, "attack-ratio",
			"Ratio of attack relations among all relations in the argument map", AttackRatio),
		descriptor(model.KeywordAvgKatzCentrality, "avg-katz-centrality",
			"Average Katz centrality of all nodes in the argument map", AvgKatzCentrality),
		descriptor(model.KeywordMeanReasonStrength, "mean-reason-strength",
			"Mean weight of the relations in the argument map", MeanReasonStrength),
		descriptor(model.KeywordMeanRootSupport, "mean-root-support",
			"The mean root support in the argument map (global balance score)", MeanRootSupport),
		descriptor(model.KeywordMeanAbsRootSupport, "mean-absolute-root-support",
			"The mean absolute root support in the argument map (local balance score)", MeanAbsRootSupport),
		descriptor(model.KeywordGlobalBalance, "global-balance",
			"The argument map's global balance (assumes mutually exclusive and collectively exhaustive root claims)", GlobalBalance),
	}
}

func descriptor(kw model.Keyword, name, description string, fn Scorer) producer.Descriptor {
	info := producer.Info{
		Name:         name,
		Product:      kw,
		Kind:         model.KindScore,
		Requirements: mapRequirements,
		Description:  description,
	}
	return producer.Descriptor{
		Info: info,
		New: func(producer.Deps) (producer.Producer, error) {
			return &scoreProducer{info: info, fn: fn}, nil
		},
	}
}

type scoreProducer struct {
	info producer.Info
	fn   Scorer
}

func (p *scoreProducer) Info() producer.Info { return p.info }

func (p *scoreProducer) Analyze(ctx context.Context, state model.AnalysisState) (model.AnalysisState, error) {
	g, kw, err := argmap.FromState(ctx, state, model.KeywordFuzzyArgmap, model.KeywordArgmapGraph)
	if err != nil {
		return state, err
	}

	res := p.fn(ctx, g)
	if err := ctx.Err(); err != nil {
		return state, fmt.Errorf("%s: %w", p.info.Name, err)
	}
	if res.Comment != "" {
		ctxlog.FromContext(ctx).Warn(res.Comment, "score", p.info.Product)
	}

	metadata := map[string]any{"source": string(kw)}
	for k, v := range res.Metadata {
		metadata[k] = v
	}
	return state.WithScore(p.info.Score(res.Value, res.Comment, metadata))
}
