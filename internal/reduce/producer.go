package reduce

import (
	"context"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

const (
	MedianReducerName  = "median-reducer"
	MinimumReducerName = "minimum-reducer"
)

// Descriptors returns the reducer producers for fuzzy_argmap, default first.
func Descriptors() []producer.Descriptor {
	return []producer.Descriptor{
		descriptor(MedianReducerName, RuleMedian,
			"Argument map reduced from the relevance network; extra edges must beat the median branching weight"),
		descriptor(MinimumReducerName, RuleMinimum,
			"Argument map reduced from the relevance network; extra edges must beat the minimum branching weight"),
	}
}

func descriptor(name string, rule ThresholdRule, description string) producer.Descriptor {
	info := producer.Info{
		Name:         name,
		Product:      model.KeywordFuzzyArgmap,
		Kind:         model.KindArtifact,
		Requirements: producer.Flat(model.KeywordRelevanceNetwork),
		Description:  description,
	}
	return producer.Descriptor{
		Info: info,
		New: func(deps producer.Deps) (producer.Producer, error) {
			maxOut := 0
			if deps.Config != nil {
				maxOut = deps.Config.Reducer.MaxOutDegree
			}
			return &mapProducer{info: info, reducer: New(maxOut, rule)}, nil
		},
	}
}

type mapProducer struct {
	info    producer.Info
	reducer *Reducer
}

func (p *mapProducer) Info() producer.Info { return p.info }

func (p *mapProducer) Analyze(ctx context.Context, state model.AnalysisState) (model.AnalysisState, error) {
	network, kw, err := argmap.FromState(ctx, state, model.KeywordRelevanceNetwork)
	if err != nil {
		return state, err
	}

	res, err := p.reducer.Reduce(ctx, network)
	if err != nil {
		return state, p.info.DataError(kw, "cannot reduce relevance network").WithCause(err)
	}

	metadata := map[string]any{
		"threshold_rule": string(p.reducer.Rule),
		"max_out_degree": p.reducer.MaxOutDegree,
		"spine_edges":    keyStrings(res.Spine),
		"edges_added":    keyStrings(res.Admitted),
		"thresholds":     thresholdMap(res.Thresholds),
	}
	if res.SuperRoot != "" {
		metadata["super_root"] = res.SuperRoot
	}

	return state.WithArtifact(p.info.Artifact(res.Map, metadata))
}

func keyStrings(keys []argmap.EdgeKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func thresholdMap(th map[argmap.Valence]float64) map[string]float64 {
	out := make(map[string]float64, len(th))
	for v, w := range th {
		out[string(v)] = w
	}
	return out
}
