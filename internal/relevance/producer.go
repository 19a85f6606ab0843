package relevance

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/argscope/internal/argmap"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

const (
	BuilderName = "relevance-builder"
	DecoderName = "graph-decoder"
)

// Descriptors returns the relevance network builder and the decoder that
// exposes a relevance network as a plain argument map graph.
func Descriptors() []producer.Descriptor {
	return []producer.Descriptor{BuilderDescriptor(), DecoderDescriptor()}
}

// BuilderDescriptor registers the oracle-driven builder under
// relevance_network.
func BuilderDescriptor() producer.Descriptor {
	info := producer.Info{
		Name:         BuilderName,
		Product:      model.KeywordRelevanceNetwork,
		Kind:         model.KindArtifact,
		Requirements: producer.Flat(model.KeywordIssue, model.KeywordProsCons),
		Description:  "Relevance network relating every reason of the pros and cons list to its claim and to other reasons, weighted by an oracle",
	}
	return producer.Descriptor{
		Info: info,
		New: func(deps producer.Deps) (producer.Producer, error) {
			if deps.Oracle == nil {
				return nil, errors.New("relevance builder needs a judgment oracle (set llm.provider)")
			}
			cfg := deps.Config
			if cfg == nil {
				cfg = model.DefaultConfig()
			}
			opts := Options{
				MaxRelations:     cfg.Builder.MaxRelations,
				KeepListValences: cfg.Builder.KeepListValences,
				Seed:             cfg.Builder.Seed,
				Workers:          cfg.Concurrency.OracleWorkers,
				JudgmentTimeout:  cfg.LLM.JudgmentTimeout,
			}
			return &builderProducer{info: info, builder: NewBuilder(deps.Oracle, deps.Limiter, opts)}, nil
		},
	}
}

type builderProducer struct {
	info    producer.Info
	builder *Builder
}

func (p *builderProducer) Info() producer.Info { return p.info }

func (p *builderProducer) Analyze(ctx context.Context, state model.AnalysisState) (model.AnalysisState, error) {
	issue, err := model.ArtifactData[string](state, model.KeywordIssue)
	if err != nil {
		return state, err
	}
	list, err := prosCons(state)
	if err != nil {
		return state, err
	}
	if len(list.Roots) == 0 {
		return state, p.info.DataError(model.KeywordProsCons, "pros and cons list has no central claims")
	}

	g, stats, err := p.builder.Build(ctx, list)
	if err != nil {
		if ctx.Err() != nil {
			return state, err
		}
		return state, fmt.Errorf("build relevance network: %w", err)
	}

	metadata := map[string]any{
		"issue":     issue,
		"oracle":    p.builder.oracle.Name(),
		"relations": stats.Relations,
		"timeouts":  stats.TimedOut,
		"sampled":   stats.Sampled,
	}
	return state.WithArtifact(p.info.Artifact(g, metadata))
}

func prosCons(state model.AnalysisState) (argmap.ProsConsList, error) {
	a, ok := state.Artifact(model.KeywordProsCons)
	if !ok {
		return argmap.ProsConsList{}, model.NewDataError(model.KeywordProsCons, "required artifact is missing")
	}
	switch d := a.Data.(type) {
	case argmap.ProsConsList:
		return d, nil
	case *argmap.ProsConsList:
		if d != nil {
			return *d, nil
		}
	}
	return argmap.ProsConsList{}, model.NewDataError(model.KeywordProsCons, "artifact holds %T, want a pros and cons list", a.Data)
}

// DecoderDescriptor registers the decoder under argmap_graph.
func DecoderDescriptor() producer.Descriptor {
	info := producer.Info{
		Name:         DecoderName,
		Product:      model.KeywordArgmapGraph,
		Kind:         model.KindArtifact,
		Requirements: producer.Flat(model.KeywordRelevanceNetwork),
		Description:  "The relevance network as an unreduced argument map graph",
	}
	return producer.Descriptor{
		Info: info,
		New: func(producer.Deps) (producer.Producer, error) {
			return &decoderProducer{info: info}, nil
		},
	}
}

type decoderProducer struct {
	info producer.Info
}

func (p *decoderProducer) Info() producer.Info { return p.info }

func (p *decoderProducer) Analyze(ctx context.Context, state model.AnalysisState) (model.AnalysisState, error) {
	g, kw, err := argmap.FromState(ctx, state, model.KeywordRelevanceNetwork)
	if err != nil {
		var de *model.DataError
		if errors.As(err, &de) && de.Producer == "" {
			return state, de.WithProducer(p.info.Name)
		}
		return state, err
	}
	return state.WithArtifact(p.info.Artifact(g, map[string]any{"source": string(kw)}))
}
