package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/director"
	"github.com/ppiankov/argscope/internal/llm"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
	"github.com/ppiankov/argscope/internal/worker"
)

// Analyzer plans and runs the configured goals over input bundles. It is
// safe for concurrent use: every run folds over its own copy of the
// template state.
type Analyzer struct {
	config   *model.Config
	director *director.Director
	goals    []director.Goal
	deps     producer.Deps
	template model.AnalysisState
}

// NewAnalyzer creates an analyzer for cfg's goals. oracle may be nil when
// every bundle supplies a relevance network or argument map.
func NewAnalyzer(cfg *model.Config, reg *producer.Registry, oracle llm.Oracle) (*Analyzer, error) {
	goals, err := director.ParseGoals(cfg.Goals())
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		config:   cfg,
		director: director.New(reg),
		goals:    goals,
		deps: producer.Deps{
			Oracle:  oracle,
			Limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
			Config:  cfg,
		},
	}, nil
}

// Plan resolves the configured goals for a bundle supplying inputs.
func (a *Analyzer) Plan(ctx context.Context, inputs []model.Keyword) (*director.Plan, error) {
	return a.director.Plan(ctx, director.Request{Goals: a.goals, InputIDs: inputs})
}

// Analyze plans and runs one bundle. source names it in the report.
func (a *Analyzer) Analyze(ctx context.Context, source string, bundle *Bundle) (*model.Report, error) {
	logger := ctxlog.FromContext(ctx).With("source", source)
	ctx = ctxlog.WithLogger(ctx, logger)

	plan, err := a.Plan(ctx, bundle.IDs())
	if err != nil {
		return nil, err
	}
	logger.Debug("Planned analysis.", "steps", len(plan.Steps))

	run, err := plan.Instantiate(a.deps)
	if err != nil {
		return nil, err
	}

	state, err := run.Run(ctx, a.template, bundle.Artifacts()...)
	if err != nil {
		return nil, err
	}

	goals := make([]string, len(a.goals))
	for i, g := range a.goals {
		goals[i] = g.String()
	}

	report := &model.Report{
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		Goals:       goals,
		Plan:        plan.Summary(),
		State:       state,
	}
	if a.deps.Oracle != nil && usesOracle(plan) {
		report.Oracle = &model.OracleInfo{Provider: a.deps.Oracle.Name(), Model: a.config.LLM.Model}
	}
	return report, nil
}

// AnalyzeFile loads a bundle file and analyzes it
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	bundle, err := LoadBundle(path)
	if err != nil {
		return nil, err
	}
	report, err := a.Analyze(ctx, path, bundle)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return report, nil
}

func usesOracle(p *director.Plan) bool {
	for _, s := range p.Steps {
		if s.Product == model.KeywordRelevanceNetwork {
			return true
		}
	}
	return false
}
