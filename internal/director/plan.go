package director

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

// Plan is an ordered chain of producer descriptors. It holds no state and
// can be instantiated any number of times.
type Plan struct {
	Steps    []producer.Descriptor
	Goals    []Goal
	InputIDs []model.Keyword
}

// Empty reports whether the plan has nothing to run.
func (p *Plan) Empty() bool { return len(p.Steps) == 0 }

// Products returns the product of every step, in chain order.
func (p *Plan) Products() []model.Keyword {
	out := make([]model.Keyword, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Product
	}
	return out
}

// Summary describes the chain for reports.
func (p *Plan) Summary() []model.PlanStep {
	out := make([]model.PlanStep, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = model.PlanStep{
			Name:         s.Name,
			Product:      s.Product,
			Kind:         s.Kind,
			Requirements: s.Requirements.String(),
		}
	}
	return out
}

// Instantiate constructs every producer of the chain with deps.
func (p *Plan) Instantiate(deps producer.Deps) (*Pipeline, error) {
	chain := make([]producer.Producer, len(p.Steps))
	for i, desc := range p.Steps {
		prod, err := desc.New(deps)
		if err != nil {
			return nil, &model.ConfigurationError{
				Message: fmt.Sprintf("cannot construct producer '%s'", desc.Name),
				Keyword: desc.Product,
				Cause:   err,
			}
		}
		chain[i] = prod
	}
	return &Pipeline{plan: p, chain: chain}, nil
}

// Pipeline is an instantiated plan ready to run
type Pipeline struct {
	plan  *Plan
	chain []producer.Producer
}

// Plan returns the plan this pipeline was built from.
func (p *Pipeline) Plan() *Plan { return p.plan }

// Run appends inputs to a copy of template and folds the chain over it, one
// producer at a time. The first failing producer aborts the run. template is
// never modified, so concurrent runs from one template do not interfere.
func (p *Pipeline) Run(ctx context.Context, template model.AnalysisState, inputs ...model.Artifact) (model.AnalysisState, error) {
	logger := ctxlog.FromContext(ctx)

	state := template
	for _, in := range inputs {
		next, err := state.WithInput(in)
		if err != nil {
			return template, &model.ConfigurationError{Message: "cannot add input", Keyword: in.ID, Cause: err}
		}
		state = next
	}
	for _, id := range p.plan.InputIDs {
		if !state.Has(id) {
			return template, model.NewConfigurationError(id, "planned input was not supplied")
		}
	}

	for i, prod := range p.chain {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		info := prod.Info()
		start := time.Now()
		logger.Debug("Running producer.", "step", i+1, "of", len(p.chain), "producer", info.Name, "product", info.Product)

		next, err := prod.Analyze(ctx, state)
		if err != nil {
			return state, fmt.Errorf("producer '%s': %w", info.Name, err)
		}
		if err := checkStep(info, state, next); err != nil {
			return state, err
		}
		state = next

		logger.Debug("Producer finished.", "producer", info.Name, "duration", time.Since(start))
	}

	return state, nil
}

// checkStep verifies that a producer appended exactly its own product.
func checkStep(info producer.Info, before, after model.AnalysisState) error {
	fail := func(format string, args ...any) error {
		return model.NewDataError(info.Product, "producer contract violated: "+format, args...).WithProducer(info.Name)
	}

	if len(after.Inputs()) != len(before.Inputs()) {
		return fail("inputs changed")
	}
	if after.Products() != before.Products()+1 {
		return fail("expected one new product, got %d", after.Products()-before.Products())
	}
	for _, id := range before.IDs() {
		if !after.Has(id) {
			return fail("'%s' was removed", id)
		}
	}

	switch info.Kind {
	case model.KindScore:
		if _, ok := after.Score(info.Product); !ok {
			return fail("no score '%s' produced", info.Product)
		}
	default:
		a, ok := after.Artifact(info.Product)
		if !ok {
			return fail("no artifact '%s' produced", info.Product)
		}
		if a.Data == nil {
			return fail("artifact '%s' has no data", info.Product)
		}
	}
	return nil
}
