// Package director plans and runs producer chains. Given the products a
// caller wants and the inputs already at hand, it resolves which producers
// are needed, orders them so every producer runs after what it requires,
// and folds the chain over an isolated analysis state.
package director

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/argscope/internal/ctxlog"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/producer"
)

// Goal is a requested product, optionally pinned to a named producer
type Goal struct {
	Keyword  model.Keyword
	Producer string
}

// ParseGoal parses "keyword" or "keyword@producer".
func ParseGoal(s string) (Goal, error) {
	s = strings.TrimSpace(s)
	kw, name, pinned := strings.Cut(s, "@")
	kw = strings.TrimSpace(kw)
	name = strings.TrimSpace(name)
	if kw == "" || (pinned && name == "") {
		return Goal{}, model.NewConfigurationError("", "malformed goal %q", s)
	}
	return Goal{Keyword: model.Keyword(kw), Producer: name}, nil
}

// ParseGoals parses a list of goal strings, skipping blanks.
func ParseGoals(items []string) ([]Goal, error) {
	goals := make([]Goal, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		g, err := ParseGoal(item)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (g Goal) String() string {
	if g.Producer == "" {
		return string(g.Keyword)
	}
	return string(g.Keyword) + "@" + g.Producer
}

// Request is what a caller asks the director to plan
type Request struct {
	Goals    []Goal
	InputIDs []model.Keyword
}

// Director plans chains against one registry
type Director struct {
	registry *producer.Registry
}

// New creates a director over reg. The registry is used read-only.
func New(reg *producer.Registry) *Director {
	return &Director{registry: reg}
}

// Plan resolves and orders the producers needed for req. Every failure is a
// ConfigurationError and nothing is executed.
func (d *Director) Plan(ctx context.Context, req Request) (*Plan, error) {
	inputs, err := d.precheck(req)
	if err != nil {
		return nil, err
	}

	selected, err := d.closure(ctx, req.Goals, inputs)
	if err != nil {
		return nil, err
	}

	steps, err := order(selected, inputs)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Planned producer chain.", "steps", len(steps), "inputs", len(req.InputIDs))

	return &Plan{
		Steps:    steps,
		Goals:    slices.Clone(req.Goals),
		InputIDs: slices.Clone(req.InputIDs),
	}, nil
}

// precheck rejects requests that can never be planned and returns the set of
// supplied input ids.
func (d *Director) precheck(req Request) (map[model.Keyword]bool, error) {
	inputs := make(map[model.Keyword]bool, len(req.InputIDs))
	for _, id := range req.InputIDs {
		if id == "" {
			return nil, model.NewConfigurationError("", "empty input id")
		}
		if inputs[id] {
			return nil, model.NewConfigurationError(id, "input supplied twice")
		}
		inputs[id] = true
	}

	pinned := make(map[model.Keyword]string)
	for _, g := range req.Goals {
		if !d.registry.Has(g.Keyword) {
			return nil, model.NewConfigurationError(g.Keyword, "no producer is registered for requested product")
		}
		if inputs[g.Keyword] {
			return nil, model.NewConfigurationError(g.Keyword, "requested product is already supplied as input")
		}
		if g.Producer == "" {
			continue
		}
		desc, ok := d.registry.Lookup(g.Producer)
		if !ok {
			return nil, model.NewConfigurationError(g.Keyword, "unknown producer '%s'", g.Producer)
		}
		if desc.Product != g.Keyword {
			return nil, model.NewConfigurationError(g.Keyword, "producer '%s' makes '%s'", g.Producer, desc.Product)
		}
		if prev, ok := pinned[g.Keyword]; ok && prev != g.Producer {
			return nil, model.NewConfigurationError(g.Keyword, "conflicting producers '%s' and '%s'", prev, g.Producer)
		}
		pinned[g.Keyword] = g.Producer
	}

	return inputs, nil
}

// closure grows the goal producers into a set that is closed under
// requirements: every producer has some requirement set made of supplied
// inputs and products of the set itself.
func (d *Director) closure(ctx context.Context, goals []Goal, inputs map[model.Keyword]bool) ([]producer.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	var selected []producer.Descriptor
	products := make(map[model.Keyword]bool)

	add := func(desc producer.Descriptor) {
		if products[desc.Product] {
			return
		}
		products[desc.Product] = true
		selected = append(selected, desc)
	}

	// Pinned goals first, so a later bare goal for the same keyword does
	// not seed the default in their place.
	for _, g := range goals {
		if g.Producer != "" {
			desc, _ := d.registry.Lookup(g.Producer)
			add(desc)
		}
	}
	for _, g := range goals {
		if g.Producer == "" {
			desc, _ := d.registry.Default(g.Keyword)
			add(desc)
		}
	}

	available := func(kw model.Keyword) bool { return inputs[kw] || products[kw] }
	warned := make(map[string]bool)

	for {
		grown := false
		for i := 0; i < len(selected) && !grown; i++ {
			desc := selected[i]
			satisfied := desc.Requirements.Satisfied(available)
			if len(satisfied) > 1 && !warned[desc.Name] {
				warned[desc.Name] = true
				logger.Warn("Several requirement sets are satisfied; using the first.",
					"producer", desc.Name, "sets", desc.Requirements.String(), "chosen", satisfied[0])
			}
			if len(satisfied) > 0 {
				continue
			}
			for _, kw := range desc.Requirements.Missing(available) {
				def, ok := d.registry.Default(kw)
				if !ok {
					return nil, model.NewConfigurationError(kw, "producer '%s' requires a product nothing makes", desc.Name)
				}
				add(def)
				grown = true
			}
		}
		if !grown {
			return selected, nil
		}
	}
}

// order places producers in passes. A producer is placeable once some
// requirement set is covered by the inputs and the products placed before
// the pass started.
func order(selected []producer.Descriptor, inputs map[model.Keyword]bool) ([]producer.Descriptor, error) {
	placed := make(map[model.Keyword]bool, len(selected))
	steps := make([]producer.Descriptor, 0, len(selected))
	pending := slices.Clone(selected)

	for len(pending) > 0 {
		snapshot := make(map[model.Keyword]bool, len(placed))
		for kw := range placed {
			snapshot[kw] = true
		}
		available := func(kw model.Keyword) bool { return inputs[kw] || snapshot[kw] }

		var next []producer.Descriptor
		for _, desc := range pending {
			if len(desc.Requirements.Satisfied(available)) > 0 {
				steps = append(steps, desc)
				placed[desc.Product] = true
				continue
			}
			next = append(next, desc)
		}

		if len(next) == len(pending) {
			stuck := make([]string, len(pending))
			for i, desc := range pending {
				stuck[i] = fmt.Sprintf("%s (%s needs %s)", desc.Product, desc.Name, desc.Requirements)
			}
			return nil, model.NewConfigurationError("", "unsatisfiable chain: %s", strings.Join(stuck, ", "))
		}
		pending = next
	}

	return steps, nil
}
