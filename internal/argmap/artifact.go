package argmap

import (
	"context"
	"strings"

	"github.com/ppiankov/argscope/internal/model"
)

// FromState reads the first of ids present in state as a Graph. Artifacts
// may hold a Graph or a Document; documents are decoded and validated.
// It returns the id that was read.
func FromState(ctx context.Context, state model.AnalysisState, ids ...model.Keyword) (Graph, model.Keyword, error) {
	for _, id := range ids {
		a, ok := state.Artifact(id)
		if !ok {
			continue
		}
		g, err := fromData(ctx, a.Data, id)
		return g, id, err
	}

	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	var kw model.Keyword
	if len(ids) > 0 {
		kw = ids[0]
	}
	return Graph{}, "", model.NewDataError(kw, "none of [%s] is available", strings.Join(names, ", "))
}

func fromData(ctx context.Context, data any, id model.Keyword) (Graph, error) {
	switch d := data.(type) {
	case Graph:
		if err := d.Validate(); err != nil {
			return Graph{}, model.NewDataError(id, "invalid graph").WithCause(err)
		}
		return d.Clone(), nil
	case *Graph:
		if d == nil {
			return Graph{}, model.NewDataError(id, "graph is nil")
		}
		return fromData(ctx, *d, id)
	case Document:
		return Decode(ctx, d, id)
	case *Document:
		if d == nil {
			return Graph{}, model.NewDataError(id, "document is nil")
		}
		return Decode(ctx, *d, id)
	default:
		return Graph{}, model.NewDataError(id, "artifact holds %T, want a graph", data)
	}
}
