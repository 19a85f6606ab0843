// Package producer defines the contract every analysis step implements and
// the registry that maps product keywords to the producers able to make them.
package producer

import (
	"context"

	"github.com/ppiankov/argscope/internal/llm"
	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/worker"
)

// Info describes what a producer makes and what it needs
type Info struct {
	Name         string
	Product      model.Keyword
	Kind         model.Kind
	Requirements Requirements
	Description  string
}

// Artifact wraps data as this producer's artifact
func (i Info) Artifact(data any, metadata map[string]any) model.Artifact {
	return model.Artifact{
		ID:          i.Product,
		Description: i.Description,
		Data:        data,
		Metadata:    metadata,
	}
}

// Score wraps value as this producer's score
func (i Info) Score(value float64, comment string, metadata map[string]any) model.Score {
	return model.Score{
		ID:          i.Product,
		Description: i.Description,
		Value:       value,
		Comment:     comment,
		Metadata:    metadata,
	}
}

// DataError builds a DataError attributed to this producer
func (i Info) DataError(kw model.Keyword, format string, args ...any) *model.DataError {
	return model.NewDataError(kw, format, args...).WithProducer(i.Name)
}

// Producer is a single analysis step. Analyze reads what it requires from
// state and returns a new state with exactly one new artifact or score whose
// id is the product keyword. It never removes or rewrites existing entries.
type Producer interface {
	Info() Info
	Analyze(ctx context.Context, state model.AnalysisState) (model.AnalysisState, error)
}

// Deps are the shared collaborators handed to producer constructors
type Deps struct {
	Oracle  llm.Oracle
	Limiter *worker.Limiter
	Config  *model.Config
}

// Descriptor is a registrable producer type
type Descriptor struct {
	Info
	New func(Deps) (Producer, error)
}
