// Package pipeline wires the default producers into a registry and runs
// planned analyses over input bundles.
package pipeline

import (
	"github.com/ppiankov/argscope/internal/producer"
	"github.com/ppiankov/argscope/internal/reduce"
	"github.com/ppiankov/argscope/internal/relevance"
	"github.com/ppiankov/argscope/internal/score"
)

// NewRegistry registers every built-in producer. Within a keyword, the first
// registration is the default: the oracle-driven builder for
// relevance_network and the median reducer for fuzzy_argmap.
func NewRegistry() (*producer.Registry, error) {
	reg := producer.NewRegistry()

	for _, d := range relevance.Descriptors() {
		reg.Register(d)
	}
	for _, d := range reduce.Descriptors() {
		reg.Register(d)
	}
	for _, d := range score.Descriptors() {
		reg.Register(d)
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
