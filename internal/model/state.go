package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Artifact is a named, structured product of a producer (or a supplied input)
type Artifact struct {
	ID          Keyword        `json:"id"`
	Description string         `json:"description,omitempty"`
	Data        any            `json:"data"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Score is a named scalar product of a producer
type Score struct {
	ID          Keyword        `json:"id"`
	Description string         `json:"description,omitempty"`
	Value       float64        `json:"value"`
	Comment     string         `json:"comment,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AnalysisState is the accumulated, append-only result of a run.
//
// The zero value is an empty state. Every With* method returns a new state;
// the receiver is never modified and never shares a writable backing array
// with the result, so a template state can seed many independent runs.
type AnalysisState struct {
	inputs    []Artifact
	artifacts []Artifact
	scores    []Score
}

// NewState builds a state holding the given inputs.
func NewState(inputs ...Artifact) (AnalysisState, error) {
	var s AnalysisState
	for _, in := range inputs {
		next, err := s.WithInput(in)
		if err != nil {
			return AnalysisState{}, err
		}
		s = next
	}
	return s, nil
}

// WithInput appends a supplied input artifact.
func (s AnalysisState) WithInput(a Artifact) (AnalysisState, error) {
	if err := s.checkArtifactID(a.ID); err != nil {
		return s, err
	}
	next := s.clone()
	next.inputs = append(next.inputs, cloneArtifact(a))
	return next, nil
}

// WithArtifact appends a produced artifact.
func (s AnalysisState) WithArtifact(a Artifact) (AnalysisState, error) {
	if err := s.checkArtifactID(a.ID); err != nil {
		return s, err
	}
	next := s.clone()
	next.artifacts = append(next.artifacts, cloneArtifact(a))
	return next, nil
}

// WithScore appends a produced score.
func (s AnalysisState) WithScore(sc Score) (AnalysisState, error) {
	if sc.ID == "" {
		return s, fmt.Errorf("score id must not be empty")
	}
	if _, ok := s.Score(sc.ID); ok {
		return s, fmt.Errorf("duplicate score id %q", sc.ID)
	}
	next := s.clone()
	sc.Metadata = maps.Clone(sc.Metadata)
	next.scores = append(next.scores, sc)
	return next, nil
}

func (s AnalysisState) checkArtifactID(id Keyword) error {
	if id == "" {
		return fmt.Errorf("artifact id must not be empty")
	}
	if _, ok := s.Artifact(id); ok {
		return fmt.Errorf("duplicate artifact id %q", id)
	}
	return nil
}

// Artifact looks up a produced artifact or a supplied input by id.
func (s AnalysisState) Artifact(id Keyword) (Artifact, bool) {
	for _, a := range s.artifacts {
		if a.ID == id {
			return a, true
		}
	}
	for _, a := range s.inputs {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// Score looks up a score by id.
func (s AnalysisState) Score(id Keyword) (Score, bool) {
	for _, sc := range s.scores {
		if sc.ID == id {
			return sc, true
		}
	}
	return Score{}, false
}

// Has reports whether id names an input, artifact or score.
func (s AnalysisState) Has(id Keyword) bool {
	if _, ok := s.Artifact(id); ok {
		return true
	}
	_, ok := s.Score(id)
	return ok
}

// Inputs returns a copy of the supplied inputs in insertion order.
func (s AnalysisState) Inputs() []Artifact { return slices.Clone(s.inputs) }

// Artifacts returns a copy of the produced artifacts in insertion order.
func (s AnalysisState) Artifacts() []Artifact { return slices.Clone(s.artifacts) }

// Scores returns a copy of the produced scores in insertion order.
func (s AnalysisState) Scores() []Score { return slices.Clone(s.scores) }

// Products is the number of produced artifacts and scores (inputs excluded).
func (s AnalysisState) Products() int { return len(s.artifacts) + len(s.scores) }

// IDs lists every input, artifact and score id in insertion order.
func (s AnalysisState) IDs() []Keyword {
	ids := make([]Keyword, 0, len(s.inputs)+len(s.artifacts)+len(s.scores))
	for _, a := range s.inputs {
		ids = append(ids, a.ID)
	}
	for _, a := range s.artifacts {
		ids = append(ids, a.ID)
	}
	for _, sc := range s.scores {
		ids = append(ids, sc.ID)
	}
	return ids
}

func (s AnalysisState) clone() AnalysisState {
	return AnalysisState{
		inputs:    slices.Clip(slices.Clone(s.inputs)),
		artifacts: slices.Clip(slices.Clone(s.artifacts)),
		scores:    slices.Clip(slices.Clone(s.scores)),
	}
}

func cloneArtifact(a Artifact) Artifact {
	a.Metadata = maps.Clone(a.Metadata)
	return a
}

type stateJSON struct {
	Inputs    []Artifact `json:"inputs"`
	Artifacts []Artifact `json:"artifacts"`
	Scores    []Score    `json:"scores"`
}

// MarshalJSON renders the state for reports.
func (s AnalysisState) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Inputs:    nonNil(s.inputs),
		Artifacts: nonNil(s.artifacts),
		Scores:    nonNil(s.scores),
	}
	return json.Marshal(out)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// ArtifactData returns the payload of artifact id as T, or a DataError when
// the artifact is missing or holds another type.
func ArtifactData[T any](s AnalysisState, id Keyword) (T, error) {
	var zero T
	a, ok := s.Artifact(id)
	if !ok {
		return zero, NewDataError(id, "required artifact is missing")
	}
	data, ok := a.Data.(T)
	if !ok {
		return zero, NewDataError(id, "artifact holds %T, want %T", a.Data, zero)
	}
	return data, nil
}
