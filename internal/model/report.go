package model

import "time"

// Report is the complete outcome of analyzing one input bundle
type Report struct {
	Source      string        `json:"source"`       // bundle path or name
	GeneratedAt time.Time     `json:"generated_at"` // when the run finished
	Goals       []string      `json:"goals"`        // requested keywords
	Plan        []PlanStep    `json:"plan"`         // producers in execution order
	Oracle      *OracleInfo   `json:"oracle,omitempty"`
	State       AnalysisState `json:"state"`
}

// PlanStep describes one producer of the executed chain
type PlanStep struct {
	Name         string  `json:"name"`
	Product      Keyword `json:"product"`
	Kind         Kind    `json:"kind"`
	Requirements string  `json:"requirements"`
}

// OracleInfo records which judgment oracle served the run
type OracleInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ScoreValue returns the value of score id, or false if the run did not
// produce it
func (r *Report) ScoreValue(id Keyword) (float64, bool) {
	sc, ok := r.State.Score(id)
	return sc.Value, ok
}
