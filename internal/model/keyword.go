package model

// Keyword identifies a product (artifact or score) within one analysis run
type Keyword string

// Kind classifies what a producer emits
type Kind string

const (
	KindArtifact Kind = "artifact"
	KindScore    Kind = "score"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindArtifact || k == KindScore
}

// Well-known keywords shared between producers and the input loader
const (
	KeywordIssue            Keyword = "issue"
	KeywordProsCons         Keyword = "proscons"
	KeywordRelevanceNetwork Keyword = "relevance_network"
	KeywordArgmapGraph      Keyword = "argmap_graph"
	KeywordFuzzyArgmap      Keyword = "fuzzy_argmap"

	KeywordArgmapSize         Keyword = "argmap_size"
	KeywordNRootNodes         Keyword = "n_root_nodes"
	KeywordAttackRatio        Keyword = "argmap_attack_ratio"
	KeywordAvgKatzCentrality  Keyword = "argmap_avg_katz_centrality"
	KeywordMeanReasonStrength Keyword = "mean_reason_strength"
	KeywordMeanRootSupport    Keyword = "mean_root_support"
	KeywordMeanAbsRootSupport Keyword = "mean_absolute_root_support"
	KeywordGlobalBalance      Keyword = "global_balance"
)
