package argmap

// Claim is a labelled statement in a pros and cons list
type Claim struct {
	Label string `json:"label" yaml:"label"`
	Text  string `json:"text" yaml:"text"`
}

// RootClaim is a central claim with the reasons for and against it
type RootClaim struct {
	Label string  `json:"label" yaml:"label"`
	Text  string  `json:"text" yaml:"text"`
	Pros  []Claim `json:"pros" yaml:"pros"`
	Cons  []Claim `json:"cons" yaml:"cons"`
}

// ProsConsList is the structured outcome of deliberating an issue
type ProsConsList struct {
	Roots   []RootClaim `json:"roots" yaml:"roots"`
	Options []string    `json:"options,omitempty" yaml:"options,omitempty"`
}

// Dedup drops reasons whose text already appeared earlier in the list, under
// the same or another root. A reason can show up as a pro for one root and as
// a con for another.
func (l ProsConsList) Dedup() ProsConsList {
	seen := make(map[string]bool)
	keep := func(in []Claim) []Claim {
		out := make([]Claim, 0, len(in))
		for _, c := range in {
			if !seen[c.Text] {
				out = append(out, c)
			}
			seen[c.Text] = true
		}
		return out
	}

	out := ProsConsList{Options: append([]string(nil), l.Options...)}
	for _, root := range l.Roots {
		out.Roots = append(out.Roots, RootClaim{
			Label: root.Label,
			Text:  root.Text,
			Pros:  keep(root.Pros),
			Cons:  keep(root.Cons),
		})
	}
	return out
}
