package producer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ppiankov/argscope/internal/model"
)

// Registry maps product keywords to the ordered list of descriptors able to
// make them. The first descriptor registered for a keyword is its default.
type Registry struct {
	byKeyword map[model.Keyword][]Descriptor
	byName    map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKeyword: make(map[model.Keyword][]Descriptor),
		byName:    make(map[string]Descriptor),
	}
}

// Register adds a descriptor under its product keyword. Registering a name
// twice, or a descriptor without name, product or constructor, is a
// programming error and panics.
func (r *Registry) Register(d Descriptor) {
	if d.Name == "" || d.Product == "" || d.New == nil {
		panic(fmt.Sprintf("producer descriptor %q is incomplete", d.Name))
	}
	if _, exists := r.byName[d.Name]; exists {
		panic(fmt.Sprintf("producer with name '%s' already registered", d.Name))
	}
	slog.Debug("Registering producer.", "name", d.Name, "product", d.Product)
	r.byName[d.Name] = d
	r.byKeyword[d.Product] = append(r.byKeyword[d.Product], d)
}

// Validate checks registry consistency and reports all violations at once.
func (r *Registry) Validate() error {
	var errs []string

	for _, kw := range r.Keywords() {
		descs := r.byKeyword[kw]
		if len(descs) == 0 {
			errs = append(errs, fmt.Sprintf("keyword '%s' has no producers", kw))
			continue
		}
		kind := descs[0].Kind
		for _, d := range descs {
			if d.Product != kw {
				errs = append(errs, fmt.Sprintf("producer '%s' makes '%s' but is registered under '%s'", d.Name, d.Product, kw))
			}
			if !d.Kind.Valid() {
				errs = append(errs, fmt.Sprintf("producer '%s' has invalid kind '%s'", d.Name, d.Kind))
			}
			if d.Kind != kind {
				errs = append(errs, fmt.Sprintf("keyword '%s' mixes kinds: '%s' is %s, '%s' is %s", kw, descs[0].Name, kind, d.Name, d.Kind))
			}
			if !d.Requirements.Declared() {
				errs = append(errs, fmt.Sprintf("producer '%s' has no requirement spec (use Flat() for none)", d.Name))
			}
			if slices.Contains(d.Requirements.Keywords(), d.Product) {
				errs = append(errs, fmt.Sprintf("producer '%s' requires its own product", d.Name))
			}
		}
	}

	if len(errs) > 0 {
		return &model.ConfigurationError{
			Message: fmt.Sprintf("registry validation failed:\n- %s", strings.Join(errs, "\n- ")),
		}
	}
	return nil
}

// Default returns the default descriptor for kw.
func (r *Registry) Default(kw model.Keyword) (Descriptor, bool) {
	descs := r.byKeyword[kw]
	if len(descs) == 0 {
		return Descriptor{}, false
	}
	return descs[0], true
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors returns all descriptors registered for kw, default first.
func (r *Registry) Descriptors(kw model.Keyword) []Descriptor {
	return slices.Clone(r.byKeyword[kw])
}

// Has reports whether any producer makes kw.
func (r *Registry) Has(kw model.Keyword) bool {
	return len(r.byKeyword[kw]) > 0
}

// Keywords returns all registered keywords, sorted.
func (r *Registry) Keywords() []model.Keyword {
	kws := make([]model.Keyword, 0, len(r.byKeyword))
	for kw := range r.byKeyword {
		kws = append(kws, kw)
	}
	slices.Sort(kws)
	return kws
}
