package tokenizer

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

// Registered tokenizer tags.
const (
	TagWhitespace = "whitespace"
	TagSegment    = "segment"
	TagKeyword    = "keyword"
)

// Factory builds a fresh Tokenizer instance.
type Factory func() Tokenizer

// Registry maps tokenizer tags, as stored in document.FieldInfo, to
// factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in tokenizers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(TagWhitespace, func() Tokenizer { return &Whitespace{} })
	r.Register(TagSegment, func() Tokenizer { return &Segment{} })
	r.Register(TagKeyword, func() Tokenizer { return &Keyword{} })
	return r
}

func (r *Registry) Register(tag string, f Factory) {
	r.factories[tag] = f
}

func (r *Registry) New(tag string) (Tokenizer, error) {
	f, ok := r.factories[tag]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownTokenizer, "no tokenizer registered as %q", tag)
	}
	return f(), nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
