package tokenizer

import (
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
)

// Pipeline is a single pass over one field's text. Once exhausted it stays
// exhausted; analysing new text needs a new Pipeline.
type Pipeline struct {
	source Tokenizer
	stages []Stage
	done   bool
}

// NewPipeline binds tok to text and starts it.
func NewPipeline(tok Tokenizer, stages []Stage, text string) *Pipeline {
	tok.SetData(text)
	tok.Start()
	return &Pipeline{source: tok, stages: stages}
}

// Next returns the next token. Transform stages may yield an empty token;
// predicate stages never do.
func (p *Pipeline) Next() (string, bool) {
	if p.done {
		return "", false
	}
	tok, ok := p.pull(len(p.stages))
	if !ok {
		p.done = true
	}
	return tok, ok
}

// pull produces the output of the first n stages.
func (p *Pipeline) pull(n int) (string, bool) {
	if n == 0 {
		return p.source.Next()
	}
	st := p.stages[n-1]
	for {
		tok, ok := p.pull(n - 1)
		if !ok {
			return "", false
		}
		if !st.Predicate() {
			return st.apply(tok), true
		}
		if st.accept(tok) {
			return tok, true
		}
	}
}

// Analyzer builds pipelines for fields according to their FieldInfo.
type Analyzer struct {
	registry   *Registry
	stages     []Stage
	defaultTag string
}

func NewAnalyzer(registry *Registry, cfg config.AnalysisConfig) *Analyzer {
	tag := cfg.Tokenizer
	if tag == "" {
		tag = document.DefaultTokenizer
	}
	return &Analyzer{
		registry:   registry,
		stages:     StagesFromConfig(cfg),
		defaultTag: tag,
	}
}

// Stages returns the enabled filter stages in application order.
func (a *Analyzer) Stages() []Stage {
	return a.stages
}

// Stream returns a fresh pipeline over the field's text. Fields that are
// not tokenized yield their whole value as one unfiltered token.
func (a *Analyzer) Stream(f document.Field) (*Pipeline, error) {
	if !f.Info.Tokenized {
		return NewPipeline(&Keyword{}, nil, f.Data), nil
	}
	tag := f.Info.Tokenizer
	if tag == "" {
		tag = a.defaultTag
	}
	tok, err := a.registry.New(tag)
	if err != nil {
		return nil, err
	}
	return NewPipeline(tok, a.stages, f.Data), nil
}

// Tokens drains a pipeline for the field, dropping empty tokens.
func (a *Analyzer) Tokens(f document.Field) ([]string, error) {
	p, err := a.Stream(f)
	if err != nil {
		return nil, err
	}
	var out []string
	for {
		tok, ok := p.Next()
		if !ok {
			return out, nil
		}
		if tok != "" {
			out = append(out, tok)
		}
	}
}
