package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

func drain(tok Tokenizer) []string {
	var out []string
	for {
		t, ok := tok.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

func TestWhitespace(t *testing.T) {
	w := &Whitespace{}
	w.SetData("  the\tquick  brown\n\nfox  ")
	_, ok := w.Next()
	assert.False(t, ok, "not started")

	w.Start()
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, drain(w))
	_, ok = w.Next()
	assert.False(t, ok)

	w.SetData("again")
	w.Start()
	assert.Equal(t, []string{"again"}, drain(w))
}

func TestSegment(t *testing.T) {
	s := &Segment{}
	s.SetData("Hello, world! It's 2024.")
	s.Start()
	assert.Equal(t, []string{"Hello", "world", "It's", "2024"}, drain(s))

	s.SetData("ﬁle")
	s.Start()
	assert.Equal(t, []string{"file"}, drain(s), "NFKC folds the ligature")
}

func TestKeyword(t *testing.T) {
	k := &Keyword{}
	k.SetData("AB-12 x")
	k.Start()
	assert.Equal(t, []string{"AB-12 x"}, drain(k))

	k.SetData("   ")
	k.Start()
	assert.Empty(t, drain(k))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{TagKeyword, TagSegment, TagWhitespace}, r.Tags())

	tok, err := r.New(TagWhitespace)
	require.NoError(t, err)
	assert.IsType(t, &Whitespace{}, tok)

	_, err = r.New("ansj")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTokenizer))
}

func TestStagesFromConfigOrder(t *testing.T) {
	cfg := config.AnalysisConfig{
		Stem: true, Symbol: true, Length: true, Stopword: true, Alphanumeric: true, Lowercase: true,
		MinLength: 1, MaxLength: 10,
	}
	var kinds []StageKind
	for _, st := range StagesFromConfig(cfg) {
		kinds = append(kinds, st.Kind)
	}
	assert.Equal(t, []StageKind{StageLowercase, StageAlphanumeric, StageStopword, StageLength, StageSymbol, StageStem}, kinds)
	assert.Empty(t, StagesFromConfig(config.AnalysisConfig{}))
}

func analyze(t *testing.T, cfg config.AnalysisConfig, text string) []string {
	t.Helper()
	a := NewAnalyzer(NewRegistry(), cfg)
	toks, err := a.Tokens(document.NewField("body", text, document.DefaultFieldInfo()))
	require.NoError(t, err)
	return toks
}

func TestAnalyzerQuickBrownFox(t *testing.T) {
	cfg := config.AnalysisConfig{Lowercase: true, Stopword: true}
	assert.Equal(t, []string{"quick", "brown", "fox", "fox"}, analyze(t, cfg, "The quick brown fox the fox"))

	assert.Equal(t, []string{"quick", "brown", "fox", "fox"}, analyze(t, config.DefaultAnalysis(), "the quick brown fox the fox"))
}

func TestPredicateStagePullsUntilMatch(t *testing.T) {
	cfg := config.AnalysisConfig{Stopword: true}
	a := NewAnalyzer(NewRegistry(), cfg)
	p, err := a.Stream(document.NewField("body", "the a an fox the", document.DefaultFieldInfo()))
	require.NoError(t, err)

	tok, ok := p.Next()
	assert.True(t, ok)
	assert.Equal(t, "fox", tok)
	_, ok = p.Next()
	assert.False(t, ok)
	_, ok = p.Next()
	assert.False(t, ok, "an exhausted pipeline stays exhausted")
}

func TestTransformStageMayEmitEmpty(t *testing.T) {
	a := NewAnalyzer(NewRegistry(), config.AnalysisConfig{Alphanumeric: true})
	p, err := a.Stream(document.NewField("body", "!!! fox", document.DefaultFieldInfo()))
	require.NoError(t, err)

	tok, ok := p.Next()
	assert.True(t, ok)
	assert.Equal(t, "", tok)
	tok, ok = p.Next()
	assert.True(t, ok)
	assert.Equal(t, "fox", tok)

	assert.Equal(t, []string{"fox"}, analyze(t, config.AnalysisConfig{Alphanumeric: true}, "!!! fox"))
}

func TestPredicateStageDropsEmpty(t *testing.T) {
	cfg := config.AnalysisConfig{Alphanumeric: true, Stopword: true}
	a := NewAnalyzer(NewRegistry(), cfg)
	p, err := a.Stream(document.NewField("body", "!!! ???", document.DefaultFieldInfo()))
	require.NoError(t, err)
	_, ok := p.Next()
	assert.False(t, ok)
}

func TestLengthBoundsInclusive(t *testing.T) {
	cfg := config.AnalysisConfig{Length: true, MinLength: 3, MaxLength: 5}
	assert.Equal(t, []string{"abc", "abcde", "日本語"}, analyze(t, cfg, "ab abc abcde abcdef 日本語"))
}

func TestSymbolAndStem(t *testing.T) {
	assert.Equal(t, []string{"fox", "e-mail", "snake_case"}, analyze(t, config.AnalysisConfig{Symbol: true}, "fox! e-mail (snake_case)"))
	assert.Equal(t, []string{"run", "fox"}, analyze(t, config.AnalysisConfig{Stem: true}, "running foxes"))
}

func TestCustomStopwords(t *testing.T) {
	cfg := config.AnalysisConfig{Stopword: true, Stopwords: []string{"fox"}}
	assert.Equal(t, []string{"the", "dog"}, analyze(t, cfg, "the fox dog"))
}

func TestNonTokenizedFieldIsOneToken(t *testing.T) {
	a := NewAnalyzer(NewRegistry(), config.DefaultAnalysis())
	toks, err := a.Tokens(document.NewField("sku", "AB-12 X", document.Keyword(true, false)))
	require.NoError(t, err)
	assert.Equal(t, []string{"AB-12 X"}, toks)
}

func TestFieldTokenizerTag(t *testing.T) {
	a := NewAnalyzer(NewRegistry(), config.AnalysisConfig{Lowercase: true})
	toks, err := a.Tokens(document.NewField("body", "Hello, World", document.Text(true, false, TagSegment)))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, toks)

	_, err = a.Tokens(document.NewField("body", "x", document.Text(true, false, "missing")))
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTokenizer))
}

func TestConfiguredDefaultTokenizer(t *testing.T) {
	cfg := config.AnalysisConfig{Tokenizer: TagSegment, Lowercase: true}
	assert.Equal(t, []string{"hello", "world"}, analyze(t, cfg, "Hello,World"))
	assert.Equal(t, []string{"hello,world"}, analyze(t, config.AnalysisConfig{Lowercase: true}, "Hello,World"))
}

func BenchmarkAnalyzer(b *testing.B) {
	a := NewAnalyzer(NewRegistry(), config.DefaultAnalysis())
	f := document.NewField("body", "Distributed search engines split the inverted index into blocks so that a query only loads the postings it needs", document.DefaultFieldInfo())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Tokens(f); err != nil {
			b.Fatal(err)
		}
	}
}
