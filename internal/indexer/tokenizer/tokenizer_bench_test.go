package tokenizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `An inverted index maps every token of a field to the documents that
        contain it, together with how often it occurs. Postings are grouped in
        blocks keyed by the first characters of the token so that a query only
        loads the block it needs from storage.`,
	"long": strings.Repeat(`Tokenizers split text into words, filters lowercase them, drop
        stopwords and symbols, and reject tokens that are too short or too long.
        The number of tokens that survive is recorded as the norm of the field,
        and scores are the square root of frequency over norm. `, 20),
}

func BenchmarkAnalyze(b *testing.B) {
	for _, tag := range []string{"whitespace", "segment"} {
		cfg := config.DefaultAnalysis()
		cfg.Tokenizer = tag
		a := NewAnalyzer(NewRegistry(), cfg)
		for name, text := range sampleTexts {
			f := document.NewField("body", text, document.DefaultFieldInfo())
			b.Run(tag+"/"+name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(text)))
				for i := 0; i < b.N; i++ {
					if _, err := a.Tokens(f); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkAnalyzeParallel(b *testing.B) {
	a := NewAnalyzer(NewRegistry(), config.DefaultAnalysis())
	f := document.NewField("body", sampleTexts["medium"], document.DefaultFieldInfo())
	b.ReportAllocs()
	b.SetBytes(int64(len(f.Data)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := a.Tokens(f); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkStem(b *testing.B) {
	cfg := config.DefaultAnalysis()
	cfg.Stem = true
	a := NewAnalyzer(NewRegistry(), cfg)
	f := document.NewField("body", "running distributed searching indexing tokenization normalization efficiently", document.DefaultFieldInfo())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := a.Tokens(f); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAnalyzeVaryingSize(b *testing.B) {
	a := NewAnalyzer(NewRegistry(), config.DefaultAnalysis())
	baseWord := "inverted index postings blocks norms "
	for _, size := range []int{10, 100, 500, 1000, 5000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		f := document.NewField("body", text, document.DefaultFieldInfo())
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				if _, err := a.Tokens(f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
