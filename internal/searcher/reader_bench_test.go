package searcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/blockfile"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/kvstore"
)

func corpus(n int) []*document.Document {
	docs := make([]*document.Document, n)
	for i := range docs {
		docs[i] = article(
			fmt.Sprintf("doc-%d", i),
			"inverted index",
			fmt.Sprintf("search engine with lazy postings blocks and norms %d", i%17),
		)
	}
	return docs
}

// BenchmarkSearch measures single-term lookup over 10 000 documents once
// the block is cached.
func BenchmarkSearch(b *testing.B) {
	r := build(b, blockfile.New(b.TempDir()), corpus(10000)...)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Search(ctx, "body", "search"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkColdSearch measures the first lookup of a term, including the
// block load, per backend.
func BenchmarkColdSearch(b *testing.B) {
	docs := corpus(1000)
	tables := kvstore.NewMemoryTables()
	build(b, kvstore.New(tables), docs...)
	path := b.TempDir()
	build(b, blockfile.New(path), docs...)

	b.Run("blockfile", func(b *testing.B) {
		ctx := context.Background()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r := NewReader(index.New(), blockfile.New(path), analyzer())
			if err := r.Open(ctx); err != nil {
				b.Fatal(err)
			}
			if _, err := r.Search(ctx, "body", "postings"); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("memory", func(b *testing.B) {
		ctx := context.Background()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r := NewReader(index.New(), kvstore.New(tables), analyzer())
			if err := r.Open(ctx); err != nil {
				b.Fatal(err)
			}
			if _, err := r.Search(ctx, "body", "postings"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkSearchDocument measures a query-by-document with two fields.
func BenchmarkSearchDocument(b *testing.B) {
	r := build(b, kvstore.New(kvstore.NewMemoryTables()), corpus(5000)...)
	query := document.New().
		Add(document.NewField("title", "index", document.DefaultFieldInfo())).
		Add(document.NewField("body", "lazy search blocks", document.DefaultFieldInfo()))
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hits, err := r.SearchDocument(ctx, query)
		if err != nil {
			b.Fatal(err)
		}
		_ = hits.Top(10)
	}
}
