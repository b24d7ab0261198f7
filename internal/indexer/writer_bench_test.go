package indexer

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/blockfile"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/kvstore"
)

const benchBody = "this is a benchmark document with several terms for testing the indexing performance of the writer"

// BenchmarkAddDocument measures per-document insert throughput into the
// in-memory index.
func BenchmarkAddDocument(b *testing.B) {
	ctx := context.Background()
	w := newWriter(b, kvstore.New(kvstore.NewMemoryTables()))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc := article(fmt.Sprintf("doc-%d", i), "benchmark title", benchBody)
		if err := w.AddDocument(ctx, doc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFlush measures a full snapshot of 1 000 documents per backend.
func BenchmarkFlush(b *testing.B) {
	backends := map[string]func() store.Directory{
		"blockfile": func() store.Directory { return blockfile.New(b.TempDir()) },
		"memory":    func() store.Directory { return kvstore.New(kvstore.NewMemoryTables()) },
	}
	for name, newDir := range backends {
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			w := newWriter(b, newDir())
			for i := 0; i < 1000; i++ {
				doc := article(fmt.Sprintf("doc-%d", i), fmt.Sprintf("title %d", i), fmt.Sprintf("%s %d", benchBody, i))
				if err := w.AddDocument(ctx, doc); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Flush(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
