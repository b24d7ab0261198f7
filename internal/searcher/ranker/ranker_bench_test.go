package ranker

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
)

// BenchmarkRanking measures ordering accumulated scores and selecting the
// top ten for result sets of different sizes.
func BenchmarkRanking(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		scores := make(map[string]float64, numDocs)
		for i := 0; i < numDocs; i++ {
			scores[fmt.Sprintf("doc-%d", i)] = Score(i%7+1, i%50+10)
		}
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = FromScores(scores, document.WithID).Top(10)
			}
		})
	}
}
