// Package ranker scores postings and orders hits.
package ranker

import (
	"container/heap"
	"encoding/json"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
)

// Score rates a posting by the share of the field's tokens it accounts
// for. The square root compresses the range.
func Score(tf, norm int) float64 {
	return math.Sqrt(float64(tf) / float64(norm))
}

// Hit is a matched document and its score.
type Hit struct {
	Document *document.Document
	Score    float64
}

func (h Hit) DocID() string {
	return h.Document.ID
}

func (h Hit) MarshalJSON() ([]byte, error) {
	fields := make(map[string]string)
	for _, f := range h.Document.Fields() {
		fields[f.Name] = f.Data
	}
	return json.Marshal(struct {
		DocID  string            `json:"doc_id"`
		Score  float64           `json:"score"`
		Fields map[string]string `json:"fields,omitempty"`
	}{h.DocID(), math.Round(h.Score*10000) / 10000, fields})
}

// less orders by score, then by document id.
func less(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID() < b.DocID()
}

// better orders best-first, ties by ascending document id.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID() < b.DocID()
}

// Hits is a result set in ascending score order.
type Hits []Hit

// FromScores builds the ordered hit set for accumulated scores.
func FromScores(scores map[string]float64, doc func(docID string) *document.Document) Hits {
	hits := make(Hits, 0, len(scores))
	for docID, score := range scores {
		hits = append(hits, Hit{Document: doc(docID), Score: score})
	}
	sort.Slice(hits, func(i, j int) bool { return less(hits[i], hits[j]) })
	return hits
}

// Descending returns a copy ordered best-first.
func (h Hits) Descending() Hits {
	out := make(Hits, len(h))
	copy(out, h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// Top returns the k best hits, best-first. k <= 0 returns all of them.
func (h Hits) Top(k int) Hits {
	if k <= 0 || k >= len(h) {
		return h.Descending()
	}
	mh := &minHeap{}
	for _, hit := range h {
		heap.Push(mh, hit)
		if mh.Len() > k {
			heap.Pop(mh)
		}
	}
	out := make(Hits, mh.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(mh).(Hit)
	}
	return out
}

// minHeap keeps the worst retained hit on top.
type minHeap []Hit

func (m minHeap) Len() int           { return len(m) }
func (m minHeap) Less(i, j int) bool { return better(m[j], m[i]) }
func (m minHeap) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }

func (m *minHeap) Push(x any) {
	*m = append(*m, x.(Hit))
}

func (m *minHeap) Pop() any {
	old := *m
	n := len(old)
	item := old[n-1]
	*m = old[:n-1]
	return item
}
