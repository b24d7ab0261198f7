package ranker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
)

func ids(hits Hits) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.DocID()
	}
	return out
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 0.7071, Score(2, 4), 1e-4)
	assert.Equal(t, 1.0, Score(3, 3))
	assert.Greater(t, Score(3, 10), Score(2, 10), "more occurrences score higher")
	assert.Greater(t, Score(2, 5), Score(2, 10), "shorter fields score higher")
}

func TestOrdering(t *testing.T) {
	scores := map[string]float64{"c": 0.5, "a": 0.5, "b": 0.9, "d": 0.1}
	hits := FromScores(scores, document.WithID)

	assert.Equal(t, []string{"d", "a", "c", "b"}, ids(hits))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(hits.Descending()))
	assert.Equal(t, []string{"d", "a", "c", "b"}, ids(hits), "Descending must not reorder the receiver")
}

func TestTiesAreAllKept(t *testing.T) {
	hits := FromScores(map[string]float64{"1": 0.5, "2": 0.5}, document.WithID)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"1", "2"}, ids(hits))
}

func TestTop(t *testing.T) {
	scores := map[string]float64{"a": 0.1, "b": 0.4, "c": 0.3, "d": 0.4, "e": 0.2}
	hits := FromScores(scores, document.WithID)

	assert.Equal(t, []string{"b", "d", "c"}, ids(hits.Top(3)))
	assert.Equal(t, []string{"b", "d", "c", "e", "a"}, ids(hits.Top(0)))
	assert.Equal(t, []string{"b", "d", "c", "e", "a"}, ids(hits.Top(10)))
	assert.Empty(t, Hits(nil).Top(3))
}

func TestHitJSON(t *testing.T) {
	doc := document.WithID("7").Add(document.NewField("title", "Fox", document.FieldInfo{Stored: true}))
	data, err := json.Marshal(Hit{Document: doc, Score: Score(2, 4)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"doc_id":"7","score":0.7071,"fields":{"title":"Fox"}}`, string(data))
}
