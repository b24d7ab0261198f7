package index

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockKey(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"fox", "fo"},
		{"fo", "fo"},
		{"f", "f"},
		{"", ""},
		{"東北雷神", "東北"},
		{"é1", "é1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BlockKey(tt.token), tt.token)
		assert.Equal(t, BlockKey(tt.token), BlockKey(tt.token))
	}
}

func TestAddOccurrence(t *testing.T) {
	d := NewPostingsDictionary()
	assert.True(t, d.AddOccurrence("fox", "1"))
	assert.False(t, d.AddOccurrence("fox", "1"))
	assert.True(t, d.AddOccurrence("quick", "1"))
	assert.False(t, d.AddOccurrence("fox", "2"))
	assert.False(t, d.AddOccurrence("fox", "1"), "returning to an earlier document")

	list, ok := d.Lookup("fox")
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, Posting{DocID: "1", Frequency: 3}, *list[0])
	assert.Equal(t, Posting{DocID: "2", Frequency: 1}, *list[1])

	_, ok = d.Lookup("brown")
	assert.False(t, ok)
	assert.Equal(t, 2, d.Len())
}

func TestRemovePosting(t *testing.T) {
	d := NewPostingsDictionary()
	d.AddOccurrence("fox", "1")
	d.AddOccurrence("fox", "2")
	d.AddOccurrence("four", "1")

	assert.False(t, d.RemovePosting("fox", "1"))
	list, _ := d.Lookup("fox")
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].DocID)

	assert.True(t, d.RemovePosting("fox", "2"))
	_, ok := d.Lookup("fox")
	assert.False(t, ok)
	assert.False(t, d.Attempted("fox"))

	_, ok = d.Block("fo")
	assert.True(t, ok, "four still lives in the block")
	d.RemovePosting("four", "1")
	_, ok = d.Block("fo")
	assert.False(t, ok)
	assert.False(t, d.RemovePosting("missing", "1"))
}

func TestRemoveThenAddSameDocument(t *testing.T) {
	d := NewPostingsDictionary()
	d.AddOccurrence("fox", "1")
	d.RemovePosting("fox", "1")
	assert.True(t, d.AddOccurrence("fox", "1"))
	list, _ := d.Lookup("fox")
	assert.Equal(t, 1, list[0].Frequency)
}

func TestPutBlockResetsCursor(t *testing.T) {
	d := NewLazyPostingsDictionary()
	d.AddOccurrence("fox", "1")
	d.PutBlock("fo", Block{"fox": PostingList{{DocID: "1", Frequency: 5}}})
	d.AddOccurrence("fox", "1")

	list, ok := d.Lookup("fox")
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, 6, list[0].Frequency, "counts land on the loaded posting")
}

func TestPutBlockAbsenceMarkers(t *testing.T) {
	d := NewLazyPostingsDictionary()
	assert.False(t, d.Resident())
	_, ok := d.Block("fo")
	assert.False(t, ok, "never attempted")

	d.PutBlock("fo", Block{"fox": PostingList{{DocID: "1", Frequency: 2}}})
	d.PutBlock("fo", Block{"fog": nil})

	list, ok := d.Lookup("fox")
	require.True(t, ok)
	assert.Equal(t, 2, list[0].Frequency)

	_, ok = d.Lookup("fog")
	assert.False(t, ok)
	assert.True(t, d.Attempted("fog"), "known absent")
	assert.False(t, d.Attempted("for"), "same block, not attempted")
	assert.Equal(t, 1, d.Len())
}

func TestSnapshotSorted(t *testing.T) {
	d := NewPostingsDictionary()
	for _, tok := range []string{"fox", "a", "brown", "ab", "abc", "quick"} {
		d.AddOccurrence(tok, "1")
	}
	var tokens []string
	for _, e := range d.Snapshot() {
		tokens = append(tokens, e.Token)
	}
	assert.Equal(t, []string{"a", "ab", "abc", "brown", "fox", "quick"}, tokens)
	assert.Equal(t, []string{"a", "ab", "br", "fo", "qu"}, d.BlockKeys())
}

func TestPostingJSON(t *testing.T) {
	data, err := json.Marshal(PostingList{{DocID: "doc1", Frequency: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["doc1",2]]`, string(data))

	var list PostingList
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, "doc1", list[0].DocID)
	assert.Equal(t, 2, list[0].Frequency)

	assert.Error(t, json.Unmarshal([]byte(`[["doc1"]]`), &list))
	assert.Error(t, json.Unmarshal([]byte(`[[1,2]]`), &list))
}

func BenchmarkAddOccurrence(b *testing.B) {
	d := NewPostingsDictionary()
	tokens := []string{"search", "engine", "index", "posting", "block", "search", "index"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.AddOccurrence(tokens[i%len(tokens)], "doc")
	}
}
