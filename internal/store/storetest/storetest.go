// Package storetest holds a conformance suite run against every
// store.Directory implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

// Factory returns a fresh, empty Directory. Calling it twice within one
// test must return directories that share the same persisted location.
type Factory func(t *testing.T) func() store.Directory

// Sample builds a small index by hand:
//
//	doc 1, body: quick(2) brown fox   title: fox
//	doc 2, body: quiet brown
func Sample() *index.Index {
	idx := index.New()
	idx.RegisterField(document.OptionIndexed, "body")
	idx.RegisterField(document.OptionIndexed, "title")
	idx.RegisterField(document.OptionStored, "body")

	add := func(field, docID string, tokens ...string) {
		for _, tok := range tokens {
			idx.AddOccurrence(index.NewTerm(field, tok), docID)
		}
		idx.SetNorm(field, docID, len(tokens))
	}
	add("body", "1", "quick", "brown", "fox", "quick")
	add("title", "1", "fox")
	idx.CountDocument()
	add("body", "2", "quiet", "brown")
	idx.CountDocument()

	idx.SetStored("body", "1", "The quick brown fox, quick!")
	idx.SetStored("body", "2", "Quiet brown")
	return idx
}

// Run executes the conformance suite.
func Run(t *testing.T, factory Factory) {
	t.Run("ReadMissing", func(t *testing.T) { testReadMissing(t, factory(t)) })
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, factory(t)) })
	t.Run("LazyBlocks", func(t *testing.T) { testLazyBlocks(t, factory(t)) })
	t.Run("ReadPostings", func(t *testing.T) { testReadPostings(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("KeepsUnloadedPostings", func(t *testing.T) { testKeepsUnloaded(t, factory(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, factory(t)) })
	t.Run("Ping", func(t *testing.T) { testPing(t, factory(t)) })
}

func open(t *testing.T, newDir func() store.Directory) store.Directory {
	t.Helper()
	dir := newDir()
	t.Cleanup(func() { _ = dir.Close() })
	return dir
}

func testReadMissing(t *testing.T, newDir func() store.Directory) {
	dir := open(t, newDir)
	idx := Sample()

	err := dir.Read(context.Background(), idx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
	assert.ErrorIs(t, err, apperrors.ErrNoIndex)
	assert.Equal(t, int64(2), idx.NumDocs(), "failed read must leave the index untouched")
}

func testRoundTrip(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	require.NoError(t, open(t, newDir).Write(ctx, Sample()))

	idx := index.New()
	require.NoError(t, open(t, newDir).Read(ctx, idx))

	assert.Equal(t, int64(2), idx.NumDocs())
	assert.Equal(t, int64(5), idx.NumTerms(), "terms are counted per field")
	assert.Equal(t, []string{"body", "title"}, idx.FieldNames(document.OptionIndexed))
	assert.Equal(t, []string{"body"}, idx.FieldNames(document.OptionStored))

	norm, ok := idx.Norm("body", "1")
	require.True(t, ok)
	assert.Equal(t, 4, norm)
	norm, ok = idx.Norm("title", "1")
	require.True(t, ok)
	assert.Equal(t, 1, norm)

	v, ok := idx.Stored("body", "2")
	require.True(t, ok)
	assert.Equal(t, "Quiet brown", v)

	dict, ok := idx.Dictionary("body")
	require.True(t, ok)
	assert.False(t, dict.Resident())
	assert.Equal(t, 0, dict.Len(), "postings are loaded on demand")
}

func testLazyBlocks(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	require.NoError(t, open(t, newDir).Write(ctx, Sample()))

	dir := open(t, newDir)
	idx := index.New()
	require.NoError(t, dir.Read(ctx, idx))
	dict, _ := idx.Dictionary("body")

	require.NoError(t, dir.ReadPostingsBlock(ctx, dict, "body", "quick"))
	list, ok := dict.Lookup("quick")
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].DocID)
	assert.Equal(t, 2, list[0].Frequency)

	// "quiet" shares the block of "quick" but has not been loaded yet
	assert.False(t, dict.Attempted("quiet"))
	require.NoError(t, dir.ReadPostingsBlock(ctx, dict, "body", "quiet"))
	list, ok = dict.Lookup("quiet")
	require.True(t, ok)
	assert.Equal(t, "2", list[0].DocID)

	require.NoError(t, dir.ReadPostingsBlock(ctx, dict, "body", "zebra"))
	assert.True(t, dict.Attempted("zebra"))
	_, ok = dict.Lookup("zebra")
	assert.False(t, ok)

	require.NoError(t, dir.ReadPostingsBlock(ctx, dict, "body", "quit"))
	assert.True(t, dict.Attempted("quit"))
	_, ok = dict.Lookup("quit")
	assert.False(t, ok)

	title, _ := idx.Dictionary("title")
	require.NoError(t, dir.ReadPostingsBlock(ctx, title, "title", "fox"))
	list, ok = title.Lookup("fox")
	require.True(t, ok)
	assert.Equal(t, 1, list[0].Frequency)
}

func testReadPostings(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	require.NoError(t, open(t, newDir).Write(ctx, Sample()))

	dir := open(t, newDir)
	idx := index.New()
	require.NoError(t, dir.Read(ctx, idx))
	dict, _ := idx.Dictionary("body")
	require.NoError(t, dir.ReadPostings(ctx, dict, "body"))

	assert.True(t, dict.Resident())
	assert.Equal(t, 4, dict.Len())
	tokens := make([]string, 0, 4)
	for _, e := range dict.Snapshot() {
		tokens = append(tokens, e.Token)
	}
	assert.Equal(t, []string{"brown", "fox", "quick", "quiet"}, tokens)

	list, _ := dict.Lookup("brown")
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].DocID)
	assert.Equal(t, "2", list[1].DocID)
}

func testOverwrite(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	dir := open(t, newDir)
	require.NoError(t, dir.Write(ctx, Sample()))

	idx := Sample()
	idx.RemovePosting(index.NewTerm("body", "quiet"), "2")
	idx.DeleteNorm("title", "1")
	idx.RemovePosting(index.NewTerm("title", "fox"), "1")
	require.NoError(t, dir.Write(ctx, idx))
	// a second identical write must not change anything
	require.NoError(t, dir.Write(ctx, idx))

	got := index.New()
	reader := open(t, newDir)
	require.NoError(t, reader.Read(ctx, got))
	dict, _ := got.Dictionary("body")
	require.NoError(t, reader.ReadPostings(ctx, dict, "body"))
	_, ok := dict.Lookup("quiet")
	assert.False(t, ok)
	_, ok = dict.Lookup("quick")
	assert.True(t, ok)

	title, _ := got.Dictionary("title")
	require.NoError(t, reader.ReadPostingsBlock(ctx, title, "title", "fox"))
	_, ok = title.Lookup("fox")
	assert.False(t, ok)
	_, ok = got.Norm("title", "1")
	assert.False(t, ok)
}

func testKeepsUnloaded(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	dir := open(t, newDir)
	require.NoError(t, dir.Write(ctx, Sample()))

	idx := index.New()
	require.NoError(t, dir.Read(ctx, idx))
	idx.SetStored("body", "1", "changed")
	require.NoError(t, dir.Write(ctx, idx))

	got := index.New()
	require.NoError(t, dir.Read(ctx, got))
	v, _ := got.Stored("body", "1")
	assert.Equal(t, "changed", v)
	dict, _ := got.Dictionary("body")
	require.NoError(t, dir.ReadPostingsBlock(ctx, dict, "body", "brown"))
	list, ok := dict.Lookup("brown")
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func testReset(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	dir := open(t, newDir)
	require.NoError(t, dir.Write(ctx, Sample()))
	require.NoError(t, dir.Reset(ctx))
	require.NoError(t, dir.Reset(ctx))

	err := open(t, newDir).Read(ctx, index.New())
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func testPing(t *testing.T, newDir func() store.Directory) {
	ctx := context.Background()
	dir := open(t, newDir)
	require.NoError(t, dir.Ping(ctx), "an empty location is reachable")
	require.NoError(t, dir.Write(ctx, Sample()))
	assert.NoError(t, dir.Ping(ctx))
}
