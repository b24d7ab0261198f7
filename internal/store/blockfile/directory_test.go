package blockfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store/storetest"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) func() store.Directory {
		path := filepath.Join(t.TempDir(), "index")
		return func() store.Directory { return New(path) }
	})
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestLayout(t *testing.T) {
	path := t.TempDir()
	require.NoError(t, New(path).Write(context.Background(), storetest.Sample()))

	assert.Equal(t, []string{
		"fields.json",
		"norms.body",
		"norms.title",
		"postings.body.6272", // "br"
		"postings.body.666f", // "fo"
		"postings.body.7175", // "qu"
		"postings.title.666f",
		"stored.body",
	}, listFiles(t, path))

	data, err := os.ReadFile(filepath.Join(path, "postings.body.7175"))
	require.NoError(t, err)
	assert.Equal(t, `{"t":"quick","p":[["1",2]]}`+"\n"+`{"t":"quiet","p":[["2",1]]}`+"\n", string(data))

	data, err = os.ReadFile(filepath.Join(path, "norms.body"))
	require.NoError(t, err)
	assert.Equal(t, `{"d":"1","n":4}`+"\n"+`{"d":"2","n":2}`+"\n", string(data))
}

func TestWriteIsDeterministic(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	dir := New(path)
	require.NoError(t, dir.Write(ctx, storetest.Sample()))

	first := make(map[string][]byte)
	for _, name := range listFiles(t, path) {
		data, err := os.ReadFile(filepath.Join(path, name))
		require.NoError(t, err)
		first[name] = data
	}

	require.NoError(t, dir.Write(ctx, storetest.Sample()))
	for _, name := range listFiles(t, path) {
		data, err := os.ReadFile(filepath.Join(path, name))
		require.NoError(t, err)
		assert.Equal(t, first[name], data, name)
	}
	assert.Len(t, listFiles(t, path), len(first))
}

func TestFieldNamesAreEscaped(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	idx := index.New()
	idx.AddOccurrence(index.NewTerm("a.b/c", "word"), "1")
	idx.SetNorm("a.b/c", "1", 1)
	idx.AddOccurrence(index.NewTerm("a", "word"), "1")
	idx.SetNorm("a", "1", 1)
	idx.CountDocument()

	dir := New(path)
	require.NoError(t, dir.Write(ctx, idx))
	assert.Contains(t, listFiles(t, path), "postings.a%2Eb%2Fc.776f")

	got := index.New()
	require.NoError(t, dir.Read(ctx, got))
	for _, field := range []string{"a", "a.b/c"} {
		dict, ok := got.Dictionary(field)
		require.True(t, ok, field)
		require.NoError(t, dir.ReadPostings(ctx, dict, field))
		assert.Equal(t, 1, dict.Len(), field)
	}
}

func TestCorruptMetadata(t *testing.T) {
	path := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(path, metadataFile), []byte("{not json"), 0o644))

	err := New(path).Read(context.Background(), index.New())
	assert.ErrorIs(t, err, apperrors.ErrCorruptIndex)
}

func TestCorruptPostings(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	dir := New(path)
	require.NoError(t, dir.Write(ctx, storetest.Sample()))
	require.NoError(t, os.WriteFile(filepath.Join(path, "postings.body.7175"), []byte("garbage\n"), 0o644))

	idx := index.New()
	require.NoError(t, dir.Read(ctx, idx))
	dict, _ := idx.Dictionary("body")
	err := dir.ReadPostingsBlock(ctx, dict, "body", "quick")
	assert.ErrorIs(t, err, apperrors.ErrDecodePostings)
}

func TestResetKeepsForeignFiles(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(path, "README"), []byte("hi"), 0o644))

	dir := New(path)
	require.NoError(t, dir.Write(ctx, storetest.Sample()))
	require.NoError(t, dir.Reset(ctx))
	assert.Equal(t, []string{"README"}, listFiles(t, path))
}

func TestResetMissingDirectory(t *testing.T) {
	dir := New(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, dir.Reset(context.Background()))
}

func TestPing(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, New(filepath.Join(root, "missing")).Ping(context.Background()))
	assert.NoError(t, New(root).Ping(context.Background()))

	file := filepath.Join(root, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, New(file).Ping(context.Background()))
}
