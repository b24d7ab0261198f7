// Package blockfile persists an index as a directory of small files: one
// metadata record, one norms file and one stored-values file per field, and
// one postings file per block of every indexed field. Each file is
// replaced atomically.
package blockfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

// NormEntry is one line of a norms file.
type NormEntry struct {
	DocID string `json:"d"`
	Norm  int    `json:"n"`
}

// StoredEntry is one line of a stored-values file.
type StoredEntry struct {
	DocID string `json:"d"`
	Value string `json:"v"`
}

// Directory is a store.Directory rooted at a filesystem path.
type Directory struct {
	path   string
	logger *slog.Logger
}

var _ store.Directory = (*Directory)(nil)

// New returns a Directory for path. Nothing is created until the first
// Write.
func New(path string) *Directory {
	return &Directory{
		path:   path,
		logger: slog.Default().With("component", "blockfile", "path", path),
	}
}

func (d *Directory) Path() string {
	return d.path
}

func (d *Directory) file(name string) string {
	return filepath.Join(d.path, name)
}

// Write persists idx. Postings of a dictionary that is not resident are
// left as they are on disk. The metadata record is written last, then
// files no longer referenced are removed.
func (d *Directory) Write(ctx context.Context, idx *index.Index) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	keep := make(map[string]struct{})
	var keepPrefixes []string
	meta := store.MetadataOf(idx)

	blocks := 0
	for _, field := range meta.Indexed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := normsFile(field)
		if err := writeLines(d.file(name), normEntries(idx.Norms(field))); err != nil {
			return err
		}
		keep[name] = struct{}{}

		dict, ok := idx.Dictionary(field)
		if !ok {
			continue
		}
		if !dict.Resident() {
			keepPrefixes = append(keepPrefixes, postingsFilePrefix(field))
			continue
		}
		for _, key := range dict.BlockKeys() {
			entries := dict.Entries(key)
			if len(entries) == 0 {
				continue
			}
			name := postingsFile(field, key)
			if err := writeLines(d.file(name), entries); err != nil {
				return err
			}
			keep[name] = struct{}{}
			blocks++
		}
	}

	for _, field := range meta.Stored() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := storedFile(field)
		if err := writeLines(d.file(name), storedEntries(idx.StoredValues(field))); err != nil {
			return err
		}
		keep[name] = struct{}{}
	}

	data, err := store.EncodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := writeLines(d.file(metadataFile), []json.RawMessage{data}); err != nil {
		return err
	}
	keep[metadataFile] = struct{}{}

	removed, err := d.removeExcept(keep, keepPrefixes)
	if err != nil {
		return err
	}
	d.logger.Debug("index written",
		"fields", len(meta.Indexed()),
		"blocks", blocks,
		"stale_removed", removed,
	)
	return nil
}

// Read loads the metadata, norms and stored values. Postings are loaded
// on demand.
func (d *Directory) Read(ctx context.Context, idx *index.Index) error {
	data, err := os.ReadFile(d.file(metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NoIndex(d.path)
		}
		return fmt.Errorf("reading metadata: %w", err)
	}
	meta, err := store.DecodeMetadata(trimLine(data))
	if err != nil {
		return err
	}

	snap := store.NewSnapshot(meta)
	for _, field := range meta.Indexed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		norms, err := d.readNorms(field)
		if err != nil {
			return err
		}
		snap.Norms[field] = norms
	}
	for _, field := range meta.Stored() {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := d.readStored(field)
		if err != nil {
			return err
		}
		snap.Stored[field] = values
	}
	snap.Apply(idx)

	d.logger.Debug("index opened", "docs", meta.NumDocs, "terms", meta.NumTerms)
	return nil
}

// ReadPostingsBlock scans the block file of token for its line. A missing
// file or line records token as known absent.
func (d *Directory) ReadPostingsBlock(ctx context.Context, dict *index.PostingsDictionary, field, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := d.file(postingsFile(field, index.BlockKey(token)))

	var (
		found   index.PostingList
		lineErr error
	)
	err := scanLines(path, func(line []byte) bool {
		var entry index.TermEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			lineErr = fmt.Errorf("%w: %s: %v", apperrors.ErrDecodePostings, path, err)
			return false
		}
		if entry.Token == token {
			found = entry.Postings
			return false
		}
		// lines are sorted by token
		return entry.Token < token
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading postings block: %w", err)
	}
	if lineErr != nil {
		return lineErr
	}
	store.PutTerm(dict, token, found)
	return nil
}

// ReadPostings loads every block of field into dict.
func (d *Directory) ReadPostings(ctx context.Context, dict *index.PostingsDictionary, field string) error {
	names, err := d.list(postingsFilePrefix(field))
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := d.file(name)
		var lineErr error
		block := make(index.Block)
		err := scanLines(path, func(line []byte) bool {
			var entry index.TermEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				lineErr = fmt.Errorf("%w: %s: %v", apperrors.ErrDecodePostings, path, err)
				return false
			}
			block[entry.Token] = entry.Postings
			return true
		})
		if err != nil {
			return fmt.Errorf("reading postings block: %w", err)
		}
		if lineErr != nil {
			return lineErr
		}
		for token, list := range block {
			store.PutTerm(dict, token, list)
		}
	}
	dict.SetResident(true)
	d.logger.Debug("postings loaded", "field", field, "blocks", len(names))
	return nil
}

// Reset removes every index file under the directory. Unrelated files are
// left alone.
func (d *Directory) Reset(ctx context.Context) error {
	removed, err := d.removeExcept(nil, nil)
	if err != nil {
		return err
	}
	d.logger.Info("index reset", "files_removed", removed)
	return nil
}

// Ping checks that the path is a directory or does not exist yet.
func (d *Directory) Ping(context.Context) error {
	info, err := os.Stat(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", d.path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.path)
	}
	return nil
}

func (d *Directory) Close() error {
	return nil
}

func (d *Directory) readNorms(field string) (map[string]int, error) {
	norms := make(map[string]int)
	path := d.file(normsFile(field))
	var lineErr error
	err := scanLines(path, func(line []byte) bool {
		var e NormEntry
		if err := json.Unmarshal(line, &e); err != nil {
			lineErr = apperrors.Newf(apperrors.ErrCorruptIndex, "%s: %v", path, err)
			return false
		}
		norms[e.DocID] = e.Norm
		return true
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading norms of %q: %w", field, err)
	}
	return norms, lineErr
}

func (d *Directory) readStored(field string) (map[string]string, error) {
	values := make(map[string]string)
	path := d.file(storedFile(field))
	var lineErr error
	err := scanLines(path, func(line []byte) bool {
		var e StoredEntry
		if err := json.Unmarshal(line, &e); err != nil {
			lineErr = apperrors.Newf(apperrors.ErrCorruptIndex, "%s: %v", path, err)
			return false
		}
		values[e.DocID] = e.Value
		return true
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading stored values of %q: %w", field, err)
	}
	return values, lineErr
}

// list returns the names of regular files in the directory starting with
// prefix.
func (d *Directory) list(prefix string) ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing index directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (d *Directory) removeExcept(keep map[string]struct{}, keepPrefixes []string) (int, error) {
	names, err := d.list("")
	if err != nil {
		return 0, err
	}
	removed := 0
outer:
	for _, name := range names {
		if !isIndexFile(name) {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		for _, p := range keepPrefixes {
			if strings.HasPrefix(name, p) {
				continue outer
			}
		}
		if err := os.Remove(d.file(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

func normEntries(norms map[string]int) []NormEntry {
	out := make([]NormEntry, 0, len(norms))
	for _, id := range store.SortedKeys(norms) {
		out = append(out, NormEntry{DocID: id, Norm: norms[id]})
	}
	return out
}

func storedEntries(values map[string]string) []StoredEntry {
	out := make([]StoredEntry, 0, len(values))
	for _, id := range store.SortedKeys(values) {
		out = append(out, StoredEntry{DocID: id, Value: values[id]})
	}
	return out
}

func trimLine(data []byte) []byte {
	return []byte(strings.TrimSpace(string(data)))
}
