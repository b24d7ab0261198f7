// Package kvstore persists an index into a set of key-value tables: a meta
// table holding the field registry and counters, and per field a postings
// table keyed by token, a norms table and a stored-values table keyed by
// document id.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

const (
	MetaTable = "meta"
	FieldsKey = "fields"
)

func PostingsTable(field string) string { return "postings." + field }
func NormsTable(field string) string    { return "norms." + field }
func StoredTable(field string) string   { return "stored." + field }

// Directory is a store.Directory over Tables.
type Directory struct {
	tables Tables
	logger *slog.Logger
}

var _ store.Directory = (*Directory)(nil)

func New(tables Tables) *Directory {
	return &Directory{
		tables: tables,
		logger: slog.Default().With("component", "kvstore"),
	}
}

// Write replaces the tables of every indexed and stored field, drops the
// tables of fields that are gone, and writes the meta record last.
// Postings of a dictionary that is not resident are left untouched.
func (d *Directory) Write(ctx context.Context, idx *index.Index) error {
	meta := store.MetadataOf(idx)

	previous, err := d.readMeta(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}

	for _, field := range meta.Indexed() {
		norms := idx.Norms(field)
		entries := make(map[string][]byte, len(norms))
		for docID, n := range norms {
			entries[docID] = []byte(strconv.Itoa(n))
		}
		if err := d.tables.Replace(ctx, NormsTable(field), entries); err != nil {
			return fmt.Errorf("writing norms of %q: %w", field, err)
		}

		dict, ok := idx.Dictionary(field)
		if ok && !dict.Resident() {
			continue
		}
		postings := make(map[string][]byte)
		if ok {
			for _, e := range dict.Snapshot() {
				data, err := store.EncodePostings(e.Postings)
				if err != nil {
					return fmt.Errorf("encoding postings of %q: %w", e.Token, err)
				}
				postings[e.Token] = data
			}
		}
		if err := d.tables.Replace(ctx, PostingsTable(field), postings); err != nil {
			return fmt.Errorf("writing postings of %q: %w", field, err)
		}
	}

	for _, field := range meta.Stored() {
		values := idx.StoredValues(field)
		entries := make(map[string][]byte, len(values))
		for docID, v := range values {
			entries[docID] = []byte(v)
		}
		if err := d.tables.Replace(ctx, StoredTable(field), entries); err != nil {
			return fmt.Errorf("writing stored values of %q: %w", field, err)
		}
	}

	if err := d.dropStale(ctx, previous, meta); err != nil {
		return err
	}

	data, err := store.EncodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := d.tables.Replace(ctx, MetaTable, map[string][]byte{FieldsKey: data}); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	d.logger.Debug("index written", "fields", len(meta.Indexed()), "docs", meta.NumDocs)
	return nil
}

func (d *Directory) Read(ctx context.Context, idx *index.Index) error {
	meta, err := d.readMeta(ctx)
	if err != nil {
		return err
	}

	snap := store.NewSnapshot(meta)
	for _, field := range meta.Indexed() {
		entries, err := d.tables.All(ctx, NormsTable(field))
		if err != nil {
			return fmt.Errorf("reading norms of %q: %w", field, err)
		}
		norms := make(map[string]int, len(entries))
		for docID, raw := range entries {
			n, err := strconv.Atoi(string(raw))
			if err != nil {
				return apperrors.Newf(apperrors.ErrCorruptIndex, "norm of %q in %q: %v", docID, field, err)
			}
			norms[docID] = n
		}
		snap.Norms[field] = norms
	}
	for _, field := range meta.Stored() {
		entries, err := d.tables.All(ctx, StoredTable(field))
		if err != nil {
			return fmt.Errorf("reading stored values of %q: %w", field, err)
		}
		values := make(map[string]string, len(entries))
		for docID, raw := range entries {
			values[docID] = string(raw)
		}
		snap.Stored[field] = values
	}
	snap.Apply(idx)

	d.logger.Debug("index opened", "docs", meta.NumDocs, "terms", meta.NumTerms)
	return nil
}

func (d *Directory) ReadPostingsBlock(ctx context.Context, dict *index.PostingsDictionary, field, token string) error {
	raw, ok, err := d.tables.Get(ctx, PostingsTable(field), token)
	if err != nil {
		return fmt.Errorf("reading postings of %q: %w", token, err)
	}
	var list index.PostingList
	if ok {
		if list, err = store.DecodePostings(raw); err != nil {
			return fmt.Errorf("postings of %q in %q: %w", token, field, err)
		}
	}
	store.PutTerm(dict, token, list)
	return nil
}

func (d *Directory) ReadPostings(ctx context.Context, dict *index.PostingsDictionary, field string) error {
	entries, err := d.tables.All(ctx, PostingsTable(field))
	if err != nil {
		return fmt.Errorf("reading postings of %q: %w", field, err)
	}
	for token, raw := range entries {
		list, err := store.DecodePostings(raw)
		if err != nil {
			return fmt.Errorf("postings of %q in %q: %w", token, field, err)
		}
		store.PutTerm(dict, token, list)
	}
	dict.SetResident(true)
	d.logger.Debug("postings loaded", "field", field, "terms", len(entries))
	return nil
}

func (d *Directory) Reset(ctx context.Context) error {
	if err := d.tables.DropAll(ctx); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	d.logger.Info("index reset")
	return nil
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.tables.Ping(ctx)
}

func (d *Directory) Close() error {
	return d.tables.Close()
}

func (d *Directory) readMeta(ctx context.Context) (store.Metadata, error) {
	raw, ok, err := d.tables.Get(ctx, MetaTable, FieldsKey)
	if err != nil {
		return store.Metadata{}, fmt.Errorf("reading metadata: %w", err)
	}
	if !ok {
		return store.Metadata{}, apperrors.NoIndex("table " + MetaTable)
	}
	return store.DecodeMetadata(raw)
}

// dropStale removes the tables of fields listed in previous but not in
// current.
func (d *Directory) dropStale(ctx context.Context, previous, current store.Metadata) error {
	var stale []string
	indexed := set(current.Indexed())
	for _, field := range previous.Indexed() {
		if _, ok := indexed[field]; !ok {
			stale = append(stale, NormsTable(field), PostingsTable(field))
		}
	}
	stored := set(current.Stored())
	for _, field := range previous.Stored() {
		if _, ok := stored[field]; !ok {
			stale = append(stale, StoredTable(field))
		}
	}
	for _, table := range stale {
		if err := d.tables.Replace(ctx, table, nil); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	if len(stale) > 0 {
		d.logger.Debug("stale tables dropped", "tables", stale)
	}
	return nil
}

func isCorrupt(err error) bool {
	return errors.Is(err, apperrors.ErrCorruptIndex)
}

func set(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
