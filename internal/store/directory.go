// Package store defines the persistence contract of the index and the
// record types shared by its backends.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
)

// Directory persists an Index. Implementations must give identical
// results for the same sequence of calls.
type Directory interface {
	// Write persists a full snapshot of idx: norms and postings of every
	// indexed field, values of every stored field, and the metadata record.
	Write(ctx context.Context, idx *index.Index) error

	// Read restores the field registry, counters, norms and stored values
	// into idx and installs empty lazy dictionaries for indexed fields. It
	// fails with ErrCorruptIndex, leaving idx untouched, when the metadata
	// record is missing or unreadable.
	Read(ctx context.Context, idx *index.Index) error

	// ReadPostingsBlock loads the postings of exactly one token into the
	// block cache of dict. An absent token is recorded as known absent.
	ReadPostingsBlock(ctx context.Context, dict *index.PostingsDictionary, field, token string) error

	// ReadPostings loads every term of field into dict and marks it
	// resident, so that it can be modified and written back.
	ReadPostings(ctx context.Context, dict *index.PostingsDictionary, field string) error

	// Reset deletes everything persisted at this location.
	Reset(ctx context.Context) error

	// Ping reports whether the underlying storage is reachable. An empty
	// location is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Metadata is the record listing which fields are indexed and stored,
// plus the index counters.
type Metadata struct {
	Fields   map[string][]string `json:"fields"`
	NumDocs  int64               `json:"numDocs"`
	NumTerms int64               `json:"numTerms"`
}

func MetadataOf(idx *index.Index) Metadata {
	return Metadata{
		Fields: map[string][]string{
			document.OptionIndexed: nonNil(idx.FieldNames(document.OptionIndexed)),
			document.OptionStored:  nonNil(idx.FieldNames(document.OptionStored)),
		},
		NumDocs:  idx.NumDocs(),
		NumTerms: idx.NumTerms(),
	}
}

func (m Metadata) Indexed() []string {
	return m.Fields[document.OptionIndexed]
}

func (m Metadata) Stored() []string {
	return m.Fields[document.OptionStored]
}

func EncodeMetadata(m Metadata) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMetadata parses a metadata record. Any failure is reported as
// ErrCorruptIndex.
func DecodeMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if len(data) == 0 {
		return m, apperrors.New(apperrors.ErrCorruptIndex, "empty metadata record")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, apperrors.Newf(apperrors.ErrCorruptIndex, "parsing metadata: %v", err)
	}
	if m.Fields == nil {
		return m, apperrors.New(apperrors.ErrCorruptIndex, "metadata lists no fields")
	}
	return m, nil
}

// Snapshot is the eagerly loaded part of a persisted index, assembled
// before anything is applied to the target Index.
type Snapshot struct {
	Meta   Metadata
	Norms  map[string]map[string]int
	Stored map[string]map[string]string
}

func NewSnapshot(meta Metadata) *Snapshot {
	return &Snapshot{
		Meta:   meta,
		Norms:  make(map[string]map[string]int),
		Stored: make(map[string]map[string]string),
	}
}

// Apply replaces the content of idx with the snapshot. Indexed fields get
// empty lazy dictionaries.
func (s *Snapshot) Apply(idx *index.Index) {
	idx.Clear()
	idx.SetFieldNames(s.Meta.Fields)
	idx.SetCounters(s.Meta.NumDocs, s.Meta.NumTerms)
	for _, field := range s.Meta.Indexed() {
		norms := s.Norms[field]
		if norms == nil {
			norms = make(map[string]int)
		}
		idx.SetNorms(field, norms)
		idx.SetDictionary(field, index.NewLazyPostingsDictionary())
	}
	for _, field := range s.Meta.Stored() {
		values := s.Stored[field]
		if values == nil {
			values = make(map[string]string)
		}
		idx.SetStoredValues(field, values)
	}
}

// EncodePostings serialises a postings list as [[docID, tf], ...].
func EncodePostings(list index.PostingList) ([]byte, error) {
	return json.Marshal(list)
}

// DecodePostings parses a postings blob. Failures wrap ErrDecodePostings.
func DecodePostings(data []byte) (index.PostingList, error) {
	var list index.PostingList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDecodePostings, err)
	}
	return list, nil
}

// PutTerm records the result of loading one token into dict. A nil or
// empty list marks the token as known absent.
func PutTerm(dict *index.PostingsDictionary, token string, list index.PostingList) {
	if list == nil {
		list = index.PostingList{}
	}
	dict.PutBlock(index.BlockKey(token), index.Block{token: list})
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
