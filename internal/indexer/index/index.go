// Package index holds the in-memory inverted index: per-field postings
// dictionaries, document norms, stored field values and the registry of
// indexed and stored field names.
//
// An Index is shared by a writer and a reader. It performs no locking;
// callers serialise access.
package index

import (
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
)

type Index struct {
	fieldNames   map[string]map[string]struct{}
	dictionaries map[string]*PostingsDictionary
	norms        map[string]map[string]int
	stored       map[string]map[string]string
	numDocs      int64
	numTerms     int64
}

func New() *Index {
	x := &Index{}
	x.Clear()
	return x
}

func (x *Index) NumDocs() int64 {
	return x.numDocs
}

func (x *Index) NumTerms() int64 {
	return x.numTerms
}

// SetCounters restores the counters of a persisted index.
func (x *Index) SetCounters(numDocs, numTerms int64) {
	x.numDocs = numDocs
	x.numTerms = numTerms
}

// CountDocument records one more added document. The counter is never
// decremented.
func (x *Index) CountDocument() {
	x.numDocs++
}

// NextDocumentID returns the sequential id the next counted document
// would get.
func (x *Index) NextDocumentID() string {
	return strconv.FormatInt(x.numDocs+1, 10)
}

// PostingsDictionary returns the dictionary of field, creating a resident
// one if the field has none yet.
func (x *Index) PostingsDictionary(field string) *PostingsDictionary {
	d, ok := x.dictionaries[field]
	if !ok {
		d = NewPostingsDictionary()
		x.dictionaries[field] = d
	}
	return d
}

// Dictionary returns the dictionary of field without creating one.
func (x *Index) Dictionary(field string) (*PostingsDictionary, bool) {
	d, ok := x.dictionaries[field]
	return d, ok
}

// SetDictionary installs d as the dictionary of field.
func (x *Index) SetDictionary(field string, d *PostingsDictionary) {
	x.dictionaries[field] = d
}

// AddOccurrence counts one occurrence of term in docID and bumps the term
// counter when the term is new.
func (x *Index) AddOccurrence(term Term, docID string) {
	if x.PostingsDictionary(term.Field).AddOccurrence(term.Token, docID) {
		x.numTerms++
	}
}

// RemovePosting removes docID from term's postings.
func (x *Index) RemovePosting(term Term, docID string) bool {
	d, ok := x.dictionaries[term.Field]
	if !ok {
		return false
	}
	return d.RemovePosting(term.Token, docID)
}

// Contains reports whether any field holds a norm or a stored value for
// docID.
func (x *Index) Contains(docID string) bool {
	for _, m := range x.norms {
		if _, ok := m[docID]; ok {
			return true
		}
	}
	for _, m := range x.stored {
		if _, ok := m[docID]; ok {
			return true
		}
	}
	return false
}

func (x *Index) Norm(field, docID string) (int, bool) {
	n, ok := x.norms[field][docID]
	return n, ok
}

func (x *Index) SetNorm(field, docID string, norm int) {
	m, ok := x.norms[field]
	if !ok {
		m = make(map[string]int)
		x.norms[field] = m
	}
	m[docID] = norm
}

func (x *Index) DeleteNorm(field, docID string) {
	delete(x.norms[field], docID)
}

// Norms returns the norms of field keyed by document id. The map is owned
// by the index.
func (x *Index) Norms(field string) map[string]int {
	return x.norms[field]
}

// SetNorms replaces the norms of field.
func (x *Index) SetNorms(field string, norms map[string]int) {
	x.norms[field] = norms
}

func (x *Index) Stored(field, docID string) (string, bool) {
	v, ok := x.stored[field][docID]
	return v, ok
}

func (x *Index) SetStored(field, docID, value string) {
	m, ok := x.stored[field]
	if !ok {
		m = make(map[string]string)
		x.stored[field] = m
	}
	m[docID] = value
}

func (x *Index) DeleteStored(field, docID string) {
	delete(x.stored[field], docID)
}

// StoredValues returns the stored values of field keyed by document id.
// The map is owned by the index.
func (x *Index) StoredValues(field string) map[string]string {
	return x.stored[field]
}

// SetStoredValues replaces the stored values of field.
func (x *Index) SetStoredValues(field string, values map[string]string) {
	x.stored[field] = values
}

// RegisterField records that field carries the given option
// (document.OptionIndexed or document.OptionStored).
func (x *Index) RegisterField(option, field string) {
	set, ok := x.fieldNames[option]
	if !ok {
		set = make(map[string]struct{})
		x.fieldNames[option] = set
	}
	set[field] = struct{}{}
}

// FieldNames returns the sorted names of the fields registered with
// option. When nothing was registered explicitly the names are derived from
// the dictionaries or stored values present in memory.
func (x *Index) FieldNames(option string) []string {
	var names []string
	if set, ok := x.fieldNames[option]; ok && len(set) > 0 {
		for name := range set {
			names = append(names, name)
		}
	} else {
		switch option {
		case document.OptionIndexed:
			for name := range x.dictionaries {
				names = append(names, name)
			}
		case document.OptionStored:
			for name := range x.stored {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// IsIndexed reports whether field is registered as indexed.
func (x *Index) IsIndexed(field string) bool {
	for _, name := range x.FieldNames(document.OptionIndexed) {
		if name == field {
			return true
		}
	}
	return false
}

// SetFieldNames replaces the field registry.
func (x *Index) SetFieldNames(byOption map[string][]string) {
	x.fieldNames = make(map[string]map[string]struct{}, len(byOption))
	for option, names := range byOption {
		for _, name := range names {
			x.RegisterField(option, name)
		}
	}
}

// Document rebuilds a document from the stored values of docID.
func (x *Index) Document(docID string) *document.Document {
	doc := document.WithID(docID)
	for field, values := range x.stored {
		if v, ok := values[docID]; ok {
			doc.Add(document.NewField(field, v, document.FieldInfo{Stored: true}))
		}
	}
	return doc
}

// Reset empties the index and zeroes its counters.
func (x *Index) Reset() {
	x.Clear()
	x.numDocs = 0
	x.numTerms = 0
}

// Clear drops all data but keeps the counters.
func (x *Index) Clear() {
	x.fieldNames = make(map[string]map[string]struct{})
	x.dictionaries = make(map[string]*PostingsDictionary)
	x.norms = make(map[string]map[string]int)
	x.stored = make(map[string]map[string]string)
}
