// Package document holds the value objects handed to the index: documents,
// their named fields and the per-field indexing policy.
package document

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Field option names, used as keys of the persisted field registry.
const (
	OptionIndexed = "indexed"
	OptionStored  = "stored"
)

// DefaultTokenizer is the tokenizer tag used when neither the FieldInfo
// nor the analysis configuration names one.
const DefaultTokenizer = "whitespace"

// FieldInfo describes how a field is treated by the writer. Tokenizer is a
// tag resolved through the tokenizer registry, not a concrete type; empty
// means the configured default.
type FieldInfo struct {
	Indexed   bool   `json:"indexed"`
	Stored    bool   `json:"stored"`
	Tokenized bool   `json:"tokenized"`
	Tokenizer string `json:"tokenizer,omitempty"`
}

// DefaultFieldInfo is indexed, not stored, tokenized with the default
// tokenizer.
func DefaultFieldInfo() FieldInfo {
	return FieldInfo{Indexed: true, Tokenized: true}
}

// Text returns the policy for a tokenized field using the given tokenizer
// tag.
func Text(indexed, stored bool, tokenizer string) FieldInfo {
	return FieldInfo{Indexed: indexed, Stored: stored, Tokenized: true, Tokenizer: tokenizer}
}

// Keyword returns the policy for a field whose whole value is a single
// term, such as an identifier.
func Keyword(indexed, stored bool) FieldInfo {
	return FieldInfo{Indexed: indexed, Stored: stored}
}

type Field struct {
	Name string
	Data string
	Info FieldInfo
}

func NewField(name, data string, info FieldInfo) Field {
	return Field{Name: name, Data: data, Info: info}
}

// Document is a set of fields keyed by name. Adding a field with an existing
// name replaces it.
type Document struct {
	ID     string
	fields map[string]Field
}

// New creates a document with a generated identifier.
func New() *Document {
	return WithID(generateID())
}

// WithID creates a document with the given identifier. An empty id is
// replaced by a generated one.
func WithID(id string) *Document {
	if id == "" {
		id = generateID()
	}
	return &Document{ID: id, fields: make(map[string]Field)}
}

func (d *Document) Add(f Field) *Document {
	d.fields[f.Name] = f
	return d
}

func (d *Document) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Fields returns the fields sorted by name.
func (d *Document) Fields() []Field {
	out := make([]Field, 0, len(d.fields))
	for _, f := range d.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

func generateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
