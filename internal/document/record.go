package document

import (
	"encoding/json"
	"fmt"
)

// Record is the JSON form of a document, used by the bulk loader and by the
// Kafka document events.
type Record struct {
	ID     string        `json:"id,omitempty"`
	Fields []FieldRecord `json:"fields"`
}

// FieldRecord is the JSON form of a field. Indexed defaults to true and
// Tokenized to true when omitted.
type FieldRecord struct {
	Name      string `json:"name"`
	Data      string `json:"data"`
	Indexed   *bool  `json:"indexed,omitempty"`
	Stored    bool   `json:"stored,omitempty"`
	Tokenized *bool  `json:"tokenized,omitempty"`
	Tokenizer string `json:"tokenizer,omitempty"`
}

// Decode parses a single JSON record.
func Decode(data []byte) (*Document, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding document record: %w", err)
	}
	return rec.Document()
}

// Document converts the record. A record without an id yields a document
// without one, so the index writer assigns the next sequential id.
func (r Record) Document() (*Document, error) {
	doc := &Document{ID: r.ID, fields: make(map[string]Field, len(r.Fields))}
	for _, fr := range r.Fields {
		if fr.Name == "" {
			return nil, fmt.Errorf("document %q: field without name", r.ID)
		}
		indexed := fr.Indexed == nil || *fr.Indexed
		tokenized := fr.Tokenized == nil || *fr.Tokenized
		info := Keyword(indexed, fr.Stored)
		if tokenized {
			info = Text(indexed, fr.Stored, fr.Tokenizer)
		}
		doc.Add(NewField(fr.Name, fr.Data, info))
	}
	return doc, nil
}

// ToRecord converts a document back to its JSON form.
func ToRecord(d *Document) Record {
	rec := Record{ID: d.ID}
	for _, f := range d.Fields() {
		indexed := f.Info.Indexed
		tokenized := f.Info.Tokenized
		rec.Fields = append(rec.Fields, FieldRecord{
			Name:      f.Name,
			Data:      f.Data,
			Indexed:   &indexed,
			Stored:    f.Info.Stored,
			Tokenized: &tokenized,
			Tokenizer: f.Info.Tokenizer,
		})
	}
	return rec
}
