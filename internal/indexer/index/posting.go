package index

import (
	"encoding/json"
	"fmt"
)

// Term identifies one dictionary entry: a token scoped to a field.
type Term struct {
	Field string
	Token string
}

func NewTerm(field, token string) Term {
	return Term{Field: field, Token: token}
}

func (t Term) String() string {
	return t.Field + ":" + t.Token
}

// Posting records how many times a term occurs in one document. On the
// wire it is the pair [docID, frequency].
type Posting struct {
	DocID     string
	Frequency int
}

func (p Posting) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.DocID, p.Frequency})
}

func (p *Posting) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("posting: expected [docID, frequency], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.DocID); err != nil {
		return fmt.Errorf("posting document id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Frequency); err != nil {
		return fmt.Errorf("posting frequency: %w", err)
	}
	return nil
}

// PostingList holds every posting of one term in insertion order. A
// document appears at most once.
type PostingList []*Posting

// Find returns the posting for docID, if any.
func (l PostingList) Find(docID string) (*Posting, bool) {
	for _, p := range l {
		if p.DocID == docID {
			return p, true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (l PostingList) Clone() PostingList {
	out := make(PostingList, len(l))
	for i, p := range l {
		cp := *p
		out[i] = &cp
	}
	return out
}

// TermEntry pairs a token with its postings, used when enumerating a
// dictionary in a stable order.
type TermEntry struct {
	Token    string      `json:"t"`
	Postings PostingList `json:"p"`
}
