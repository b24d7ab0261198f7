package index

import (
	"sort"
	"unicode/utf8"
)

// BlockPrefixLength is the number of leading runes of a token that form its
// block key. Changing it invalidates every persisted index.
const BlockPrefixLength = 2

// BlockKey derives the block a token belongs to. It is a pure function of
// the token.
func BlockKey(token string) string {
	i, n := 0, 0
	for i < len(token) && n < BlockPrefixLength {
		_, size := utf8.DecodeRuneInString(token[i:])
		i += size
		n++
	}
	return token[:i]
}

// Block groups the postings of every term sharing a block key. A term
// mapped to an empty list has been looked up in storage and is known to
// be absent.
type Block map[string]PostingList

// PostingsDictionary maps the tokens of one field to their postings,
// partitioned into blocks.
//
// A resident dictionary holds every term of the field in memory, so a miss
// is final. A lazy dictionary (opened for reading) starts empty and is
// filled one term at a time by the storage layer; a missing block or a
// term missing from its block means "not yet attempted".
type PostingsDictionary struct {
	blocks   map[string]Block
	resident bool

	// postings touched by the document currently being added
	cursorDoc string
	cursor    map[string]*Posting
}

// NewPostingsDictionary returns an empty resident dictionary.
func NewPostingsDictionary() *PostingsDictionary {
	return &PostingsDictionary{blocks: make(map[string]Block), resident: true}
}

// NewLazyPostingsDictionary returns an empty dictionary to be filled from
// storage.
func NewLazyPostingsDictionary() *PostingsDictionary {
	d := NewPostingsDictionary()
	d.resident = false
	return d
}

func (d *PostingsDictionary) Resident() bool {
	return d.resident
}

func (d *PostingsDictionary) SetResident(resident bool) {
	d.resident = resident
}

// AddOccurrence counts one occurrence of token in docID. It reports whether
// the token was new to the dictionary. Postings touched for the current
// docID are remembered until another docID arrives.
func (d *PostingsDictionary) AddOccurrence(token, docID string) bool {
	if d.cursorDoc != docID || d.cursor == nil {
		d.cursorDoc = docID
		d.cursor = make(map[string]*Posting)
	}
	if p, ok := d.cursor[token]; ok {
		p.Frequency++
		return false
	}

	key := BlockKey(token)
	block, ok := d.blocks[key]
	if !ok {
		block = make(Block)
		d.blocks[key] = block
	}
	list, seen := block[token]
	newTerm := !seen || len(list) == 0
	p, found := list.Find(docID)
	if found {
		p.Frequency++
	} else {
		p = &Posting{DocID: docID, Frequency: 1}
		block[token] = append(list, p)
	}
	d.cursor[token] = p
	return newTerm
}

// Lookup returns the in-memory postings of token. Absence markers (empty
// lists) are reported as absent.
func (d *PostingsDictionary) Lookup(token string) (PostingList, bool) {
	list, ok := d.blocks[BlockKey(token)][token]
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list, true
}

// Attempted reports whether token has an entry in its block, including an
// empty "known absent" entry.
func (d *PostingsDictionary) Attempted(token string) bool {
	block, ok := d.blocks[BlockKey(token)]
	if !ok {
		return false
	}
	_, ok = block[token]
	return ok
}

// Block returns the cached block for key. A present but empty block has
// been checked and holds no data.
func (d *PostingsDictionary) Block(key string) (Block, bool) {
	b, ok := d.blocks[key]
	return b, ok
}

// PutBlock merges the terms of b into the cached block for key, creating
// it when needed. It resets the per-document cursor.
func (d *PostingsDictionary) PutBlock(key string, b Block) {
	d.cursor = nil
	block, ok := d.blocks[key]
	if !ok {
		block = make(Block, len(b))
		d.blocks[key] = block
	}
	for token, list := range b {
		if list == nil {
			list = PostingList{}
		}
		block[token] = list
	}
}

// RemovePosting deletes the posting of docID from token's list and drops
// the term when its list becomes empty. It reports whether the term was
// dropped.
func (d *PostingsDictionary) RemovePosting(token, docID string) bool {
	d.cursor = nil
	key := BlockKey(token)
	block, ok := d.blocks[key]
	if !ok {
		return false
	}
	list, ok := block[token]
	if !ok {
		return false
	}
	kept := list[:0]
	for _, p := range list {
		if p.DocID != docID {
			kept = append(kept, p)
		}
	}
	if len(kept) > 0 {
		block[token] = kept
		return false
	}
	delete(block, token)
	if len(block) == 0 {
		delete(d.blocks, key)
	}
	return len(list) > 0
}

// BlockKeys returns the cached block keys in sorted order.
func (d *PostingsDictionary) BlockKeys() []string {
	keys := make([]string, 0, len(d.blocks))
	for k := range d.blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the non-empty terms of the block for key, sorted by
// token.
func (d *PostingsDictionary) Entries(key string) []TermEntry {
	block := d.blocks[key]
	entries := make([]TermEntry, 0, len(block))
	for token, list := range block {
		if len(list) == 0 {
			continue
		}
		entries = append(entries, TermEntry{Token: token, Postings: list})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Token < entries[j].Token })
	return entries
}

// Snapshot returns every non-empty term, sorted by token.
func (d *PostingsDictionary) Snapshot() []TermEntry {
	var entries []TermEntry
	for _, key := range d.BlockKeys() {
		entries = append(entries, d.Entries(key)...)
	}
	return entries
}

// Len returns the number of non-empty terms held in memory.
func (d *PostingsDictionary) Len() int {
	n := 0
	for _, block := range d.blocks {
		for _, list := range block {
			if len(list) > 0 {
				n++
			}
		}
	}
	return n
}
