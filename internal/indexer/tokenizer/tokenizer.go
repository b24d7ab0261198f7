// Package tokenizer turns raw field text into a lazy stream of normalised
// tokens. A source Tokenizer splits the text and a fixed-order list of
// filter stages, enabled by configuration, normalises or drops each token.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer is the source of a pipeline. It is bound to new text with
// SetData, primed with Start and drained with Next.
type Tokenizer interface {
	SetData(text string)
	Start()
	Next() (string, bool)
}

// Whitespace splits text on Unicode white space without allocating the
// whole token list up front.
type Whitespace struct {
	input string
	pos   int
}

func (w *Whitespace) SetData(text string) {
	w.input = text
	w.pos = len(text)
}

func (w *Whitespace) Start() {
	w.pos = 0
}

func (w *Whitespace) Next() (string, bool) {
	for w.pos < len(w.input) {
		r, size := utf8.DecodeRuneInString(w.input[w.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		w.pos += size
	}
	if w.pos >= len(w.input) {
		return "", false
	}
	start := w.pos
	for w.pos < len(w.input) {
		r, size := utf8.DecodeRuneInString(w.input[w.pos:])
		if unicode.IsSpace(r) {
			break
		}
		w.pos += size
	}
	return w.input[start:w.pos], true
}

// Segment splits text into words following Unicode UAX #29 after NFKC
// normalisation. Segments without any letter or digit (spaces,
// punctuation) are skipped.
type Segment struct {
	input string
	next  func() (string, bool)
}

func (s *Segment) SetData(text string) {
	s.input = text
	s.next = nil
}

func (s *Segment) Start() {
	toks := words.FromString(norm.NFKC.String(s.input))
	s.next = func() (string, bool) {
		for toks.Next() {
			if v := toks.Value(); hasLetterOrDigit(v) {
				return v, true
			}
		}
		return "", false
	}
}

func (s *Segment) Next() (string, bool) {
	if s.next == nil {
		return "", false
	}
	tok, ok := s.next()
	if !ok {
		s.next = nil
	}
	return tok, ok
}

// Keyword emits the whole text as a single token.
type Keyword struct {
	input   string
	emitted bool
}

func (k *Keyword) SetData(text string) {
	k.input = text
	k.emitted = true
}

func (k *Keyword) Start() {
	k.emitted = strings.TrimSpace(k.input) == ""
}

func (k *Keyword) Next() (string, bool) {
	if k.emitted {
		return "", false
	}
	k.emitted = true
	return k.input, true
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
