// Package searcher answers single-term and query-by-document searches
// against an index, loading postings from its Directory on demand.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/metrics"
)

// Reader is the query side of an index. It is not safe for concurrent
// use: lookups fill the dictionaries' block caches.
type Reader struct {
	idx      *index.Index
	dir      store.Directory
	analyzer *tokenizer.Analyzer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Reader)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

func NewReader(idx *index.Index, dir store.Directory, analyzer *tokenizer.Analyzer, opts ...Option) *Reader {
	r := &Reader{
		idx:      idx,
		dir:      dir,
		analyzer: analyzer,
		logger:   slog.Default().With("component", "reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) Index() *index.Index {
	return r.idx
}

// Open loads the field registry, norms and stored values. Postings stay
// on storage until a query needs them.
func (r *Reader) Open(ctx context.Context) error {
	if err := r.dir.Read(ctx, r.idx); err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	r.logger.Info("index opened",
		"docs", r.idx.NumDocs(),
		"indexed_fields", r.idx.FieldNames(document.OptionIndexed),
	)
	return nil
}

func (r *Reader) Close() error {
	return r.dir.Close()
}

// Search returns one hit per document containing word in field. The word
// is used as given, without analysis.
func (r *Reader) Search(ctx context.Context, field, word string) (hits ranker.Hits, err error) {
	if field == "" || word == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "field and word are required (field=%q word=%q)", field, word)
	}
	start := time.Now()
	defer func() { r.metrics.ObserveSearch("word", start, len(hits), err) }()

	scores := make(map[string]float64)
	if err := r.accumulate(ctx, index.NewTerm(field, word), scores); err != nil {
		return nil, err
	}
	hits = ranker.FromScores(scores, r.idx.Document)
	r.logger.Debug("search", "field", field, "word", word, "hits", len(hits))
	return hits, nil
}

// SearchDocument analyses every field of doc and sums, per matching
// document, the scores of the distinct tokens of each field. Scores are
// not normalised by query length.
func (r *Reader) SearchDocument(ctx context.Context, doc *document.Document) (hits ranker.Hits, err error) {
	if doc.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, "query document has no fields")
	}
	start := time.Now()
	defer func() { r.metrics.ObserveSearch("document", start, len(hits), err) }()

	scores := make(map[string]float64)
	for _, f := range doc.Fields() {
		tokens, err := r.analyzer.Tokens(f)
		if err != nil {
			return nil, fmt.Errorf("analysing query field %q: %w", f.Name, err)
		}
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if err := r.accumulate(ctx, index.NewTerm(f.Name, tok), scores); err != nil {
				return nil, err
			}
		}
	}
	hits = ranker.FromScores(scores, r.idx.Document)
	r.logger.Debug("document search", "fields", doc.Len(), "hits", len(hits))
	return hits, nil
}

// Query analyses text as a default field named field and searches for its
// distinct tokens. Text that analyses to nothing matches nothing.
func (r *Reader) Query(ctx context.Context, field, text string) (ranker.Hits, error) {
	if field == "" || text == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "field and query are required (field=%q query=%q)", field, text)
	}
	q := document.New().Add(document.NewField(field, text, document.DefaultFieldInfo()))
	return r.SearchDocument(ctx, q)
}

// accumulate adds the score of every posting of term to scores.
func (r *Reader) accumulate(ctx context.Context, term index.Term, scores map[string]float64) error {
	postings, err := r.lookupData(ctx, term)
	if err != nil {
		return err
	}
	for _, p := range postings {
		norm, ok := r.idx.Norm(term.Field, p.DocID)
		if !ok || norm <= 0 {
			return apperrors.Newf(apperrors.ErrMissingNorm, "document %s, field %q", p.DocID, term.Field)
		}
		scores[p.DocID] += ranker.Score(p.Frequency, norm)
	}
	return nil
}

// lookupData returns the postings of term, asking the Directory for them
// only when the dictionary is lazy and the term has never been looked up.
func (r *Reader) lookupData(ctx context.Context, term index.Term) (index.PostingList, error) {
	dict, ok := r.idx.Dictionary(term.Field)
	if !ok || !r.idx.IsIndexed(term.Field) {
		r.logger.Warn("query on a field that is not indexed",
			"field", term.Field,
			"error", apperrors.ErrFieldNotIndexed,
		)
		return nil, nil
	}
	if list, ok := dict.Lookup(term.Token); ok {
		return list, nil
	}
	if dict.Resident() || dict.Attempted(term.Token) {
		return nil, nil
	}

	err := r.dir.ReadPostingsBlock(ctx, dict, term.Field, term.Token)
	if errors.Is(err, apperrors.ErrDecodePostings) {
		r.logger.Warn("skipping undecodable postings", "term", term.String(), "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading postings of %s: %w", term, err)
	}
	list, found := dict.Lookup(term.Token)
	r.metrics.PostingsLoaded(found)
	return list, nil
}
