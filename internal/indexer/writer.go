// Package indexer adds documents to an index and persists it through a
// store.Directory.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/metrics"
)

// Writer is the ingestion side of an index. Its methods are serialised by
// an internal lock, so a background flush loop may share it with one
// producer of documents.
type Writer struct {
	mu         sync.Mutex
	idx        *index.Index
	dir        store.Directory
	analyzer   *tokenizer.Analyzer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	flushEvery int
	pending    int
	afterFlush func(ctx context.Context) error
}

type Option func(*Writer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

// WithFlushEvery makes AddDocument flush after every n added documents.
func WithFlushEvery(n int) Option {
	return func(w *Writer) { w.flushEvery = n }
}

func NewWriter(idx *index.Index, dir store.Directory, analyzer *tokenizer.Analyzer, opts ...Option) *Writer {
	w := &Writer{
		idx:      idx,
		dir:      dir,
		analyzer: analyzer,
		logger:   slog.Default().With("component", "writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AfterFlush registers fn to run after every successful flush, with the
// writer still locked. Its error is logged; the flush itself succeeded.
func (w *Writer) AfterFlush(fn func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.afterFlush = fn
}

func (w *Writer) Index() *index.Index {
	return w.idx
}

// Open loads a previously flushed index so that writing continues where it
// stopped. A location holding no index leaves the in-memory index empty.
func (w *Writer) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.dir.Read(ctx, w.idx); err != nil {
		if errors.Is(err, apperrors.ErrNoIndex) {
			w.logger.Info("no existing index, starting empty")
			return nil
		}
		return fmt.Errorf("opening index: %w", err)
	}
	w.logger.Info("index opened",
		"docs", w.idx.NumDocs(),
		"terms", w.idx.NumTerms(),
		"indexed_fields", w.idx.FieldNames(document.OptionIndexed),
	)
	return nil
}

// AddDocument indexes every field of doc. A document without an id gets
// the next sequential id not already in use. Every field is analysed and
// its postings loaded before the index changes, so a rejected document
// leaves no trace. An id that is already indexed is rejected; remove the
// old version first.
func (w *Writer) AddDocument(ctx context.Context, doc *document.Document) error {
	if doc.Len() == 0 {
		return apperrors.New(apperrors.ErrInvalidArgument, "document has no fields")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if doc.ID != "" && w.idx.Contains(doc.ID) {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "document %q is already indexed", doc.ID)
	}

	fields := doc.Fields()
	tokens := make([][]string, len(fields))
	for i, f := range fields {
		if !f.Info.Indexed {
			continue
		}
		toks, err := w.analyzer.Tokens(f)
		if err != nil {
			return fmt.Errorf("analysing field %q: %w", f.Name, err)
		}
		if err := w.ensureResident(ctx, f.Name); err != nil {
			return err
		}
		tokens[i] = toks
	}

	w.assignID(doc)
	for i, f := range fields {
		if f.Info.Stored {
			w.idx.RegisterField(document.OptionStored, f.Name)
			w.idx.SetStored(f.Name, doc.ID, f.Data)
		}
		if !f.Info.Indexed {
			continue
		}
		w.idx.RegisterField(document.OptionIndexed, f.Name)
		for _, tok := range tokens[i] {
			w.idx.AddOccurrence(index.NewTerm(f.Name, tok), doc.ID)
		}
		w.idx.SetNorm(f.Name, doc.ID, len(tokens[i]))
	}
	w.pending++
	w.metrics.DocumentIndexed(w.idx.NumDocs())
	w.logger.Debug("document indexed", "doc_id", doc.ID, "fields", doc.Len())

	if w.flushEvery > 0 && w.pending >= w.flushEvery {
		w.logger.Info("pending documents reached threshold, flushing",
			"pending", w.pending,
			"threshold", w.flushEvery,
		)
		if err := w.flush(ctx); err != nil {
			return fmt.Errorf("flushing index: %w", err)
		}
	}
	return nil
}

// assignID counts doc, handing out sequential ids to documents without
// one. Ids taken by explicitly named documents are skipped.
func (w *Writer) assignID(doc *document.Document) {
	if doc.ID != "" {
		w.idx.CountDocument()
		return
	}
	for {
		id := w.idx.NextDocumentID()
		w.idx.CountDocument()
		if !w.idx.Contains(id) {
			doc.ID = id
			return
		}
	}
}

// RemoveDocument re-analyses the fields of doc and deletes its postings,
// norms and stored values. Postings are only found when the text equals
// what was indexed.
func (w *Writer) RemoveDocument(ctx context.Context, doc *document.Document) error {
	if doc == nil || doc.ID == "" {
		return apperrors.New(apperrors.ErrInvalidArgument, "document id is required")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0
	for _, f := range doc.Fields() {
		if f.Info.Stored {
			w.idx.DeleteStored(f.Name, doc.ID)
		}
		if !f.Info.Indexed {
			continue
		}
		if err := w.ensureResident(ctx, f.Name); err != nil {
			return err
		}
		tokens, err := w.analyzer.Tokens(f)
		if err != nil {
			return fmt.Errorf("analysing field %q: %w", f.Name, err)
		}
		for _, tok := range tokens {
			if w.idx.RemovePosting(index.NewTerm(f.Name, tok), doc.ID) {
				removed++
			}
		}
		w.idx.DeleteNorm(f.Name, doc.ID)
	}

	w.pending++
	w.metrics.DocumentRemoved()
	w.logger.Debug("document removed", "doc_id", doc.ID, "terms_dropped", removed)
	return nil
}

// Flush writes a full snapshot of the index. Flushing an unchanged index
// again produces the same persisted state.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flush(ctx)
}

func (w *Writer) flush(ctx context.Context) error {
	start := time.Now()
	err := w.dir.Write(ctx, w.idx)
	w.metrics.ObserveFlush(start, err)
	if err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	w.logger.Info("index flushed",
		"docs", w.idx.NumDocs(),
		"terms", w.idx.NumTerms(),
		"pending", w.pending,
		"duration", time.Since(start),
	)
	w.pending = 0
	if w.afterFlush != nil {
		if err := w.afterFlush(ctx); err != nil {
			w.logger.Error("after-flush step failed", "error", err)
		}
	}
	return nil
}

// Pending returns the number of documents added or removed since the last
// flush.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Reset deletes the persisted index and empties the in-memory one.
func (w *Writer) Reset(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.dir.Reset(ctx); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	w.idx.Reset()
	w.pending = 0
	return nil
}

// RunFlushLoop flushes pending changes every interval until ctx is
// cancelled, then performs a final flush and returns its error. Periodic
// failures are logged and retried on the next tick.
func (w *Writer) RunFlushLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("flush loop stopping, performing final flush", "pending", w.Pending())
			if err := w.Flush(context.WithoutCancel(ctx)); err != nil {
				return fmt.Errorf("final flush: %w", err)
			}
			return nil
		case <-ticker.C:
			if w.Pending() == 0 {
				continue
			}
			if err := w.Flush(ctx); err != nil {
				w.logger.Error("periodic flush failed", "error", err)
			}
		}
	}
}

// Close releases the Directory. It does not flush.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir.Close()
}

// ensureResident loads every postings list of field before the
// dictionary is modified, so a later flush writes them back complete.
func (w *Writer) ensureResident(ctx context.Context, field string) error {
	dict, ok := w.idx.Dictionary(field)
	if !ok || dict.Resident() {
		return nil
	}
	if err := w.dir.ReadPostings(ctx, dict, field); err != nil {
		return fmt.Errorf("loading postings of %q: %w", field, err)
	}
	return nil
}
