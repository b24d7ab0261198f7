// Package handler exposes an index over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/invindex/internal/document"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/invindex/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/invindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/middleware"
)

const maxBodyBytes = 1 << 20

// Searcher is the query side of an index.
type Searcher interface {
	Query(ctx context.Context, field, text string) (ranker.Hits, error)
	SearchDocument(ctx context.Context, doc *document.Document) (ranker.Hits, error)
}

// SearchResult is the response body of both search endpoints.
type SearchResult struct {
	Query     string      `json:"query,omitempty"`
	Field     string      `json:"field,omitempty"`
	TotalHits int         `json:"total_hits"`
	Results   ranker.Hits `json:"results"`
	Cached    bool        `json:"cached"`
	RequestID string      `json:"request_id,omitempty"`
}

type Handler struct {
	// mu serialises searches: the searcher fills block caches on lookup.
	mu           sync.Mutex
	searcher     Searcher
	cache        *cache.QueryCache
	defaultField string
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New builds a Handler. queryCache may be nil.
func New(s Searcher, queryCache *cache.QueryCache, defaultField string, defaultLimit, maxResults int) *Handler {
	return &Handler{
		searcher:     s,
		cache:        queryCache,
		defaultField: defaultField,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET ?q=<text>&field=<name>&limit=<n>.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		field = h.defaultField
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	hits, cached, err := h.run(cache.KindQuery, field, query, func() (ranker.Hits, error) {
		return h.searcher.Query(ctx, field, query)
	})
	if err != nil {
		h.writeSearchError(w, log, err, cache.KindQuery, query)
		return
	}

	log.Info("search completed",
		"query", query,
		"field", field,
		"total_hits", len(hits),
		"cache_hit", cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, &SearchResult{
		Query:     query,
		Field:     field,
		TotalHits: len(hits),
		Results:   top(hits, limit),
		Cached:    cached,
		RequestID: middleware.GetRequestID(ctx),
	})
}

// SearchDocument answers POST with a document record as the body. Every
// field of the record is analysed and contributes to the scores.
func (h *Handler) SearchDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	doc, err := document.Decode(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	canonical, err := json.Marshal(document.ToRecord(doc))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hits, cached, err := h.run(cache.KindDocument, "", string(canonical), func() (ranker.Hits, error) {
		return h.searcher.SearchDocument(ctx, doc)
	})
	if err != nil {
		h.writeSearchError(w, log, err, cache.KindDocument, doc.ID)
		return
	}

	log.Info("document search completed",
		"fields", doc.Len(),
		"total_hits", len(hits),
		"cache_hit", cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, &SearchResult{
		TotalHits: len(hits),
		Results:   top(hits, limit),
		Cached:    cached,
		RequestID: middleware.GetRequestID(ctx),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"entries":  h.cache.Len(),
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted := h.cache.Invalidate()
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "entries_deleted": deleted})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// run executes fn under the search lock, through the cache when there is
// one.
func (h *Handler) run(kind, field, query string, fn func() (ranker.Hits, error)) (ranker.Hits, bool, error) {
	locked := func() (ranker.Hits, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		return fn()
	}
	if h.cache == nil {
		hits, err := locked()
		return hits, false, err
	}
	return h.cache.GetOrCompute(kind, field, query, locked)
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) writeSearchError(w http.ResponseWriter, log *slog.Logger, err error, kind, query string) {
	if errors.Is(err, apperrors.ErrInvalidArgument) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("search timed out", "kind", kind, "query", query)
		h.writeError(w, http.StatusGatewayTimeout, "search timed out")
		return
	}
	log.Error("search execution failed", "kind", kind, "query", query, "error", err)
	h.writeError(w, http.StatusInternalServerError, "search failed")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func top(hits ranker.Hits, limit int) ranker.Hits {
	if len(hits) == 0 {
		return ranker.Hits{}
	}
	return hits.Top(limit)
}
