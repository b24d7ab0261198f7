// Package metrics defines the Prometheus collectors of the index writer,
// the query engine and the indexer service, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search result types.
const (
	ResultHit   = "hit"
	ResultEmpty = "zero_result"
	ResultError = "error"
)

// Metrics holds all Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	DocsIndexedTotal   prometheus.Counter
	DocsRemovedTotal   prometheus.Counter
	IndexFlushesTotal  *prometheus.CounterVec
	FlushDuration      prometheus.Histogram
	IndexDocuments     prometheus.Gauge
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	BlockLoadsTotal    *prometheus.CounterVec
	MessagesTotal      *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invindex_http_requests_total",
				Help: "Search service requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invindex_http_request_duration_seconds",
				Help:    "Search service request latency by route.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "invindex_http_requests_in_flight",
				Help: "Search service requests being served.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "invindex_docs_indexed_total",
				Help: "Total documents added to the index.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "invindex_docs_removed_total",
				Help: "Total documents removed from the index.",
			},
		),
		IndexFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invindex_flushes_total",
				Help: "Total index flush operations by status.",
			},
			[]string{"status"},
		),
		FlushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invindex_flush_duration_seconds",
				Help:    "Time spent writing the index to its directory.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "invindex_documents",
				Help: "Documents counted by the index.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invindex_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invindex_search_latency_seconds",
				Help:    "Search latency in seconds by query kind.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invindex_search_results_count",
				Help:    "Number of hits returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
		),
		BlockLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invindex_postings_loads_total",
				Help: "Postings loaded from storage on demand, by outcome (found, absent).",
			},
			[]string{"outcome"},
		),
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invindex_consumer_messages_total",
				Help: "Document events consumed by action and status.",
			},
			[]string{"action", "status"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.DocsIndexedTotal,
		m.DocsRemovedTotal,
		m.IndexFlushesTotal,
		m.FlushDuration,
		m.IndexDocuments,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.BlockLoadsTotal,
		m.MessagesTotal,
	)
	return m
}

func (m *Metrics) DocumentIndexed(total int64) {
	if m == nil {
		return
	}
	m.DocsIndexedTotal.Inc()
	m.IndexDocuments.Set(float64(total))
}

func (m *Metrics) DocumentRemoved() {
	if m == nil {
		return
	}
	m.DocsRemovedTotal.Inc()
}

// ObserveFlush records one flush that started at start.
func (m *Metrics) ObserveFlush(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.IndexFlushesTotal.WithLabelValues(status).Inc()
	m.FlushDuration.Observe(time.Since(start).Seconds())
}

// ObserveSearch records one query of kind ("word" or "document").
func (m *Metrics) ObserveSearch(kind string, start time.Time, hits int, err error) {
	if m == nil {
		return
	}
	result := ResultHit
	switch {
	case err != nil:
		result = ResultError
	case hits == 0:
		result = ResultEmpty
	}
	m.SearchQueriesTotal.WithLabelValues(result).Inc()
	m.SearchLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err == nil {
		m.SearchResultsCount.Observe(float64(hits))
	}
}

func (m *Metrics) PostingsLoaded(found bool) {
	if m == nil {
		return
	}
	outcome := "absent"
	if found {
		outcome = "found"
	}
	m.BlockLoadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MessageConsumed(action, status string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(action, status).Inc()
}

// RequestStarted counts one in-flight request until the returned func runs.
func (m *Metrics) RequestStarted() (done func()) {
	if m == nil {
		return func() {}
	}
	m.RequestsInFlight.Inc()
	return m.RequestsInFlight.Dec
}

func (m *Metrics) ObserveRequest(method, route string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
