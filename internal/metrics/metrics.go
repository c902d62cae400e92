// Package metrics declares the Prometheus metrics exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts API requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "favshelf_http_requests_total",
		Help: "Total API requests by method, route and status",
	}, []string{"method", "route", "status"})

	// OverlayWrites counts successful overlay writes by store.
	OverlayWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "favshelf_overlay_writes_total",
		Help: "Total overlay writes by store",
	}, []string{"store"})

	// CatalogQueries counts catalog reads by operation.
	CatalogQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "favshelf_catalog_queries_total",
		Help: "Total catalog queries by operation",
	}, []string{"operation"})

	// CollectedNotes counts collector outcomes by result.
	CollectedNotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "favshelf_collected_notes_total",
		Help: "Total notes processed by the collector by result",
	}, []string{"result"})

	// FetchDuration tracks detail fetch latency.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "favshelf_fetch_duration_seconds",
		Help:    "Detail fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// CaptureScrolls counts scroll steps taken by live capture.
	CaptureScrolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "favshelf_capture_scrolls_total",
		Help: "Total scroll steps taken during live capture",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
