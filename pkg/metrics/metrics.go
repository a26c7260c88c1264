// Package metrics exposes the Prometheus metrics of the pdf bundle.
// All metrics are defined in their respective packages (listener, render,
// cache) to maintain modularity and avoid circular dependencies.
//
// This package provides the scrape handler and a reference of all metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer the bundle's metrics are registered
// with via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the Prometheus gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving the metrics in Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Conversion Metrics (pkg/listener):
//   - pdf_conversions_total{outcome} (Counter): outcome is converted, passed_through or error_fallback
//   - pdf_conversion_duration_seconds (Histogram): Time spent producing pdf content, cache included
//   - pdf_coalesced_renders_total (Counter): Conversions served by an identical in-flight render
//
// Render Metrics (pkg/render):
//   - pdf_renders_total{parser, result} (Counter): Renders by parser (html, markdown) and result (ok, error)
//   - pdf_render_duration_seconds{parser} (Histogram): Render duration by parser
//   - pdf_rendered_bytes{parser} (Histogram): Size of rendered documents
//
// Cache Metrics (pkg/cache):
//   - pdf_cache_hits_total{store} (Counter): Cache hits by store (redis, gcs, memory)
//   - pdf_cache_misses_total{store} (Counter): Cache misses by store
//   - pdf_cache_stored_bytes_total{store} (Counter): Bytes written to the store
//   - pdf_cache_errors_total{store, operation} (Counter): Store errors by operation (test, load, save)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pdf_cache_hits_total[5m])) /
//   (sum(rate(pdf_cache_hits_total[5m])) + sum(rate(pdf_cache_misses_total[5m])))
//
//   # Conversion Failure Rate
//   rate(pdf_conversions_total{outcome="error_fallback"}[5m]) / rate(pdf_conversions_total[5m])
//
//   # P95 Render Latency per Parser
//   histogram_quantile(0.95, sum by (parser, le) (rate(pdf_render_duration_seconds_bucket[5m])))
//
//   # Single-flight Savings
//   rate(pdf_coalesced_renders_total[5m])
