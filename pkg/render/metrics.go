package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for render operations.
var (
	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdf_renders_total",
		Help: "Total PDF renders by parser and result",
	}, []string{"parser", "result"}) // result: "ok", "error"

	renderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdf_render_duration_seconds",
		Help:    "PDF render duration in seconds by parser",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"parser"})

	renderedBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdf_rendered_bytes",
		Help:    "Size of rendered PDF documents in bytes by parser",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"parser"})
)
