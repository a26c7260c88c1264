package listener

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion outcomes.
const (
	outcomeConverted     = "converted"
	outcomePassedThrough = "passed_through"
	outcomeErrorFallback = "error_fallback"
)

// Prometheus metrics for the response transformer.
var (
	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdf_conversions_total",
		Help: "Total responses handled by the pdf transformer by outcome",
	}, []string{"outcome"}) // outcome: "converted", "passed_through", "error_fallback"

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdf_conversion_duration_seconds",
		Help:    "Time spent producing pdf content, cache lookups included",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	coalescedRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pdf_coalesced_renders_total",
		Help: "Conversions that shared the result of an identical in-flight render",
	})
)
