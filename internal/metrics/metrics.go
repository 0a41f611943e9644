// Package metrics exposes Prometheus instruments for analyses.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Labels: mode (heuristic, hybrid, fallback), likely_ai, risk
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aidd",
		Name:      "analyses_total",
		Help:      "Completed document analyses",
	}, []string{"mode", "likely_ai", "risk"})

	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aidd",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time of one analysis including any hybrid scoring",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"mode"})

	confidenceScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "aidd",
		Name:      "confidence_score",
		Help:      "Distribution of final confidence scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 1.0},
	})

	// Labels: provider, reason (timeout, unavailable, parse)
	hybridFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aidd",
		Subsystem: "hybrid",
		Name:      "fallbacks_total",
		Help:      "Hybrid analyses that fell back to heuristics only",
	}, []string{"provider", "reason"})

	// Labels: format (pdf, docx, txt, unknown)
	extractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aidd",
		Subsystem: "ingest",
		Name:      "failures_total",
		Help:      "Documents whose text could not be extracted",
	}, []string{"format"})
)

func ObserveAnalysis(mode string, likelyAI bool, risk string, confidence float64, elapsed time.Duration) {
	analysesTotal.WithLabelValues(mode, strconv.FormatBool(likelyAI), risk).Inc()
	analysisDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	confidenceScores.Observe(confidence)
}

func HybridFallback(provider, reason string) {
	hybridFallbacks.WithLabelValues(provider, reason).Inc()
}

func ExtractionFailure(format string) {
	if format == "" {
		format = "unknown"
	}
	extractionFailures.WithLabelValues(format).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
