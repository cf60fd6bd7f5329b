// Package metrics exposes extraction counters in Prometheus form.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goextract_documents_total",
			Help: "Documents processed, by outcome",
		},
		[]string{"outcome"},
	)

	dedupHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goextract_dedup_hits_total",
			Help: "Documents rejected because their text was already seen",
		},
	)

	fallbackWins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goextract_fallback_selected_total",
			Help: "Documents whose output came from an extractor other than the primary one",
		},
		[]string{"source"},
	)

	extractedChars = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "goextract_extracted_chars",
			Help:    "Length in characters of accepted main text",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
	)
)

// RecordOutcome counts one processed document. outcome is "accepted" or a
// rejection kind.
func RecordOutcome(outcome string) {
	documentsTotal.WithLabelValues(outcome).Inc()
}

// RecordDuplicate counts a document-level dedup hit.
func RecordDuplicate() {
	dedupHits.Inc()
}

// RecordSource counts the extractor that produced an accepted body.
func RecordSource(source string) {
	if source == "" {
		return
	}
	fallbackWins.WithLabelValues(source).Inc()
}

// ObserveLength records the size of an accepted text.
func ObserveLength(chars int) {
	extractedChars.Observe(float64(chars))
}

// WriteTextfile dumps the default registry to path in the node-exporter
// textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
