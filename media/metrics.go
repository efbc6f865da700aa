package media

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is an optional sink for pipeline counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ingests            *prometheus.CounterVec
	extractionFailures prometheus.Counter
	ingestDuration     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ingests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "media_ingest_total",
			Help: "Ingestion attempts partitioned by outcome.",
		}, []string{"status"}),
		extractionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "media_extraction_failures_total",
			Help: "Metadata extractions that failed and were skipped.",
		}),
		ingestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "media_ingest_duration_seconds",
			Help:    "Wall time of a single asset ingestion.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeIngest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(status).Inc()
	m.ingestDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeExtractionFailure() {
	if m == nil {
		return
	}
	m.extractionFailures.Inc()
}
