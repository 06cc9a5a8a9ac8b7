package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	recordsIngested *prometheus.CounterVec
	ingestErrors    *prometheus.CounterVec
	webhookRequests *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cnabgw_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		recordsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnabgw_records_ingested_total",
				Help: "Total ledger records ingested by source.",
			},
			[]string{"source"},
		),
		ingestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnabgw_ingest_errors_total",
				Help: "Total failed ingestion attempts by source.",
			},
			[]string{"source"},
		),
		webhookRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnabgw_webhook_requests_total",
				Help: "Total PIX webhook requests by result.",
			},
			[]string{"result"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cnabgw_store_errors_total",
				Help: "Total errors from the ledger store.",
			},
			[]string{"backend"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRecordsIngested adds n to the ingested-records counter for a source.
func (m *Metrics) IncrRecordsIngested(source string, n int) {
	m.recordsIngested.WithLabelValues(source).Add(float64(n))
}

// IncrIngestError increments the failed-ingestion counter for a source.
func (m *Metrics) IncrIngestError(source string) {
	m.ingestErrors.WithLabelValues(source).Inc()
}

// IncrWebhook increments the webhook counter with a result label
// (accepted, rejected, duplicate).
func (m *Metrics) IncrWebhook(result string) {
	m.webhookRequests.WithLabelValues(result).Inc()
}

// IncrStoreError increments the ledger store error counter.
func (m *Metrics) IncrStoreError(backend string) {
	m.storeErrors.WithLabelValues(backend).Inc()
}

// GetIngestionSnapshot returns a snapshot of ingestion metrics suitable
// for the GET /v1/metrics/ingestion endpoint.
func (m *Metrics) GetIngestionSnapshot() *domain.IngestionMetrics {
	// Prometheus counters expose cumulative values.
	pixRecords := getCounterValue(m.recordsIngested, domain.SourcePix)
	cnabRecords := getCounterValue(m.recordsIngested, domain.SourceCNAB)
	ingestErrors := getCounterValue(m.ingestErrors, domain.SourcePix) +
		getCounterValue(m.ingestErrors, domain.SourceCNAB)
	accepted := getCounterValue(m.webhookRequests, "accepted")
	rejected := getCounterValue(m.webhookRequests, "rejected")
	duplicates := getCounterValue(m.webhookRequests, "duplicate")

	total := pixRecords + cnabRecords
	errorRate := float64(0)
	if attempts := total + ingestErrors; attempts > 0 {
		errorRate = ingestErrors / attempts
	}

	return &domain.IngestionMetrics{
		RecordsIngested:    int64(total),
		PixRecords:         int64(pixRecords),
		CnabRecords:        int64(cnabRecords),
		WebhookAccepted:    int64(accepted),
		WebhookRejected:    int64(rejected),
		WebhookDuplicates:  int64(duplicates),
		IngestionErrorRate: errorRate,
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
