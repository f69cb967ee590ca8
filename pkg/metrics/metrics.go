package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Ingest metrics
	IngestJobsTotal        *prometheus.CounterVec
	IngestJobDuration      *prometheus.HistogramVec
	IngestJobsInProgress   prometheus.Gauge
	IngestRecordsProcessed *prometheus.CounterVec
	IngestRecordsRejected  *prometheus.CounterVec

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Ranking metrics
	RankingsComputed      *prometheus.CounterVec
	RankingDuration       *prometheus.HistogramVec
	RankingComparisonSize prometheus.Histogram
	RankingCacheLookups   *prometheus.CounterVec
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		IngestJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_jobs_total",
				Help: "Total number of campaign ingest jobs",
			},
			[]string{"status", "stage"},
		),

		IngestJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ingest_job_duration_seconds",
				Help:    "Campaign ingest job duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),

		IngestJobsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ingest_jobs_in_progress",
				Help: "Number of ingest jobs currently in progress",
			},
		),

		IngestRecordsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_records_processed_total",
				Help: "Total number of records accepted by ingest",
			},
			[]string{"source", "status"},
		),

		IngestRecordsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_records_rejected_total",
				Help: "Total number of records rejected by ingest validation",
			},
			[]string{"source", "reason"},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "External API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of external API failures",
			},
			[]string{"api", "error_type"},
		),

		RankingsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankings_computed_total",
				Help: "Total number of ranking pipeline runs",
			},
			[]string{"time_basis", "source"},
		),

		RankingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ranking_duration_seconds",
				Help:    "Ranking computation duration in seconds, including storage reads",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"time_basis"},
		),

		RankingComparisonSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranking_comparison_set_size",
				Help:    "Number of businesses in a computed comparison set",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 1000},
			},
		),

		RankingCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ranking_cache_lookups_total",
				Help: "Ranking cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Ingest job metrics
func (m *Metrics) RecordIngestJob(status, stage string, duration time.Duration) {
	m.IngestJobsTotal.WithLabelValues(status, stage).Inc()
	m.IngestJobDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *Metrics) RecordIngestRecords(source, status string, count int) {
	m.IngestRecordsProcessed.WithLabelValues(source, status).Add(float64(count))
}

func (m *Metrics) RecordIngestRejection(source, reason string) {
	m.IngestRecordsRejected.WithLabelValues(source, reason).Inc()
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(api, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(api, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(api).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(api, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(api, errorType).Inc()
}

// Ranking pipeline run; source is "store", "cache" or "request"
func (m *Metrics) RecordRanking(timeBasis, source string, comparisonSize int, duration time.Duration) {
	m.RankingsComputed.WithLabelValues(timeBasis, source).Inc()
	m.RankingDuration.WithLabelValues(timeBasis).Observe(duration.Seconds())
	m.RankingComparisonSize.Observe(float64(comparisonSize))
}

// result is "hit", "miss" or "error"
func (m *Metrics) RecordCacheLookup(result string) {
	m.RankingCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncIngestJobsInProgress() {
	m.IngestJobsInProgress.Inc()
}

func (m *Metrics) DecIngestJobsInProgress() {
	m.IngestJobsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
