package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	lookupsTotal     *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	unavailableTotal *prometheus.CounterVec
	lastPrice        *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		lookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairval_lookups_total",
				Help: "Total number of ticker lookups",
			},
			[]string{"status"},
		),
		providerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairval_provider_errors_total",
				Help: "Total number of provider fetch errors",
			},
			[]string{"provider"},
		),
		unavailableTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairval_model_unavailable_total",
				Help: "Valuation model results reported unavailable, by reason",
			},
			[]string{"model", "reason"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fairval_last_price",
				Help: "Last fetched price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairval_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordLookup records a completed lookup with its outcome.
func (r *Recorder) RecordLookup(status string) {
	r.lookupsTotal.WithLabelValues(status).Inc()
}

// RecordProviderError records a failed provider fetch.
func (r *Recorder) RecordProviderError(provider string) {
	r.providerErrors.WithLabelValues(provider).Inc()
}

// RecordUnavailable records a model reporting an unavailable result.
func (r *Recorder) RecordUnavailable(model, reason string) {
	r.unavailableTotal.WithLabelValues(model, reason).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
