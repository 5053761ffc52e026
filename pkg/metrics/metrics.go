package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reconciler metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingress_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingress_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	ManagedServicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingress_managed_services_total",
			Help: "Number of labelled services currently observed",
		},
	)

	ProxyConfigWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingress_proxy_config_writes_total",
			Help: "Total number of proxy config secrets written (excludes no-op passes where the hash already existed)",
		},
	)

	// ACME metrics
	ACMEOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_acme_orders_total",
			Help: "Total number of ACME orders by outcome",
		},
		[]string{"outcome"}, // issued, failed
	)

	ACMEOrderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingress_acme_order_duration_seconds",
			Help:    "Time taken to complete an ACME order end to end",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	CertificatesRenewableTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingress_certificates_renewable_total",
			Help: "Number of services whose latest certificate is within the renewal threshold",
		},
	)

	DHParamRegenerationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingress_dhparam_regenerations_total",
			Help: "Total number of times DH parameters were regenerated",
		},
	)

	// Challenge responder metrics
	ChallengeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_challenge_requests_total",
			Help: "Total number of HTTP-01 challenge requests served, by result",
		},
		[]string{"result"}, // served, not_found, error
	)
)

func init() {
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ManagedServicesTotal)
	prometheus.MustRegister(ProxyConfigWritesTotal)
	prometheus.MustRegister(ACMEOrdersTotal)
	prometheus.MustRegister(ACMEOrderDuration)
	prometheus.MustRegister(CertificatesRenewableTotal)
	prometheus.MustRegister(DHParamRegenerationsTotal)
	prometheus.MustRegister(ChallengeRequestsTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
