package signup

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects provisioning metrics
type Recorder interface {
	AvailabilityChecked(check, outcome string)
	AccountProvisioned(outcome string)
	CompensationFailed()
	LoginAttempted(outcome string)
	ObserveProvisioning(duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) AvailabilityChecked(string, string) {}
func (noopRecorder) AccountProvisioned(string)          {}
func (noopRecorder) CompensationFailed()                {}
func (noopRecorder) LoginAttempted(string)              {}
func (noopRecorder) ObserveProvisioning(time.Duration)  {}

// MetricsCollector is the Prometheus backed Recorder
type MetricsCollector struct {
	availability       *prometheus.CounterVec
	provisioned        *prometheus.CounterVec
	compensationFailed prometheus.Counter
	logins             *prometheus.CounterVec
	provisionLatency   prometheus.Histogram
}

// NewMetricsCollector creates the collector and registers it with reg
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	c := &MetricsCollector{
		availability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_availability_checks_total",
			Help: "Availability checks by check and outcome",
		}, []string{"check", "outcome"}),
		provisioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_accounts_provisioned_total",
			Help: "Provisioning attempts by outcome",
		}, []string{"outcome"}),
		compensationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signup_compensation_failed_total",
			Help: "Identity deletes that failed after a profile insert failure",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_login_attempts_total",
			Help: "Session establishment attempts by outcome",
		}, []string{"outcome"}),
		provisionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signup_provisioning_duration_seconds",
			Help:    "Time spent creating an account",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.availability,
		c.provisioned,
		c.compensationFailed,
		c.logins,
		c.provisionLatency,
	)

	return c
}

func (c *MetricsCollector) AvailabilityChecked(check, outcome string) {
	c.availability.WithLabelValues(check, outcome).Inc()
}

func (c *MetricsCollector) AccountProvisioned(outcome string) {
	c.provisioned.WithLabelValues(outcome).Inc()
}

func (c *MetricsCollector) CompensationFailed() {
	c.compensationFailed.Inc()
}

func (c *MetricsCollector) LoginAttempted(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *MetricsCollector) ObserveProvisioning(duration time.Duration) {
	c.provisionLatency.Observe(duration.Seconds())
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// MetricsHandler serves the registry on /metrics and a liveness probe on
// /healthz that fails with 503 when any check fails
func MetricsHandler(gatherer prometheus.Gatherer, checks ...HealthCheck) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
