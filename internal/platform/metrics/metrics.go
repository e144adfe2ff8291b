package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the verification core.
// Tracks join request outcomes, challenge delivery and policy cache behaviour.
type Metrics struct {
	JoinRequests      *prometheus.CounterVec
	Outcomes          *prometheus.CounterVec
	ChallengesSent    *prometheus.CounterVec
	SubmissionsTotal  *prometheus.CounterVec
	PendingGauge      prometheus.Gauge
	PolicyCacheHits   prometheus.Counter
	PolicyCacheMisses prometheus.Counter
	PlatformErrors    *prometheus.CounterVec
	HandleDuration    prometheus.Histogram
}

// New registers all metrics against reg. Passing a fresh registry per test
// avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JoinRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "joingate_join_requests_total",
			Help: "Join requests received, by resolved policy mode",
		}, []string{"mode"}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "joingate_outcomes_total",
			Help: "Terminal verification outcomes by audit type and result",
		}, []string{"type", "result"}),
		ChallengesSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "joingate_challenges_total",
			Help: "Captcha challenges issued, by kind and delivery status",
		}, []string{"kind", "status"}),
		SubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "joingate_submissions_total",
			Help: "Captcha submissions from pending users, by result",
		}, []string{"result"}),
		PendingGauge: f.NewGauge(prometheus.GaugeOpts{
			Name: "joingate_pending_verifications",
			Help: "Join requests currently awaiting a captcha answer",
		}),
		PolicyCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "joingate_policy_cache_hits_total",
			Help: "Policy lookups served from the in-memory cache",
		}),
		PolicyCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "joingate_policy_cache_misses_total",
			Help: "Policy lookups that went to storage",
		}),
		PlatformErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "joingate_platform_errors_total",
			Help: "Failed platform calls, by action",
		}, []string{"action"}),
		HandleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "joingate_handle_join_request_duration_seconds",
			Help:    "Duration of join request handling up to challenge delivery or resolution",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// IncrementJoinRequest records an incoming join request under its policy mode.
func (m *Metrics) IncrementJoinRequest(mode string) {
	m.JoinRequests.WithLabelValues(mode).Inc()
}

// IncrementOutcome records a resolved request.
func (m *Metrics) IncrementOutcome(auditType, result string) {
	m.Outcomes.WithLabelValues(auditType, result).Inc()
}

// IncrementChallenge records a challenge delivery attempt. status is "sent" or "failed".
func (m *Metrics) IncrementChallenge(kind, status string) {
	m.ChallengesSent.WithLabelValues(kind, status).Inc()
}

// IncrementSubmission records a code submission. result is "match", "mismatch" or "exhausted".
func (m *Metrics) IncrementSubmission(result string) {
	m.SubmissionsTotal.WithLabelValues(result).Inc()
}

// SetPending publishes the current pending table size.
func (m *Metrics) SetPending(n int) {
	m.PendingGauge.Set(float64(n))
}

// IncrementPolicyCacheHit records a cache hit.
func (m *Metrics) IncrementPolicyCacheHit() {
	m.PolicyCacheHits.Inc()
}

// IncrementPolicyCacheMiss records a cache miss.
func (m *Metrics) IncrementPolicyCacheMiss() {
	m.PolicyCacheMisses.Inc()
}

// IncrementPlatformError records a failed platform action.
func (m *Metrics) IncrementPlatformError(action string) {
	m.PlatformErrors.WithLabelValues(action).Inc()
}

// ObserveHandleJoinRequest records handling latency.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveHandleJoinRequest(start time.Time) {
	m.HandleDuration.Observe(time.Since(start).Seconds())
}
