package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for the Provost service.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics.
	AuthSuccessesTotal    *prometheus.CounterVec
	AuthFailuresTotal     *prometheus.CounterVec
	TenantSwitchesTotal   prometheus.Counter
	SessionsMintedTotal   prometheus.Counter
	SessionsRejectedTotal *prometheus.CounterVec

	// Rate limiting.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Provisioning and membership administration.
	TenantsProvisionedTotal prometheus.Counter
	StatusUpdatesTotal      *prometheus.CounterVec

	// Audit collector.
	AuditEventsTotal prometheus.Counter

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provost_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provost_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		TenantSwitchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provost_tenant_switches_total",
			Help: "Total number of active-tenant switches.",
		}),

		SessionsMintedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provost_sessions_minted_total",
			Help: "Total number of session tokens minted.",
		}),

		SessionsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_sessions_rejected_total",
			Help: "Total number of session tokens rejected at the edge.",
		}, []string{"reason"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		TenantsProvisionedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provost_tenants_provisioned_total",
			Help: "Total number of tenants provisioned.",
		}),

		StatusUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provost_membership_status_updates_total",
			Help: "Total number of membership status updates.",
		}, []string{"status"}),

		AuditEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provost_audit_events_total",
			Help: "Total number of audit events recorded.",
		}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "provost_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthSuccessesTotal,
		m.AuthFailuresTotal,
		m.TenantSwitchesTotal,
		m.SessionsMintedTotal,
		m.SessionsRejectedTotal,
		m.RateLimitRejectionsTotal,
		m.TenantsProvisionedTotal,
		m.StatusUpdatesTotal,
		m.AuditEventsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTPRequest records one completed request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode, responseBytes int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(seconds)
	m.HTTPResponseSize.WithLabelValues(method, pathPattern).Observe(float64(responseBytes))
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncSessionRejected increments the edge rejection counter by reason.
func (m *Metrics) IncSessionRejected(reason string) {
	m.SessionsRejectedTotal.WithLabelValues(reason).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// IncStatusUpdate increments the membership status update counter.
func (m *Metrics) IncStatusUpdate(status string) {
	m.StatusUpdatesTotal.WithLabelValues(status).Inc()
}
