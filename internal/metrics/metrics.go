// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry groups the service's collectors. Tests build their own so
// registrations never collide across packages.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	Notifications     *prometheus.CounterVec
	QuotaRejections   prometheus.Counter
	QuotationsCreated *prometheus.CounterVec
	RateLimited       *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "notifications_total",
			Help:      "Notification dispatch outcomes by kind.",
		}, []string{"kind", "outcome"}),
		QuotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "free_tier_quota_rejections_total",
			Help:      "Quotations refused because the free monthly quota was spent.",
		}),
		QuotationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "quotations_created_total",
			Help:      "Quotations created, split by seller tier.",
		}, []string{"tier"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"limiter"}),
	}

	reg.MustRegister(
		r.HTTPRequests,
		r.HTTPDuration,
		r.Notifications,
		r.QuotaRejections,
		r.QuotationsCreated,
		r.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) NotificationSent(kind string) {
	r.Notifications.WithLabelValues(kind, "sent").Inc()
}

func (r *Registry) NotificationFailed(kind string) {
	r.Notifications.WithLabelValues(kind, "failed").Inc()
}

func (r *Registry) QuotaRejected() {
	r.QuotaRejections.Inc()
}

func (r *Registry) QuotationCreated(tier string) {
	r.QuotationsCreated.WithLabelValues(tier).Inc()
}

func (r *Registry) RateLimitHit(limiter string) {
	r.RateLimited.WithLabelValues(limiter).Inc()
}
