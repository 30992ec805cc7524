package metrics

import "github.com/prometheus/client_golang/prometheus"

// CRMMetrics: счётчики HTTP и бизнес-событий CRM.
type CRMMetrics struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	leadTransitions *prometheus.CounterVec
	formSubmissions *prometheus.CounterVec
	summaryCache    *prometheus.CounterVec
}

func NewCRMMetrics(reg prometheus.Registerer) *CRMMetrics {
	m := &CRMMetrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turcrm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turcrm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		leadTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turcrm",
			Subsystem: "leads",
			Name:      "status_transitions_total",
			Help:      "Lead status transitions",
		}, []string{"from", "to"}),
		formSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turcrm",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Public form submissions by result",
		}, []string{"result"}),
		summaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turcrm",
			Subsystem: "summary",
			Name:      "cache_lookups_total",
			Help:      "Tour summary cache lookups",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.leadTransitions, m.formSubmissions, m.summaryCache)
	return m
}

func (m *CRMMetrics) ObserveRequest(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *CRMMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.leadTransitions.WithLabelValues(from, to).Inc()
}

func (m *CRMMetrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.formSubmissions.WithLabelValues(result).Inc()
}

func (m *CRMMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.summaryCache.WithLabelValues(label).Inc()
}
