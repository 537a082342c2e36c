package metrics

import "github.com/prometheus/client_golang/prometheus"

// UpstreamMetrics exposes counters/histograms for upstream SaaS fetches.
type UpstreamMetrics struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "upstream",
			Name:      "fetch_total",
			Help:      "Total fetches against upstream SaaS APIs",
		}, []string{"source", "status"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "upstream",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of upstream SaaS fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency)
	return m
}

func (m *UpstreamMetrics) ObserveFetch(src string, failed bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.fetchTotal.WithLabelValues(src, status).Inc()
	m.fetchLatency.WithLabelValues(src).Observe(seconds)
}
