package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics uses a private registry so several servers (and tests) can
// coexist in one process.
type serverMetrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tokensCreated prometheus.Counter
	mappingSize   prometheus.Gauge
	rateLimited   prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "anonymizer_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "anonymizer_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		tokensCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anonymizer_tokens_created_total",
			Help: "Tokens minted for newly marked terms",
		}),
		mappingSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "anonymizer_mapping_entries",
			Help: "Entries in the mapping after the last encode",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anonymizer_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.tokensCreated, m.mappingSize, m.rateLimited)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *serverMetrics) observe(route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
