// Package metrics exposes Prometheus collectors for the HTTP surface, the
// store and the backup pipeline.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/amqp"
	"fintrack/internal/backup"
	"fintrack/internal/store"
)

const namespace = "fintrack"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	suspicious      prometheus.Counter
	commits         *prometheus.CounterVec
	revision        prometheus.Gauge
	backupRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		suspicious: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching known attack patterns.",
		}),
		commits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "commits_total",
			Help:      "Committed store mutations by operation.",
		}, []string{"op"}),
		revision: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "revision",
			Help:      "Current store revision.",
		}),
		backupRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "requests_total",
			Help:      "Backup requests published, by result.",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one served request. Route is the registered
// pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

func (m *Metrics) Suspicious() { m.suspicious.Inc() }

// CommitHook counts commits and tracks the store revision.
func (m *Metrics) CommitHook() store.CommitHook {
	return func(_ context.Context, ev store.Event) {
		m.commits.WithLabelValues(ev.Op).Inc()
		m.revision.Set(float64(ev.Revision))
	}
}

// Publisher wraps pub, counting published and failed backup requests.
func (m *Metrics) Publisher(pub backup.Publisher) backup.Publisher {
	return &countingPublisher{next: pub, m: m}
}

type countingPublisher struct {
	next backup.Publisher
	m    *Metrics
}

func (p *countingPublisher) PublishBackup(ctx context.Context, req *amqp.BackupRequest) error {
	err := p.next.PublishBackup(ctx, req)
	result := "published"
	if err != nil {
		result = "failed"
	}
	p.m.backupRequests.WithLabelValues(result).Inc()
	return err
}
