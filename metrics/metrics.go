package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/clipnest/backend/media"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors.
type Metrics struct {
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	BlobOperationTotal  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg uses a
// fresh registry so tests can build several instances.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		BlobOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blob_operations_total",
			Help: "Total number of blob store operations",
		}, []string{"operation", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.HTTPRequestTotal, m.HTTPRequestDuration, m.BlobOperationTotal)
	return m
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// InstrumentStore counts uploads and deletes on store.
func (m *Metrics) InstrumentStore(store media.Store) media.Store {
	return instrumentedStore{next: store, counter: m.BlobOperationTotal}
}

type instrumentedStore struct {
	next    media.Store
	counter *prometheus.CounterVec
}

func (s instrumentedStore) Upload(ctx context.Context, localPath string) (media.Uploaded, error) {
	up, err := s.next.Upload(ctx, localPath)
	s.counter.WithLabelValues("upload", outcome(err)).Inc()
	return up, err
}

func (s instrumentedStore) Delete(ctx context.Context, url string) error {
	err := s.next.Delete(ctx, url)
	s.counter.WithLabelValues("delete", outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
