// Package metrics holds the prometheus collectors of the gallery.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	uploadsTotal        *prometheus.CounterVec
	uploadBytes         *prometheus.CounterVec
	uploadDuration      *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gallery_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_uploads_total",
				Help: "Image uploads by storage backend and result",
			},
			[]string{"backend", "result"},
		),
		uploadBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_upload_bytes_total",
				Help: "Bytes successfully stored by storage backend",
			},
			[]string{"backend"},
		),
		uploadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gallery_upload_duration_seconds",
				Help:    "Time spent in the storage backend",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend"},
		),
	}
	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.uploadsTotal,
		m.uploadBytes,
		m.uploadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpload records one storage backend call.
func (m *Metrics) ObserveUpload(backend string, size int64, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	} else {
		m.uploadBytes.WithLabelValues(backend).Add(float64(size))
	}
	m.uploadsTotal.WithLabelValues(backend, result).Inc()
	m.uploadDuration.WithLabelValues(backend).Observe(took.Seconds())
}

// Middleware counts requests by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		m.httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
