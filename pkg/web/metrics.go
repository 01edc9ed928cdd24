package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server owns
// its registry, so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Operations      *prometheus.CounterVec
	Connects        *prometheus.CounterVec
	TransferBytes   *prometheus.CounterVec
	Panics          prometheus.Counter
}

// NewMetrics creates the collectors. sessions, when set, backs the
// active-sessions gauge.
func NewMetrics(sessions func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ftpm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpm_ftp_operations_total",
				Help: "FTP operations by name and result",
			},
			[]string{"operation", "result"},
		),
		Connects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpm_ftp_connects_total",
				Help: "FTP connection attempts by resulting transport",
			},
			[]string{"transport"},
		),
		TransferBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftpm_transfer_bytes_total",
				Help: "Bytes moved through upload and download",
			},
			[]string{"direction"},
		),
		Panics: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ftpm_http_panics_total",
				Help: "Requests that ended in a recovered panic",
			},
		),
	}

	if sessions != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ftpm_sessions_active",
				Help: "Number of live sessions",
			},
			func() float64 { return float64(sessions()) },
		)
	}
	return m
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveOperation counts one FTP operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
