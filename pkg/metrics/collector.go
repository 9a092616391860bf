package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "koreafit"

// Collector owns a private registry so tests can build as many as they like
// without tripping duplicate registration on the default one.
// All Record* methods are safe on a nil receiver.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	exports      *prometheus.CounterVec
	analyses     *prometheus.CounterVec
	gate         *prometheus.CounterVec
	mailSent     *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exports_total",
			Help: "Export attempts by format and result.",
		}, []string{"format", "result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "regulatory_analyses_total",
			Help: "Regulatory analyses by category and verdict band.",
		}, []string{"category", "band"}),
		gate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "newsletter_gate_decisions_total",
			Help: "Newsletter gate outcomes by gate and decision.",
		}, []string{"gate", "decision"}),
		mailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "mail_sent_total",
			Help: "Outgoing mail by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(c.httpRequests, c.httpLatency, c.exports, c.analyses, c.gate, c.mailSent)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) RecordHTTP(route, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (c *Collector) RecordExport(format, result string) {
	if c == nil {
		return
	}
	c.exports.WithLabelValues(format, result).Inc()
}

func (c *Collector) RecordAnalysis(category, band string) {
	if c == nil {
		return
	}
	c.analyses.WithLabelValues(category, band).Inc()
}

func (c *Collector) RecordGate(gate, decision string) {
	if c == nil {
		return
	}
	c.gate.WithLabelValues(gate, decision).Inc()
}

func (c *Collector) RecordMail(kind string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.mailSent.WithLabelValues(kind, result).Inc()
}
