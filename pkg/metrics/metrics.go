// Package metrics holds the Prometheus collectors of parley. Every method is
// safe to call on a nil *Collector, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Understanding outcomes.
const (
	OutcomeIntent = "intent"
	OutcomeQnA    = "qna"
	OutcomeNone   = "none"
	OutcomeError  = "error"
)

// Event publication statuses.
const (
	EventPublished = "published"
	EventFailed    = "failed"
	EventDropped   = "dropped"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Understanding metrics
	Understandings        *prometheus.CounterVec
	UnderstandingDuration prometheus.Histogram

	// Brain metrics
	UsersCreated prometheus.Counter

	// Event stream metrics
	Events *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Understandings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "understandings_total",
				Help:      "Total number of computed understandings by outcome",
			},
			[]string{"outcome"},
		),
		UnderstandingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "understanding_duration_seconds",
				Help:      "Understanding computation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		UsersCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_created_total",
				Help:      "Total number of users added to the brain",
			},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of understanding events by publication status",
			},
			[]string{"status"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Understandings,
		c.UnderstandingDuration,
		c.UsersCreated,
		c.Events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the registry of the collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordUnderstanding records one understanding with its outcome.
func (c *Collector) RecordUnderstanding(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Understandings.WithLabelValues(outcome).Inc()
	c.UnderstandingDuration.Observe(d.Seconds())
}

// RecordUserCreated counts a new user.
func (c *Collector) RecordUserCreated() {
	if c == nil {
		return
	}
	c.UsersCreated.Inc()
}

// RecordEvent counts an event publication attempt.
func (c *Collector) RecordEvent(status string) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(status).Inc()
}
