// Package metrics collects and exposes Prometheus metrics for the
// generation pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what call sites hold; tests pass a Collector backed by a
// private registry.
type Recorder interface {
	RecordGenerationSuccess(provider string)
	RecordGenerationFailure(stage string)
	RecordGenerationDuration(d time.Duration)
	RecordProviderFallback(operation, failedAdapter string)
	RecordArtworkGenerated(provider string)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

type Collector struct {
	generationSuccess  *prometheus.CounterVec
	generationFailure  *prometheus.CounterVec
	generationDuration prometheus.Histogram
	providerFallback   *prometheus.CounterVec
	artworkGenerated   *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generationSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunetools_generation_success_total",
			Help: "Songs generated successfully, by winning LLM provider",
		}, []string{"provider"}),
		generationFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunetools_generation_failure_total",
			Help: "Song generations failed, by pipeline stage",
		}, []string{"stage"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "tunetools_generation_duration_seconds",
			Help: "End-to-end song generation duration in seconds",
			// Synthesis dominates and runs for minutes
			Buckets: []float64{30, 60, 120, 300, 480, 600, 780, 900},
		}),
		providerFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunetools_provider_fallback_total",
			Help: "Provider-chain adapters that failed and fell through",
		}, []string{"operation", "adapter"}),
		artworkGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunetools_artwork_generated_total",
			Help: "Weekly album artwork generated, by image provider",
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tunetools_http_requests_total",
			Help: "HTTP requests served, by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunetools_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.generationSuccess,
		c.generationFailure,
		c.generationDuration,
		c.providerFallback,
		c.artworkGenerated,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordGenerationSuccess(provider string) {
	c.generationSuccess.WithLabelValues(provider).Inc()
}

func (c *Collector) RecordGenerationFailure(stage string) {
	c.generationFailure.WithLabelValues(stage).Inc()
}

func (c *Collector) RecordGenerationDuration(d time.Duration) {
	c.generationDuration.Observe(d.Seconds())
}

func (c *Collector) RecordProviderFallback(operation, failedAdapter string) {
	c.providerFallback.WithLabelValues(operation, failedAdapter).Inc()
}

func (c *Collector) RecordArtworkGenerated(provider string) {
	c.artworkGenerated.WithLabelValues(provider).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler returns the Prometheus scrape handler for the registry
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
