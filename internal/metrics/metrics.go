// Package metrics exposes Prometheus instrumentation for the delivery
// pipeline. Components take the Recorder interface so tests run with Noop.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder captures the counters the pipeline emits.
type Recorder interface {
	IncRequest(route, status string)
	IncGeneration(status string) // "hit" | "generated" | "failed"
	ObserveGenerationSeconds(seconds float64)
	IncPresignFailure()
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) IncRequest(string, string)        {}
func (Noop) IncGeneration(string)             {}
func (Noop) ObserveGenerationSeconds(float64) {}
func (Noop) IncPresignFailure()               {}

// Prom implements Recorder backed by Prometheus collectors.
type Prom struct {
	requests        *prometheus.CounterVec
	generations     *prometheus.CounterVec
	generationSecs  prometheus.Histogram
	presignFailures prometheus.Counter
	once            sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Artifact lookups by outcome (hit, generated, failed)",
		}, []string{"status"}),
		generationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Wall time of download + transcode + publish",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		presignFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presign_failures_total",
			Help:      "Per-key presign failures (key dropped from response)",
		}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.requests, p.generations, p.generationSecs, p.presignFailures)
	})
}

func (p *Prom) IncRequest(route, status string) {
	p.requests.WithLabelValues(route, status).Inc()
}

func (p *Prom) IncGeneration(status string) {
	p.generations.WithLabelValues(status).Inc()
}

func (p *Prom) ObserveGenerationSeconds(seconds float64) {
	p.generationSecs.Observe(seconds)
}

func (p *Prom) IncPresignFailure() {
	p.presignFailures.Inc()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
