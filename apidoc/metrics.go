package apidoc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "oasmux"

// Metrics are the Prometheus collectors of one documentation middleware.
type Metrics struct {
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	documentPaths      prometheus.Gauge
	validations        *prometheus.CounterVec
	compilations       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. With a
// nil reg the collectors work but are not exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_generations_total",
			Help:      "Number of document generations by result.",
		}, []string{"result"}),
		generationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "document_generation_duration_seconds",
			Help:      "Time spent walking the router and building the document.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		documentPaths: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "document_paths",
			Help:      "Number of paths in the last generated document.",
		}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "request_validations_total",
			Help:      "Number of validated requests by outcome.",
		}, []string{"outcome"}),
		compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validator_compilations_total",
			Help:      "Number of request validator compilations by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeGeneration(start time.Time, paths int, err error) {
	m.generationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.generations.WithLabelValues("error").Inc()
		return
	}
	m.generations.WithLabelValues("success").Inc()
	m.documentPaths.Set(float64(paths))
}

func (m *Metrics) observeValidation(outcome string) {
	m.validations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeCompile(err error) {
	if err != nil {
		m.compilations.WithLabelValues("error").Inc()
		return
	}
	m.compilations.WithLabelValues("success").Inc()
}
