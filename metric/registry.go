// Package metric manages prometheus metric registration for the flowgroup
// engine. A single MetricsRegistry is created at startup and shared by every
// subsystem; per-subsystem registration is namespaced and duplicate
// registrations are rejected.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/flowgroup/errors"
)

// MetricsRegistrar defines the interface for registering subsystem metrics
type MetricsRegistrar interface {
	RegisterCounterVec(subsystem, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGauge(subsystem, metricName string, gauge prometheus.Gauge) error
	RegisterHistogramVec(subsystem, metricName string, histogramVec *prometheus.HistogramVec) error
	Unregister(subsystem, metricName string) bool
}

// MetricsRegistry manages the registration and lifecycle of metrics
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with Go runtime metrics
func NewMetricsRegistry() *MetricsRegistry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &MetricsRegistry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

func (r *MetricsRegistry) register(subsystem, metricName, kind string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", subsystem, metricName)
	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for subsystem %s", metricName, subsystem),
			"MetricsRegistry", kind, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "MetricsRegistry", kind,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "MetricsRegistry", kind, "prometheus registration")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// RegisterCounterVec registers a counter vector for a subsystem
func (r *MetricsRegistry) RegisterCounterVec(subsystem, metricName string, counterVec *prometheus.CounterVec) error {
	return r.register(subsystem, metricName, "RegisterCounterVec", counterVec)
}

// RegisterGauge registers a gauge for a subsystem
func (r *MetricsRegistry) RegisterGauge(subsystem, metricName string, gauge prometheus.Gauge) error {
	return r.register(subsystem, metricName, "RegisterGauge", gauge)
}

// RegisterHistogramVec registers a histogram vector for a subsystem
func (r *MetricsRegistry) RegisterHistogramVec(subsystem, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.register(subsystem, metricName, "RegisterHistogramVec", histogramVec)
}

// Unregister removes a previously registered metric. Returns false when the
// metric was never registered.
func (r *MetricsRegistry) Unregister(subsystem, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", subsystem, metricName)
	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	r.prometheusRegistry.Unregister(collector)
	delete(r.registeredMetrics, key)
	return true
}
