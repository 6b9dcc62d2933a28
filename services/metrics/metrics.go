// Package metrics exposes the Prometheus counters of the BFF.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/schoolhub/core/compare"
)

const namespace = "schoolhub"

type Metrics struct {
	registry         *prometheus.Registry
	compareEvents    *prometheus.CounterVec
	compareSize      prometheus.Histogram
	directoryOutcome *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		compareEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compare_events_total",
			Help:      "Comparison list events by kind.",
		}, []string{"event"}),
		compareSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compare_list_size",
			Help:      "Size of the comparison list after each change.",
			Buckets:   prometheus.LinearBuckets(0, 1, compare.MaxItems+1),
		}),
		directoryOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_requests_total",
			Help:      "Requests to the directory API by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.compareEvents,
		m.compareSize,
		m.directoryOutcome,
	)
	return m
}

// CompareListener counts the events of a compare.Store.
func (m *Metrics) CompareListener() compare.Listener {
	return func(evt compare.Event) {
		m.compareEvents.WithLabelValues(string(evt.Kind)).Inc()
		if evt.Kind != compare.EventLimitReached {
			m.compareSize.Observe(float64(len(evt.Items)))
		}
	}
}

// ObserveDirectoryRequest counts one directory request.
func (m *Metrics) ObserveDirectoryRequest(outcome string) {
	m.directoryOutcome.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
