// Package prom contains prometheus metrics exported by kulturkal.
package prom

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Loads counts sheet loads by result ("ok" or "error").
	Loads = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kulturkal_loads_total",
			Help: "Sheet loads by result.",
		},
		[]string{"result"},
	))

	// Diagnostics counts data-quality problems found while loading, by kind.
	Diagnostics = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kulturkal_diagnostics_total",
			Help: "Data-quality diagnostics raised during loads.",
		},
		[]string{"kind"},
	))

	// EventsLoaded is the number of events in the current dataset.
	EventsLoaded = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kulturkal_events_loaded",
		Help: "Events in the currently served dataset.",
	}))

	// Sessions is the number of live viewer sessions.
	Sessions = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kulturkal_sessions",
		Help: "Live viewer sessions.",
	}))

	// Toggles counts filter and order toggles by kind ("filter" or "order").
	Toggles = register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kulturkal_toggles_total",
			Help: "Filter and ordering toggles.",
		},
		[]string{"kind"},
	))
)

// Handler returns a handler that exports metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentHandler decorates an HTTP handler with request metrics labelled
// by name.
func InstrumentHandler(name string, handler http.Handler) http.Handler {
	labels := prometheus.Labels{"handler": name}

	inFlight := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "kulturkal_requests_in_flight",
		Help:        "Number of requests currently being served by the handler.",
		ConstLabels: labels,
	}))
	handler = promhttp.InstrumentHandlerInFlight(inFlight, handler)

	counter := register(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "kulturkal_requests_total",
			Help:        "Total number of requests for the handler.",
			ConstLabels: labels,
		},
		[]string{"code"},
	))
	handler = promhttp.InstrumentHandlerCounter(counter, handler)

	duration := register(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "kulturkal_response_duration_seconds",
			Help:        "A histogram of request latencies.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		},
		[]string{},
	))
	handler = promhttp.InstrumentHandlerDuration(duration, handler)

	responseSize := register(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "kulturkal_response_size_bytes",
			Help:        "A histogram of response sizes.",
			Buckets:     prometheus.ExponentialBuckets(256, 4, 6),
			ConstLabels: labels,
		},
		[]string{},
	))
	handler = promhttp.InstrumentHandlerResponseSize(responseSize, handler)

	return handler
}

// register returns the already registered collector when an identical one
// exists, so servers built repeatedly (tests) share their metrics.
func register[T prometheus.Collector](c T) T {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
		return c
	}
	panic(err)
}
