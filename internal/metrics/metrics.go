// Package metrics exposes Prometheus instrumentation on a private registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "worktime"

// Metrics holds all collectors for the WorkTime server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store metrics.
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	// Domain metrics.
	ClockEventsTotal     *prometheus.CounterVec
	SwapTransitionsTotal *prometheus.CounterVec
	LoginsTotal          *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		StoreOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of document store operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"backend", "operation"}),

		StoreErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed document store operations.",
		}, []string{"backend", "operation"}),

		ClockEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clock_events_total",
			Help:      "Total number of successful clock-ins and clock-outs.",
		}, []string{"event"}),

		SwapTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_transitions_total",
			Help:      "Total number of swap requests entering each status.",
		}, []string{"status"}),

		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts by outcome.",
		}, []string{"outcome"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_start_time_seconds",
			Help:      "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.ClockEventsTotal,
		m.SwapTransitionsTotal,
		m.LoginsTotal,
		m.ServerStartTime,
	)
	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(backend, operation string, d time.Duration, err error) {
	m.StoreOperationDuration.WithLabelValues(backend, operation).Observe(d.Seconds())
	if err != nil {
		m.StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
	}
}

// ClockIn counts a successful clock-in.
func (m *Metrics) ClockIn() {
	m.ClockEventsTotal.WithLabelValues("clock_in").Inc()
}

// ClockOut counts a successful clock-out.
func (m *Metrics) ClockOut() {
	m.ClockEventsTotal.WithLabelValues("clock_out").Inc()
}

// SwapTransition counts a swap entering status.
func (m *Metrics) SwapTransition(status string) {
	m.SwapTransitionsTotal.WithLabelValues(status).Inc()
}

// Login counts a login attempt with its outcome.
func (m *Metrics) Login(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}
