// Package metrics exposes Prometheus instrumentation for zone supervision.
//
// A Metrics value owns its own registry so tests and embedded deployments
// never collide on the default global registry. It implements
// supervise.Observer and can be fanned in alongside other sinks.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thermosentry/thermosentry/internal/supervise"
)

// Metrics holds the supervision counters and gauges.
type Metrics struct {
	registry *prometheus.Registry

	sessionsTotal     *prometheus.CounterVec
	measurementsTotal *prometheus.CounterVec
	deviationsTotal   *prometheus.CounterVec
	correctionsTotal  *prometheus.CounterVec
	zoneFailuresTotal *prometheus.CounterVec
	lastTemperature   *prometheus.GaugeVec
	lastMeasuredAt    *prometheus.GaugeVec
}

// New builds a Metrics with all collectors registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermosentry_sessions_total",
			Help: "Total device sessions established per zone.",
		}, []string{"zone"}),
		measurementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermosentry_measurements_total",
			Help: "Total measurements recorded per zone.",
		}, []string{"zone"}),
		deviationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermosentry_deviations_total",
			Help: "Total measurements that fell outside the tolerance band.",
		}, []string{"zone"}),
		correctionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermosentry_corrections_total",
			Help: "Total corrective setpoint writes per zone and result.",
		}, []string{"zone", "result"}),
		zoneFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermosentry_zone_failures_total",
			Help: "Total zones that ended supervision with an error.",
		}, []string{"zone"}),
		lastTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermosentry_zone_temperature_fahrenheit",
			Help: "Most recent temperature reading per zone.",
		}, []string{"zone"}),
		lastMeasuredAt: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermosentry_zone_last_measurement_timestamp_seconds",
			Help: "Timestamp of the most recent measurement per zone (epoch seconds).",
		}, []string{"zone"}),
	}

	m.registry.MustRegister(
		m.sessionsTotal,
		m.measurementsTotal,
		m.deviationsTotal,
		m.correctionsTotal,
		m.zoneFailuresTotal,
		m.lastTemperature,
		m.lastMeasuredAt,
	)
	return m
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ZoneFailed records a zone whose supervision ended with an error.
func (m *Metrics) ZoneFailed(zoneKey string) {
	m.zoneFailuresTotal.WithLabelValues(zoneKey).Inc()
}

// SessionStarted implements supervise.Observer.
func (m *Metrics) SessionStarted(zoneKey string, _ supervise.SessionState) {
	m.sessionsTotal.WithLabelValues(zoneKey).Inc()
}

// MeasurementTaken implements supervise.Observer.
func (m *Metrics) MeasurementTaken(zoneKey string, meas supervise.Measurement, deviated bool) {
	m.measurementsTotal.WithLabelValues(zoneKey).Inc()
	if deviated {
		m.deviationsTotal.WithLabelValues(zoneKey).Inc()
	}
	m.lastTemperature.WithLabelValues(zoneKey).Set(meas.Temperature)
	m.lastMeasuredAt.WithLabelValues(zoneKey).Set(float64(meas.Timestamp.UnixNano()) / 1e9)
}

// CorrectionIssued implements supervise.Observer.
func (m *Metrics) CorrectionIssued(zoneKey string, _ float64, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.correctionsTotal.WithLabelValues(zoneKey, result).Inc()
}
