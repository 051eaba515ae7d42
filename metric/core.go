package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core dispatch metrics shared by every host.
type Metrics struct {
	CallsTotal           *prometheus.CounterVec
	CallDuration         *prometheus.HistogramVec
	CanceledInvocations  *prometheus.CounterVec
	LogonsTotal          *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	RegisteredComponents prometheus.Gauge
	EventWirings         prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all dispatch metrics
func NewMetrics() *Metrics {
	return &Metrics{
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zyango",
				Subsystem: "dispatch",
				Name:      "calls_total",
				Help:      "Total number of dispatched calls",
			},
			[]string{"component", "method", "status"},
		),

		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zyango",
				Subsystem: "dispatch",
				Name:      "call_duration_seconds",
				Help:      "Call execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "method"},
		),

		CanceledInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zyango",
				Subsystem: "dispatch",
				Name:      "canceled_invocations_total",
				Help:      "Total number of calls terminated before completion",
			},
			[]string{"component", "method"},
		),

		LogonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zyango",
				Subsystem: "session",
				Name:      "logons_total",
				Help:      "Total number of logon attempts",
			},
			[]string{"status"},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "zyango",
				Subsystem: "session",
				Name:      "active",
				Help:      "Number of live server sessions",
			},
		),

		RegisteredComponents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "zyango",
				Subsystem: "catalog",
				Name:      "registered_components",
				Help:      "Number of components registered in the catalog",
			},
		),

		EventWirings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "zyango",
				Subsystem: "wiring",
				Name:      "event_wirings",
				Help:      "Number of live event wirings on singleton components",
			},
		),
	}
}

// RecordCall increments the call counter for one completed dispatch.
func (c *Metrics) RecordCall(component, method, status string) {
	c.CallsTotal.WithLabelValues(component, method, status).Inc()
}

// RecordCallDuration records one call's execution time.
func (c *Metrics) RecordCallDuration(component, method string, duration time.Duration) {
	c.CallDuration.WithLabelValues(component, method).Observe(duration.Seconds())
}

// RecordCanceledInvocation increments the canceled-invocation counter.
func (c *Metrics) RecordCanceledInvocation(component, method string) {
	c.CanceledInvocations.WithLabelValues(component, method).Inc()
}

// RecordLogon increments the logon counter.
func (c *Metrics) RecordLogon(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	c.LogonsTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions updates the live session gauge.
func (c *Metrics) SetActiveSessions(count int) {
	c.ActiveSessions.Set(float64(count))
}

// SetRegisteredComponents updates the catalog size gauge.
func (c *Metrics) SetRegisteredComponents(count int) {
	c.RegisteredComponents.Set(float64(count))
}

// SetEventWirings updates the live event wiring gauge.
func (c *Metrics) SetEventWirings(count int) {
	c.EventWirings.Set(float64(count))
}
