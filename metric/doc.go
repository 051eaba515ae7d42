// Package metric provides Prometheus instrumentation for the component
// host: core dispatch metrics (call counts, durations, cancellations,
// session and wiring gauges), a registry for host-scoped custom metrics,
// and an optional HTTP exposition server.
package metric
