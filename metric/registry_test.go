package metric

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestRegistry_CoreMetricsGathered(t *testing.T) {
	registry := NewRegistry()

	registry.CoreMetrics().RecordCall("calculator", "AddNumbers", "ok")
	registry.CoreMetrics().RecordCallDuration("calculator", "AddNumbers", 15*time.Millisecond)
	registry.CoreMetrics().SetActiveSessions(3)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range metricFamilies {
		names[mf.GetName()] = true
	}
	assert.True(t, names["zyango_dispatch_calls_total"])
	assert.True(t, names["zyango_dispatch_call_duration_seconds"])
	assert.True(t, names["zyango_session_active"])
}

func TestRegistry_RegisterCounter(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Messages sent through the chat component",
	})

	err := registry.RegisterCounter("chat", "chat_messages_total", counter)
	require.NoError(t, err)

	counter.Inc()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "chat_messages_total" {
			found = true
			break
		}
	}
	assert.True(t, found, "Counter should be registered in Prometheus registry")
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_rooms",
		Help: "Open chat rooms",
	})

	err := registry.RegisterGauge("chat", "chat_rooms", gauge)
	require.NoError(t, err)

	other := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_rooms_other",
		Help: "Another gauge under the same key",
	})
	err = registry.RegisterGauge("chat", "chat_rooms", other)
	assert.Error(t, err, "Duplicate key should be rejected")
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_joins_total",
		Help: "Room joins",
	})
	require.NoError(t, registry.RegisterCounter("chat", "chat_joins_total", counter))

	assert.True(t, registry.Unregister("chat", "chat_joins_total"))
	assert.False(t, registry.Unregister("chat", "chat_joins_total"),
		"Second unregister should report the metric as gone")
}

func TestRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: "shared_counter",
				Help: "Counter registered by many goroutines",
			})
			errs[n] = registry.RegisterCounter("shared", "shared_counter", counter)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "Exactly one registration should win")
}
