package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_UpdateAndGet(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("catalog", "5 components registered")

	status, ok := monitor.Get("catalog")
	require.True(t, ok)
	assert.Equal(t, "catalog", status.Name)
	assert.True(t, status.IsHealthy())
	assert.False(t, status.Timestamp.IsZero())
}

func TestMonitor_SnapshotOrdered(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("sessions", "12 active")
	monitor.UpdateDegraded("catalog", "disposal in progress")

	snapshot := monitor.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "catalog", snapshot[0].Name)
	assert.Equal(t, "sessions", snapshot[1].Name)
}

func TestMonitor_AggregateHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]Status
		want     State
	}{
		{
			name:     "empty monitor is healthy",
			statuses: nil,
			want:     StateHealthy,
		},
		{
			name: "all healthy",
			statuses: map[string]Status{
				"catalog":  NewHealthy("catalog", "ok"),
				"sessions": NewHealthy("sessions", "ok"),
			},
			want: StateHealthy,
		},
		{
			name: "one degraded",
			statuses: map[string]Status{
				"catalog":  NewHealthy("catalog", "ok"),
				"sessions": NewDegraded("sessions", "sweep running behind"),
			},
			want: StateDegraded,
		},
		{
			name: "unhealthy dominates degraded",
			statuses: map[string]Status{
				"catalog":  NewUnhealthy("catalog", "disposed"),
				"sessions": NewDegraded("sessions", "sweep running behind"),
			},
			want: StateUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewMonitor()
			for name, status := range tt.statuses {
				monitor.Update(name, status)
			}

			aggregate := monitor.AggregateHealth("host")
			assert.Equal(t, tt.want, aggregate.State)
			assert.Len(t, aggregate.SubStatuses, len(tt.statuses))
		})
	}
}

func TestMonitor_Remove(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("catalog", "ok")
	monitor.Remove("catalog")

	_, ok := monitor.Get("catalog")
	assert.False(t, ok)
	assert.Equal(t, 0, monitor.Count())
}
