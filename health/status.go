package health

import (
	"time"
)

// State is the health classification of one monitored part.
type State string

// Health states, ordered from best to worst.
const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

// Status represents the health of one component or of the whole host.
type Status struct {
	Name        string    `json:"name"`
	State       State     `json:"state"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
	Details     *Details  `json:"details,omitempty"`
}

// Details carries component-level counters alongside the classification.
type Details struct {
	Activation       string    `json:"activation,omitempty"`
	SingletonCreated bool      `json:"singleton_created,omitempty"`
	EventWirings     int       `json:"event_wirings,omitempty"`
	ActiveSessions   int       `json:"active_sessions,omitempty"`
	LastActivity     time.Time `json:"last_activity,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.State == StateHealthy
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.State == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.State == StateUnhealthy
}

// WithDetails returns a copy of the status with details attached
func (s Status) WithDetails(details *Details) Status {
	s.Details = details
	return s
}

// NewHealthy creates a new healthy status
func NewHealthy(name, message string) Status {
	return Status{
		Name:      name,
		State:     StateHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a new degraded status
func NewDegraded(name, message string) Status {
	return Status{
		Name:      name,
		State:     StateDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(name, message string) Status {
	return Status{
		Name:      name,
		State:     StateUnhealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Aggregate rolls sub-statuses up into one status. Any unhealthy part
// makes the aggregate unhealthy; otherwise any degraded part makes it
// degraded.
func Aggregate(name string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(name, "No monitored parts")
	}

	hasUnhealthy := false
	hasDegraded := false
	for _, sub := range subStatuses {
		switch sub.State {
		case StateUnhealthy:
			hasUnhealthy = true
		case StateDegraded:
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(name, "One or more parts are unhealthy")
	case hasDegraded:
		status = NewDegraded(name, "One or more parts are degraded")
	default:
		status = NewHealthy(name, "All parts are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}
