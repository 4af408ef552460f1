// Package health tracks the health of PlotStream components and aggregates
// it into a single system status served over HTTP.
package health

import (
	"time"

	"github.com/c360/plotstream/component"
)

// Status represents the health state of a component or system
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy returns true if the status is healthy
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// NewHealthy creates a new healthy status
func NewHealthy(name, message string) Status {
	return Status{
		Component: name,
		Healthy:   true,
		Status:    "healthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates a new unhealthy status
func NewUnhealthy(name, message string) Status {
	return Status{
		Component: name,
		Status:    "unhealthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a new degraded status
func NewDegraded(name, message string) Status {
	return Status{
		Component: name,
		Status:    "degraded",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// FromState maps a component lifecycle state to a health status. A started
// component is healthy, a failed or stopped one unhealthy, and anything
// still working through its lifecycle is degraded.
func FromState(name string, state component.State) Status {
	switch state {
	case component.StateStarted:
		return NewHealthy(name, "running")
	case component.StateFailed:
		return NewUnhealthy(name, "component failed")
	case component.StateStopped:
		return NewUnhealthy(name, "component stopped")
	default:
		return NewDegraded(name, "state: "+state.String())
	}
}

// Aggregate creates a status by aggregating sub-statuses:
// healthy when all sub-statuses are healthy, unhealthy when any is
// unhealthy, degraded otherwise.
func Aggregate(name string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return NewHealthy(name, "No sub-components to aggregate")
	}

	hasUnhealthy := false
	hasDegraded := false
	for _, sub := range subStatuses {
		if sub.IsUnhealthy() {
			hasUnhealthy = true
		} else if sub.IsDegraded() {
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = NewUnhealthy(name, "One or more sub-components are unhealthy")
	case hasDegraded:
		status = NewDegraded(name, "One or more sub-components are degraded")
	default:
		status = NewHealthy(name, "All sub-components are healthy")
	}

	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}
