package model

import "fmt"

// Status is the health state reported for a service.
type Status string

const (
	// StatusUnknown is the initial state of a freshly registered service.
	StatusUnknown Status = "unknown"
	// StatusHealthy indicates the service is operating normally.
	StatusHealthy Status = "healthy"
	// StatusBusy indicates the service is alive but occupied with work.
	StatusBusy Status = "busy"
	// StatusWarning indicates a degraded but functioning service.
	StatusWarning Status = "warning"
	// StatusError indicates the service reported a failure.
	StatusError Status = "error"
	// StatusStale indicates no heartbeat was received within the stale threshold.
	StatusStale Status = "stale"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusHealthy, StatusBusy, StatusWarning, StatusError, StatusStale:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a Status, rejecting values
// outside the closed set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unrecognized status %q", raw)
	}
	return s, nil
}
