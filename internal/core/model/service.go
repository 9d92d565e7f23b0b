package model

import (
	"time"
)

// MaxEvents bounds the per-service event log. Older events are discarded.
const MaxEvents = 100

// HeartbeatEvent is a single immutable heartbeat record.
type HeartbeatEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ServiceRecord is the authoritative state for one registered service.
type ServiceRecord struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Status        Status                 `json:"status"`
	LastMessage   string                 `json:"last_message,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	LastHeartbeat *time.Time             `json:"last_heartbeat,omitempty"`
	Events        []HeartbeatEvent       `json:"events,omitempty"`
}

// Clone returns a deep copy of the record. Callers receive clones so the
// registry's internal state can never be mutated from outside.
func (r *ServiceRecord) Clone() *ServiceRecord {
	cp := *r
	if r.LastHeartbeat != nil {
		ts := *r.LastHeartbeat
		cp.LastHeartbeat = &ts
	}
	cp.Metadata = copyMetadata(r.Metadata)
	if r.Events != nil {
		cp.Events = make([]HeartbeatEvent, len(r.Events))
		copy(cp.Events, r.Events)
		for i := range cp.Events {
			cp.Events[i].Metadata = copyMetadata(cp.Events[i].Metadata)
		}
	}
	return &cp
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	if md == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(md))
	for k, v := range md {
		cp[k] = v
	}
	return cp
}

// ServiceRegistration is the payload for registering a service.
type ServiceRegistration struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ServiceRegistrationResponse is returned after a successful registration.
type ServiceRegistrationResponse struct {
	ServiceID    string    `json:"service_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ServiceHeartbeat is the payload for a heartbeat update.
type ServiceHeartbeat struct {
	Status   string                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// MultiServiceStatus is the list response: all records plus a per-status count.
type MultiServiceStatus struct {
	Services []*ServiceRecord `json:"services"`
	Summary  map[Status]int   `json:"summary"`
}

// ErrorRecord captures a collaborator failure for best-effort persistence.
type ErrorRecord struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id,omitempty"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ApiResponse is the generic API envelope.
type ApiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
