package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RegisterResponse is the registration result.
type RegisterResponse struct {
	ServiceID    string    `json:"service_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ServiceStatus mirrors the server's service record.
type ServiceStatus struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Status        string                 `json:"status"`
	LastMessage   string                 `json:"last_message,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	LastHeartbeat *time.Time             `json:"last_heartbeat,omitempty"`
}

// ServiceList is the list response.
type ServiceList struct {
	Services []ServiceStatus `json:"services"`
	Summary  map[string]int  `json:"summary"`
}

// Register registers the service with the server and stores the returned id.
func (c *Client) Register(ctx context.Context) error {
	c.mu.Lock()
	if c.isRegistered {
		id := c.serviceID
		c.mu.Unlock()
		return fmt.Errorf("service already registered with id %s", id)
	}
	c.mu.Unlock()

	req := RegisterRequest{
		ID:       c.config.ServiceID,
		Name:     c.config.ServiceName,
		Metadata: c.config.Metadata,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/services", req)
	if err != nil {
		return fmt.Errorf("registering service: %w", err)
	}

	var registerResp RegisterResponse
	if err := json.Unmarshal(resp.Data, &registerResp); err != nil {
		return fmt.Errorf("decoding registration response: %w", err)
	}

	c.mu.Lock()
	c.serviceID = registerResp.ServiceID
	c.isRegistered = true
	c.mu.Unlock()

	return nil
}

// GetService fetches the current record for one service.
func (c *Client) GetService(ctx context.Context, serviceID string) (*ServiceStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/services/%s", serviceID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching service: %w", err)
	}

	var status ServiceStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("decoding service response: %w", err)
	}
	return &status, nil
}

// ListServices fetches all records plus the per-status summary.
func (c *Client) ListServices(ctx context.Context) (*ServiceList, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/services", nil)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	var list ServiceList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}
	return &list, nil
}
