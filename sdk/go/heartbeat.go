package sdk

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// HeartbeatRequest is the heartbeat payload.
type HeartbeatRequest struct {
	Status   string                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SendHeartbeat reports a status update for the registered service.
func (c *Client) SendHeartbeat(ctx context.Context, status, message string, metadata map[string]interface{}) error {
	c.mu.Lock()
	registered := c.isRegistered
	serviceID := c.serviceID
	c.mu.Unlock()

	if !registered {
		return fmt.Errorf("service not registered")
	}

	req := HeartbeatRequest{
		Status:   status,
		Message:  message,
		Metadata: metadata,
	}
	if _, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/services/%s/heartbeat", serviceID), req); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	return nil
}

// SendHeartbeatFor reports a status update for an explicit service id,
// without requiring this client to have registered it.
func (c *Client) SendHeartbeatFor(ctx context.Context, serviceID, status, message string, metadata map[string]interface{}) error {
	req := HeartbeatRequest{
		Status:   status,
		Message:  message,
		Metadata: metadata,
	}
	if _, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/services/%s/heartbeat", serviceID), req); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	return nil
}

// StartHeartbeat launches a background loop that reports a healthy status
// every HeartbeatInterval until StopHeartbeat is called. A failed send is
// logged and retried on the next tick.
func (c *Client) StartHeartbeat() {
	c.StopHeartbeat()

	c.mu.Lock()
	stopChan := make(chan struct{})
	c.stopChan = stopChan
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.config.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
				if err := c.SendHeartbeat(ctx, "healthy", "", nil); err != nil {
					log.Printf("heartbeat send failed, retrying next tick: %v", err)
				}
				cancel()
			case <-stopChan:
				return
			}
		}
	}()
}

// StopHeartbeat stops the background loop. Safe to call when not running.
func (c *Client) StopHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopChan != nil {
		close(c.stopChan)
		c.stopChan = nil
	}
}
