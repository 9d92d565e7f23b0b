// Package sdk is the Go client for the lanewatch heartbeat API. Services
// embed it to register themselves and report status periodically.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Config holds the client settings.
type Config struct {
	// ServerAddr is the host:port of the lanewatch API.
	ServerAddr string `json:"server_addr"`
	// ServiceName is the human-readable name to register under.
	ServiceName string `json:"service_name"`
	// ServiceID optionally fixes the service id; the server generates one
	// when empty.
	ServiceID string `json:"service_id,omitempty"`
	// Metadata is attached to the registration.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	// HeartbeatInterval is the period of the background heartbeat loop.
	HeartbeatInterval time.Duration `json:"heartbeat_interval"`
	// Timeout bounds each API call.
	Timeout time.Duration `json:"timeout"`
	// Secure selects https.
	Secure bool `json:"secure"`
}

// Client talks to the lanewatch API.
type Client struct {
	config     *Config
	httpClient *http.Client

	mu           sync.Mutex
	serviceID    string
	isRegistered bool
	stopChan     chan struct{}
}

// Response is the API envelope.
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewClient creates a client from config.
func NewClient(config *Config) (*Client, error) {
	if config.ServerAddr == "" {
		return nil, fmt.Errorf("server address is required")
	}
	if config.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = 30 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// SetServiceID fixes the id to request at registration. Must be called
// before Register.
func (c *Client) SetServiceID(serviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.ServiceID = serviceID
}

// ServiceID returns the id assigned at registration, or empty before it.
func (c *Client) ServiceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serviceID
}

func (c *Client) buildURL(path string) string {
	protocol := "http"
	if c.config.Secure {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s%s", protocol, c.config.ServerAddr, path)
}

// doRequest performs one API call and decodes the envelope.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	url := c.buildURL(path)

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiResp, fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiResp.Message)
	}

	return &apiResp, nil
}

// Close stops the heartbeat loop.
func (c *Client) Close() {
	c.StopHeartbeat()
}
