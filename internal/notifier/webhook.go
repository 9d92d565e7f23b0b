package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

// Discord-style embed colors per notification level.
var levelColors = map[Level]int{
	LevelInfo:    0x3498db,
	LevelSuccess: 0x2ecc71,
	LevelWarning: 0xf39c12,
	LevelError:   0xe74c3c,
}

// metadata keys never forwarded to the webhook.
var sensitiveMetadataKeys = map[string]struct{}{
	"password": {},
	"token":    {},
	"secret":   {},
	"key":      {},
}

// WebhookNotifier delivers notifications to a Discord-compatible webhook
// as embed payloads.
type WebhookNotifier struct {
	webhookURL string
	username   string
	avatarURL  string
	httpClient *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier. username defaults to
// "LaneWatch Heartbeat Monitor" when empty.
func NewWebhookNotifier(webhookURL, username, avatarURL string) *WebhookNotifier {
	if username == "" {
		username = "LaneWatch Heartbeat Monitor"
	}
	return &WebhookNotifier{
		webhookURL: webhookURL,
		username:   username,
		avatarURL:  avatarURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields,omitempty"`
}

type webhookPayload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

// SendNotification posts one embed to the webhook.
func (w *WebhookNotifier) SendNotification(ctx context.Context, title, message string, service *model.ServiceRecord, level Level) error {
	if w.webhookURL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	color, ok := levelColors[level]
	if !ok {
		color = levelColors[LevelInfo]
	}

	e := embed{
		Title:       title,
		Description: message,
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if service != nil {
		e.Fields = serviceFields(service)
	}

	payload := webhookPayload{
		Username:  w.username,
		AvatarURL: w.avatarURL,
		Embeds:    []embed{e},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// serviceFields builds the embed fields for a service snapshot.
func serviceFields(service *model.ServiceRecord) []embedField {
	fields := []embedField{
		{Name: "Service Name", Value: service.Name, Inline: true},
		{Name: "Status", Value: service.Status.String(), Inline: true},
	}

	if service.LastHeartbeat != nil {
		fields = append(fields, embedField{
			Name:   "Last Heartbeat",
			Value:  service.LastHeartbeat.UTC().Format("2006-01-02 15:04:05 UTC"),
			Inline: true,
		})
	}

	if len(service.Metadata) > 0 {
		var buf bytes.Buffer
		for k, v := range service.Metadata {
			if _, sensitive := sensitiveMetadataKeys[k]; sensitive {
				continue
			}
			fmt.Fprintf(&buf, "**%s**: %v\n", k, v)
		}
		if buf.Len() > 0 {
			fields = append(fields, embedField{
				Name:  "Metadata",
				Value: buf.String(),
			})
		}
	}

	return fields
}
