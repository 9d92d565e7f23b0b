package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

func decodePayload(t *testing.T, r *http.Request) webhookPayload {
	t.Helper()
	var payload webhookPayload
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload
}

func TestWebhookSendsEmbed(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received = decodePayload(t, r)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	now := time.Now().UTC()
	service := &model.ServiceRecord{
		ID:            "svc-1",
		Name:          "svc-a",
		Status:        model.StatusError,
		LastHeartbeat: &now,
		Metadata: map[string]interface{}{
			"region": "eu",
			"token":  "must-not-leak",
		},
	}

	n := NewWebhookNotifier(server.URL, "", "")
	err := n.SendNotification(context.Background(), "Service Status Changed: svc-a", "Status changed from healthy to error", service, LevelError)
	require.NoError(t, err)

	assert.Equal(t, "LaneWatch Heartbeat Monitor", received.Username)
	require.Len(t, received.Embeds, 1)

	e := received.Embeds[0]
	assert.Equal(t, "Service Status Changed: svc-a", e.Title)
	assert.Equal(t, levelColors[LevelError], e.Color)

	var fieldNames []string
	var metadataValue string
	for _, f := range e.Fields {
		fieldNames = append(fieldNames, f.Name)
		if f.Name == "Metadata" {
			metadataValue = f.Value
		}
	}
	assert.Contains(t, fieldNames, "Service Name")
	assert.Contains(t, fieldNames, "Status")
	assert.Contains(t, fieldNames, "Last Heartbeat")
	assert.Contains(t, metadataValue, "region")
	assert.NotContains(t, metadataValue, "must-not-leak", "sensitive metadata keys are filtered")
}

func TestWebhookLevelColors(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = decodePayload(t, r)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "tester", "")

	for level, color := range levelColors {
		err := n.SendNotification(context.Background(), "t", "m", nil, level)
		require.NoError(t, err)
		require.Len(t, received.Embeds, 1)
		assert.Equal(t, color, received.Embeds[0].Color, "color for level %s", level)
	}
}

func TestWebhookServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "tester", "")
	err := n.SendNotification(context.Background(), "t", "m", nil, LevelInfo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestWebhookMissingURL(t *testing.T) {
	n := NewWebhookNotifier("", "tester", "")
	err := n.SendNotification(context.Background(), "t", "m", nil, LevelInfo)
	assert.Error(t, err)
}
