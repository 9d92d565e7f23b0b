package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"unknown", "healthy", "busy", "warning", "error", "stale"} {
		status, err := ParseStatus(raw)
		require.NoError(t, err, "status %q is part of the closed set", raw)
		assert.Equal(t, raw, status.String())
		assert.True(t, status.Valid())
	}
}

func TestParseStatusRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "HEALTHY", "ok", "not-a-real-status"} {
		_, err := ParseStatus(raw)
		assert.Error(t, err, "status %q must be rejected", raw)
	}
}

func TestCloneIsolation(t *testing.T) {
	now := time.Now().UTC()
	record := &ServiceRecord{
		ID:            "svc-1",
		Name:          "svc-a",
		Status:        StatusHealthy,
		Metadata:      map[string]interface{}{"region": "eu"},
		LastHeartbeat: &now,
		Events: []HeartbeatEvent{
			{Status: StatusHealthy, Message: "first", Metadata: map[string]interface{}{"k": "v"}},
		},
	}

	clone := record.Clone()
	clone.Metadata["region"] = "us"
	clone.Events[0].Message = "mutated"
	clone.Events[0].Metadata["k"] = "mutated"
	*clone.LastHeartbeat = now.Add(1)

	assert.Equal(t, "eu", record.Metadata["region"])
	assert.Equal(t, "first", record.Events[0].Message)
	assert.Equal(t, "v", record.Events[0].Metadata["k"], "event metadata must be copied, not shared")
	assert.Equal(t, now, *record.LastHeartbeat)
}
