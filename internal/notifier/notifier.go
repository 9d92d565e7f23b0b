package notifier

import (
	"context"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

// Level classifies a notification for display purposes.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier delivers a human-facing alert for a status transition. Delivery
// is best-effort; the dispatcher contains failures per notifier.
type Notifier interface {
	// SendNotification delivers one notification. The service snapshot may
	// be nil for notifications not tied to a single service.
	SendNotification(ctx context.Context, title, message string, service *model.ServiceRecord, level Level) error
}
