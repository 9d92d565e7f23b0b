package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lanewatch/lanewatch/internal/config"
	"github.com/lanewatch/lanewatch/internal/core/model"
	"github.com/lanewatch/lanewatch/internal/notifier"
	"github.com/lanewatch/lanewatch/internal/storage"
)

// notifyTimeout bounds each notifier call so a slow webhook cannot stall
// heartbeat processing or the stale sweep.
const notifyTimeout = 10 * time.Second

// Dispatcher decides whether a status change warrants notification and
// fans out to the configured notifiers.
type Dispatcher struct {
	notifiers []notifier.Notifier
	store     storage.Storage // optional, for recording delivery failures
	logger    config.Logger
}

// NewDispatcher creates a Dispatcher. store may be nil.
func NewDispatcher(notifiers []notifier.Notifier, store storage.Storage, logger config.Logger) *Dispatcher {
	if logger == nil {
		logger = config.NopLogger{}
	}
	return &Dispatcher{
		notifiers: notifiers,
		store:     store,
		logger:    logger,
	}
}

// Dispatch notifies all configured notifiers about a status transition.
// Every transition is notified except healthy staying healthy. A notifier
// failure is contained: logged, recorded best-effort, and never allowed to
// block the remaining notifiers or the calling heartbeat.
func (d *Dispatcher) Dispatch(ctx context.Context, record *model.ServiceRecord, previous model.Status) {
	if !shouldNotify(previous, record.Status) {
		return
	}

	title := fmt.Sprintf("Service Status Changed: %s", record.Name)
	message := fmt.Sprintf("Status changed from %s to %s", previous, record.Status)
	if record.LastMessage != "" {
		message = fmt.Sprintf("%s: %s", message, record.LastMessage)
	}
	level := levelFor(record.Status)

	for _, n := range d.notifiers {
		notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		err := n.SendNotification(notifyCtx, title, message, record, level)
		cancel()
		if err == nil {
			continue
		}

		d.logger.Warn("notification delivery failed",
			zap.String("service_id", record.ID),
			zap.String("service_name", record.Name),
			zap.Error(fmt.Errorf("%w: %v", ErrNotifier, err)))
		d.recordFailure(ctx, record.ID, err)
	}
}

// recordFailure persists a notifier failure best-effort.
func (d *Dispatcher) recordFailure(ctx context.Context, serviceID string, notifyErr error) {
	if d.store == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	errRecord := &model.ErrorRecord{
		ID:        uuid.NewString(),
		ServiceID: serviceID,
		Source:    "notifier",
		Message:   notifyErr.Error(),
		Timestamp: time.Now().UTC(),
	}
	if err := d.store.StoreError(storeCtx, errRecord); err != nil {
		d.logger.Warn("failed to record notifier error",
			zap.String("service_id", serviceID),
			zap.Error(err))
	}
}

// shouldNotify reports whether a transition from previous to current
// warrants notification. Only the degenerate healthy-to-healthy case is
// skipped among changes; unchanged statuses never notify.
func shouldNotify(previous, current model.Status) bool {
	if current == previous {
		return false
	}
	if previous == model.StatusHealthy && current == model.StatusHealthy {
		return false
	}
	return true
}

// levelFor derives the notification level from the new status.
func levelFor(status model.Status) notifier.Level {
	switch status {
	case model.StatusHealthy:
		return notifier.LevelSuccess
	case model.StatusError, model.StatusStale:
		return notifier.LevelError
	default:
		return notifier.LevelWarning
	}
}
