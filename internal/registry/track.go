package registry

import (
	"context"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

// Track runs fn inside a heartbeat-guarded block: the service is marked
// busy on entry, healthy on success, and error (with the failure text) when
// fn returns an error. The error from fn is returned unchanged.
//
// The initial heartbeat must succeed; an unregistered id surfaces as
// ErrServiceNotFound before fn runs.
func Track(ctx context.Context, reg Registry, serviceID string, fn func(context.Context) error) error {
	if _, err := reg.Heartbeat(ctx, serviceID, model.StatusBusy, "task started", nil); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		// fn's error takes precedence over any heartbeat failure here.
		_, _ = reg.Heartbeat(ctx, serviceID, model.StatusError, err.Error(), nil)
		return err
	}

	_, err := reg.Heartbeat(ctx, serviceID, model.StatusHealthy, "task completed", nil)
	return err
}
