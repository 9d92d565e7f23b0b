package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lanewatch/lanewatch/internal/config"
	"github.com/lanewatch/lanewatch/internal/core/model"
)

// Monitor runs the stale-detection sweep: a single recurring background
// task that demotes services to stale when they stop reporting.
//
// The handle is either absent (stopped) or present (running); Start and
// Stop move between exactly those two states and are both idempotent.
type Monitor struct {
	registry       Registry
	checkInterval  time.Duration
	staleThreshold time.Duration
	logger         config.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a Monitor. It must be started with Start.
func NewMonitor(reg Registry, checkInterval, staleThreshold time.Duration, logger config.Logger) *Monitor {
	if logger == nil {
		logger = config.NopLogger{}
	}
	return &Monitor{
		registry:       reg,
		checkInterval:  checkInterval,
		staleThreshold: staleThreshold,
		logger:         logger,
	}
}

// Start launches the sweep loop. Calling Start while already running is a
// no-op; after Stop, Start creates a fresh loop.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	m.logger.Info("stale-detection monitor started",
		zap.Duration("check_interval", m.checkInterval),
		zap.Duration("stale_threshold", m.staleThreshold))

	go m.run(ctx, done)
}

// Stop cancels the sweep loop and waits for it to exit. Calling Stop when
// not running is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return
	}
	m.cancel()
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	<-done
	m.logger.Info("stale-detection monitor stopped")
}

// Running reports whether the sweep loop is currently active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// run executes the sweep loop until the context is cancelled.
func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick performs one sweep. Any panic is recovered and logged; a failing
// tick degrades to a no-op rather than killing the loop.
func (m *Monitor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("stale sweep panicked", zap.Any("panic", r))
		}
	}()
	m.sweep(ctx)
}

// sweep flags every overdue service as stale through the normal heartbeat
// path, so stale transitions get the same event and notification handling
// as any other status change. Services that never sent a heartbeat are
// exempt. Because the stale heartbeat refreshes the last-heartbeat time, a
// silent service is flagged once per missed window rather than every tick.
func (m *Monitor) sweep(ctx context.Context) {
	now := time.Now().UTC()

	for _, record := range m.registry.List(ctx) {
		if record.LastHeartbeat == nil || record.Status == model.StatusStale {
			continue
		}

		elapsed := now.Sub(*record.LastHeartbeat)
		if elapsed <= m.staleThreshold {
			continue
		}

		message := fmt.Sprintf("No heartbeat received in %.0fs", elapsed.Seconds())
		if _, err := m.registry.Heartbeat(ctx, record.ID, model.StatusStale, message, nil); err != nil {
			m.logger.Warn("failed to flag stale service",
				zap.String("service_id", record.ID),
				zap.Error(err))
			continue
		}

		m.logger.Info("service flagged stale",
			zap.String("service_id", record.ID),
			zap.String("name", record.Name),
			zap.Duration("silent_for", elapsed))
	}
}
