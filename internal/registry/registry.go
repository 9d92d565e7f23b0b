package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lanewatch/lanewatch/internal/config"
	"github.com/lanewatch/lanewatch/internal/core/model"
	"github.com/lanewatch/lanewatch/internal/storage"
)

// storageTimeout bounds each best-effort persistence call so a slow
// backend cannot stall heartbeat processing.
const storageTimeout = 5 * time.Second

// Registry is the authoritative in-memory map of monitored services.
type Registry interface {
	// Register creates a record for a new service and returns its id.
	// The id is generated when the registration does not supply one.
	Register(ctx context.Context, reg *model.ServiceRegistration) (string, error)

	// Heartbeat records a status update for a registered service and
	// returns the post-update snapshot.
	Heartbeat(ctx context.Context, serviceID string, status model.Status, message string, metadata map[string]interface{}) (*model.ServiceRecord, error)

	// Get returns a snapshot of one service record.
	Get(ctx context.Context, serviceID string) (*model.ServiceRecord, error)

	// List returns snapshots of all registered services. Order is not
	// guaranteed; callers needing deterministic order must sort.
	List(ctx context.Context) []*model.ServiceRecord
}

// serviceRegistry implements Registry with one lock per record so
// heartbeats for unrelated services never block each other.
type serviceRegistry struct {
	mu       sync.RWMutex
	services map[string]*serviceEntry

	store      storage.Storage // optional
	dispatcher *Dispatcher     // optional
	logger     config.Logger
}

// serviceEntry serializes all mutation of a single record. Storage and
// notification I/O happens outside this lock, against a snapshot.
type serviceEntry struct {
	mu     sync.Mutex
	record model.ServiceRecord
}

// NewRegistry creates a Registry. store and dispatcher may be nil; the
// registry then runs purely in memory without notifications.
func NewRegistry(store storage.Storage, dispatcher *Dispatcher, logger config.Logger) Registry {
	if logger == nil {
		logger = config.NopLogger{}
	}
	return &serviceRegistry{
		services:   make(map[string]*serviceEntry),
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register creates a record for a new service and returns its id.
func (r *serviceRegistry) Register(ctx context.Context, reg *model.ServiceRegistration) (string, error) {
	serviceID := reg.ID
	if serviceID == "" {
		serviceID = uuid.NewString()
	}

	now := time.Now().UTC()
	record := model.ServiceRecord{
		ID:        serviceID,
		Name:      reg.Name,
		Status:    model.StatusUnknown,
		Metadata:  copyMetadata(reg.Metadata),
		CreatedAt: now,
		Events: []model.HeartbeatEvent{{
			Timestamp: now,
			Status:    model.StatusUnknown,
			Message:   "registered",
		}},
	}

	r.mu.Lock()
	if _, exists := r.services[serviceID]; exists {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateService, serviceID)
	}
	entry := &serviceEntry{record: record}
	r.services[serviceID] = entry
	r.mu.Unlock()

	r.logger.Info("service registered",
		zap.String("service_id", serviceID),
		zap.String("name", reg.Name))

	r.persist(ctx, record.Clone())

	return serviceID, nil
}

// Heartbeat records a status update for a registered service.
func (r *serviceRegistry) Heartbeat(ctx context.Context, serviceID string, status model.Status, message string, metadata map[string]interface{}) (*model.ServiceRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	entry, err := r.lookup(serviceID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	previous := entry.record.Status
	now := time.Now().UTC()

	entry.record.Status = status
	entry.record.LastMessage = message
	entry.record.LastHeartbeat = &now
	mergeMetadata(&entry.record, metadata)

	entry.record.Events = append(entry.record.Events, model.HeartbeatEvent{
		Timestamp: now,
		Status:    status,
		Message:   message,
		Metadata:  copyMetadata(metadata),
	})
	if n := len(entry.record.Events); n > model.MaxEvents {
		entry.record.Events = append(entry.record.Events[:0:0], entry.record.Events[n-model.MaxEvents:]...)
	}

	snapshot := entry.record.Clone()
	entry.mu.Unlock()

	r.logger.Debug("heartbeat received",
		zap.String("service_id", serviceID),
		zap.String("status", status.String()),
		zap.String("previous_status", previous.String()))

	r.persist(ctx, snapshot)

	if r.dispatcher != nil {
		r.dispatcher.Dispatch(ctx, snapshot, previous)
	}

	return snapshot, nil
}

// Get returns a snapshot of one service record.
func (r *serviceRegistry) Get(ctx context.Context, serviceID string) (*model.ServiceRecord, error) {
	entry, err := r.lookup(serviceID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	snapshot := entry.record.Clone()
	entry.mu.Unlock()

	return snapshot, nil
}

// List returns snapshots of all registered services.
func (r *serviceRegistry) List(ctx context.Context) []*model.ServiceRecord {
	r.mu.RLock()
	entries := make([]*serviceEntry, 0, len(r.services))
	for _, entry := range r.services {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	records := make([]*model.ServiceRecord, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		records = append(records, entry.record.Clone())
		entry.mu.Unlock()
	}
	return records
}

// lookup resolves a service id to its entry.
func (r *serviceRegistry) lookup(serviceID string) (*serviceEntry, error) {
	r.mu.RLock()
	entry, exists := r.services[serviceID]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, serviceID)
	}
	return entry, nil
}

// persist stores a snapshot best-effort. Failures are logged and contained;
// they never fail the registry operation that triggered them.
//
// persist runs outside the entry lock, so snapshots from concurrent
// heartbeats on one id may reach the store out of order. The in-memory
// record stays authoritative; the store holds a recent full snapshot,
// not necessarily the latest.
func (r *serviceRegistry) persist(ctx context.Context, snapshot *model.ServiceRecord) {
	if r.store == nil {
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	if err := r.store.StoreHeartbeat(storeCtx, snapshot.ID, snapshot); err != nil {
		r.logger.Warn("failed to persist heartbeat",
			zap.String("service_id", snapshot.ID),
			zap.Error(fmt.Errorf("%w: %v", ErrStorageUnavailable, err)))
	}
}

// mergeMetadata shallow-merges new metadata into the record: supplied keys
// overwrite, existing keys are otherwise untouched.
func mergeMetadata(record *model.ServiceRecord, metadata map[string]interface{}) {
	if len(metadata) == 0 {
		return
	}
	if record.Metadata == nil {
		record.Metadata = make(map[string]interface{}, len(metadata))
	}
	for k, v := range metadata {
		record.Metadata[k] = v
	}
}

func copyMetadata(md map[string]interface{}) map[string]interface{} {
	if md == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(md))
	for k, v := range md {
		cp[k] = v
	}
	return cp
}
