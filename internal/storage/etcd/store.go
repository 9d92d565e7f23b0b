// Package etcd implements the storage.Storage interface on top of etcd.
// Heartbeat snapshots live under <prefix>/heartbeats/<service-id> and
// error records under <prefix>/errors/<error-id>, both as JSON documents.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

const (
	heartbeatSegment = "/heartbeats/"
	errorSegment     = "/errors/"
)

// Store persists heartbeat snapshots and error records in etcd.
type Store struct {
	client      *Client
	prefix      string
	snapshotTTL time.Duration
}

// NewStore creates a Store using the given client. prefix defaults to
// "/lanewatch" when empty. A positive snapshotTTL attaches a lease to each
// heartbeat snapshot, so snapshots of services that stop reporting expire
// out of etcd; zero keeps snapshots until overwritten.
func NewStore(client *Client, prefix string, snapshotTTL time.Duration) *Store {
	if prefix == "" {
		prefix = "/lanewatch"
	}
	return &Store{
		client:      client,
		prefix:      strings.TrimSuffix(prefix, "/"),
		snapshotTTL: snapshotTTL,
	}
}

// Connect verifies the etcd connection.
func (s *Store) Connect(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to etcd: %w", err)
	}
	return nil
}

// StoreHeartbeat persists the post-update snapshot of a service record,
// replacing any previous snapshot for the same id.
func (s *Store) StoreHeartbeat(ctx context.Context, serviceID string, record *model.ServiceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding heartbeat snapshot: %w", err)
	}

	if s.snapshotTTL > 0 {
		err = s.client.PutWithLease(ctx, s.heartbeatKey(serviceID), data, s.snapshotTTL)
	} else {
		err = s.client.Put(ctx, s.heartbeatKey(serviceID), data)
	}
	if err != nil {
		return fmt.Errorf("storing heartbeat snapshot: %w", err)
	}
	return nil
}

// GetHeartbeat fetches the stored snapshot for one service. A missing
// snapshot returns nil without error.
func (s *Store) GetHeartbeat(ctx context.Context, serviceID string) (*model.ServiceRecord, error) {
	data, err := s.client.Get(ctx, s.heartbeatKey(serviceID))
	if err != nil {
		return nil, fmt.Errorf("fetching heartbeat snapshot: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var record model.ServiceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding heartbeat snapshot: %w", err)
	}
	return &record, nil
}

// ListHeartbeats fetches all stored snapshots keyed by service id.
func (s *Store) ListHeartbeats(ctx context.Context) (map[string]*model.ServiceRecord, error) {
	kvs, err := s.client.GetWithPrefix(ctx, s.prefix+heartbeatSegment)
	if err != nil {
		return nil, fmt.Errorf("listing heartbeat snapshots: %w", err)
	}

	records := make(map[string]*model.ServiceRecord, len(kvs))
	for key, data := range kvs {
		var record model.ServiceRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("decoding heartbeat snapshot [%s]: %w", key, err)
		}
		records[record.ID] = &record
	}
	return records, nil
}

// StoreError appends a collaborator failure record.
func (s *Store) StoreError(ctx context.Context, errRecord *model.ErrorRecord) error {
	data, err := json.Marshal(errRecord)
	if err != nil {
		return fmt.Errorf("encoding error record: %w", err)
	}

	if err := s.client.Put(ctx, s.errorKey(errRecord.ID), data); err != nil {
		return fmt.Errorf("storing error record: %w", err)
	}
	return nil
}

// Close closes the underlying etcd client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) heartbeatKey(serviceID string) string {
	return s.prefix + heartbeatSegment + serviceID
}

func (s *Store) errorKey(errorID string) string {
	return s.prefix + errorSegment + errorID
}
