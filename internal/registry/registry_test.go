package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

func newTestRegistry() Registry {
	return NewRegistry(nil, nil, nil)
}

func TestRegisterGeneratesUniqueIDs(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	idA, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)
	idB, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-b"})
	require.NoError(t, err)

	assert.NotEmpty(t, idA)
	assert.NotEmpty(t, idB)
	assert.NotEqual(t, idA, idB, "auto-generated ids must be unique")
}

func TestRegisterInitialState(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{
		Name:     "svc-a",
		Metadata: map[string]interface{}{"region": "eu"},
	})
	require.NoError(t, err)

	record, err := reg.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, model.StatusUnknown, record.Status)
	assert.Nil(t, record.LastHeartbeat, "last heartbeat must be unset before the first heartbeat")
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, "eu", record.Metadata["region"])

	require.Len(t, record.Events, 1)
	assert.Equal(t, model.StatusUnknown, record.Events[0].Status)
	assert.Equal(t, "registered", record.Events[0].Message)
}

func TestRegisterWithExplicitID(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{ID: "fixed-1", Name: "svc-a"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-1", id)

	_, err = reg.Register(ctx, &model.ServiceRegistration{ID: "fixed-1", Name: "svc-b"})
	assert.ErrorIs(t, err, ErrDuplicateService)
}

func TestHeartbeatUpdatesStatusAndEvents(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	record, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "all good", nil)
	require.NoError(t, err)

	assert.Equal(t, model.StatusHealthy, record.Status)
	assert.Equal(t, "all good", record.LastMessage)
	require.NotNil(t, record.LastHeartbeat)

	last := record.Events[len(record.Events)-1]
	assert.Equal(t, model.StatusHealthy, last.Status, "status must equal the last appended event's status")
	assert.Equal(t, "all good", last.Message)
}

func TestHeartbeatUnknownService(t *testing.T) {
	reg := newTestRegistry()

	for _, status := range []model.Status{model.StatusHealthy, model.StatusError, model.StatusStale} {
		_, err := reg.Heartbeat(context.Background(), "no-such-id", status, "", nil)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	}
}

func TestHeartbeatInvalidStatus(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{ID: "fixed-1", Name: "svc-a"})
	require.NoError(t, err)

	_, err = reg.Heartbeat(ctx, id, model.Status("not-a-real-status"), "", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// The rejection must happen before any event is appended.
	record, err := reg.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, record.Events, 1)
	assert.Equal(t, model.StatusUnknown, record.Status)
}

func TestHeartbeatMergesMetadata(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{
		Name:     "svc-a",
		Metadata: map[string]interface{}{"region": "eu", "tier": "gold"},
	})
	require.NoError(t, err)

	record, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "", map[string]interface{}{
		"tier":    "silver",
		"version": "1.2.0",
	})
	require.NoError(t, err)

	assert.Equal(t, "eu", record.Metadata["region"], "untouched keys survive")
	assert.Equal(t, "silver", record.Metadata["tier"], "supplied keys overwrite")
	assert.Equal(t, "1.2.0", record.Metadata["version"], "new keys are added")
}

func TestEventLogBoundedAndOrdered(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	total := model.MaxEvents + 20
	for i := 0; i < total; i++ {
		_, err := reg.Heartbeat(ctx, id, model.StatusHealthy, fmt.Sprintf("beat-%d", i), nil)
		require.NoError(t, err)
	}

	record, err := reg.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, record.Events, model.MaxEvents)

	// Exactly the most recent beats remain, oldest first.
	first := total - model.MaxEvents
	for i, event := range record.Events {
		assert.Equal(t, fmt.Sprintf("beat-%d", first+i), event.Message)
	}
}

func TestLastHeartbeatNonDecreasing(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	prev, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "", nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "", nil)
		require.NoError(t, err)
		assert.False(t, next.LastHeartbeat.Before(*prev.LastHeartbeat))
		prev = next
	}
}

func TestListReturnsAllRecords(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	names := []string{"svc-a", "svc-b", "svc-c"}
	for _, name := range names {
		_, err := reg.Register(ctx, &model.ServiceRegistration{Name: name})
		require.NoError(t, err)
	}

	records := reg.List(ctx)
	require.Len(t, records, len(names))

	seen := make(map[string]bool)
	for _, record := range records {
		seen[record.Name] = true
	}
	for _, name := range names {
		assert.True(t, seen[name])
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	record, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "", map[string]interface{}{"k": "v"})
	require.NoError(t, err)

	// Mutating the snapshot must not leak into registry state.
	record.Metadata["k"] = "mutated"
	record.Events[0].Message = "mutated"
	last := len(record.Events) - 1
	record.Events[last].Metadata["k"] = "mutated"

	fresh, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v", fresh.Metadata["k"])
	assert.Equal(t, "registered", fresh.Events[0].Message)
	assert.Equal(t, "v", fresh.Events[last].Metadata["k"], "event metadata in a snapshot must not alias the stored event log")
}

func TestConcurrentHeartbeatsSameService(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	id, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_, err := reg.Heartbeat(ctx, id, model.StatusHealthy, "", nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	record, err := reg.Get(ctx, id)
	require.NoError(t, err)
	// 1 registration event + 200 heartbeats, trimmed to the cap.
	assert.Len(t, record.Events, model.MaxEvents, "no heartbeat may be lost or duplicated under contention")
	assert.Equal(t, model.StatusHealthy, record.Status)
}

func TestConcurrentRegisterAndList(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := reg.Register(ctx, &model.ServiceRegistration{Name: fmt.Sprintf("svc-%d-%d", n, i)})
				assert.NoError(t, err)
				reg.List(ctx)
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, reg.List(ctx), 80)
}
