package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanewatch/lanewatch/internal/core/model"
	"github.com/lanewatch/lanewatch/internal/registry"
)

func newTestServer(t *testing.T) (*echo.Echo, registry.Registry) {
	t.Helper()
	reg := registry.NewRegistry(nil, nil, nil)
	e := echo.New()
	NewHandler(reg).RegisterRoutes(e)
	return e, reg
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}) (*httptest.ResponseRecorder, *model.ApiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp model.ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, &resp
}

func dataAs(t *testing.T, resp *model.ApiResponse, out interface{}) {
	t.Helper()
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestRegisterServiceEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec, resp := doJSON(t, e, http.MethodPost, "/api/v1/services", map[string]interface{}{
		"name":     "svc-a",
		"metadata": map[string]interface{}{"region": "eu"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reg model.ServiceRegistrationResponse
	dataAs(t, resp, &reg)
	assert.NotEmpty(t, reg.ServiceID)
	assert.False(t, reg.RegisteredAt.IsZero())
}

func TestRegisterServiceRequiresName(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/services", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterServiceDuplicateID(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/services", map[string]interface{}{
		"id": "fixed-1", "name": "svc-a",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, e, http.MethodPost, "/api/v1/services", map[string]interface{}{
		"id": "fixed-1", "name": "svc-b",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHeartbeatEndpoint(t *testing.T) {
	e, reg := newTestServer(t)

	id, err := reg.Register(t.Context(), &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	rec, resp := doJSON(t, e, http.MethodPost, "/api/v1/services/"+id+"/heartbeat", map[string]interface{}{
		"status":  "warning",
		"message": "high load",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var record model.ServiceRecord
	dataAs(t, resp, &record)
	assert.Equal(t, model.StatusWarning, record.Status)
	assert.Equal(t, "high load", record.LastMessage)
}

func TestHeartbeatUnknownServiceReturns404(t *testing.T) {
	e, _ := newTestServer(t)

	rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/services/no-such-id/heartbeat", map[string]interface{}{
		"status": "healthy",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHeartbeatInvalidStatusReturns400(t *testing.T) {
	e, reg := newTestServer(t)

	id, err := reg.Register(t.Context(), &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	rec, _ := doJSON(t, e, http.MethodPost, "/api/v1/services/"+id+"/heartbeat", map[string]interface{}{
		"status": "not-a-real-status",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHeartbeatDefaultsToHealthy(t *testing.T) {
	e, reg := newTestServer(t)

	id, err := reg.Register(t.Context(), &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	rec, resp := doJSON(t, e, http.MethodPost, "/api/v1/services/"+id+"/heartbeat", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	var record model.ServiceRecord
	dataAs(t, resp, &record)
	assert.Equal(t, model.StatusHealthy, record.Status)
}

func TestGetServiceEndpoint(t *testing.T) {
	e, reg := newTestServer(t)

	id, err := reg.Register(t.Context(), &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)

	rec, resp := doJSON(t, e, http.MethodGet, "/api/v1/services/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record model.ServiceRecord
	dataAs(t, resp, &record)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "svc-a", record.Name)

	rec, _ = doJSON(t, e, http.MethodGet, "/api/v1/services/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListServicesEndpoint(t *testing.T) {
	e, reg := newTestServer(t)
	ctx := t.Context()

	idA, err := reg.Register(ctx, &model.ServiceRegistration{Name: "svc-b"})
	require.NoError(t, err)
	_, err = reg.Register(ctx, &model.ServiceRegistration{Name: "svc-a"})
	require.NoError(t, err)
	_, err = reg.Heartbeat(ctx, idA, model.StatusHealthy, "", nil)
	require.NoError(t, err)

	rec, resp := doJSON(t, e, http.MethodGet, "/api/v1/services", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list model.MultiServiceStatus
	dataAs(t, resp, &list)
	require.Len(t, list.Services, 2)
	assert.Equal(t, "svc-a", list.Services[0].Name, "records are sorted by name")
	assert.Equal(t, 1, list.Summary[model.StatusHealthy])
	assert.Equal(t, 1, list.Summary[model.StatusUnknown])
}
