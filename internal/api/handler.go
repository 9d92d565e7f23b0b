package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/lanewatch/lanewatch/internal/core/model"
	"github.com/lanewatch/lanewatch/internal/registry"
)

// Handler translates HTTP requests into registry operations.
type Handler struct {
	registry registry.Registry
}

// NewHandler creates a Handler backed by the given registry.
func NewHandler(reg registry.Registry) *Handler {
	return &Handler{registry: reg}
}

// RegisterRoutes attaches the service routes to an echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/services", h.registerService)
	api.POST("/services/:serviceId/heartbeat", h.sendHeartbeat)
	api.GET("/services/:serviceId", h.getService)
	api.GET("/services", h.listServices)
}

func successResponse(code int, message string, data interface{}) *model.ApiResponse {
	return &model.ApiResponse{Code: code, Message: message, Data: data}
}

func errorResponse(code int, message string) *model.ApiResponse {
	return &model.ApiResponse{Code: code, Message: message}
}

// registerService handles POST /api/v1/services.
func (h *Handler) registerService(c echo.Context) error {
	req := new(model.ServiceRegistration)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "invalid request body: "+err.Error()))
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "service name is required"))
	}

	serviceID, err := h.registry.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, registry.ErrDuplicateService) {
			return c.JSON(http.StatusConflict, errorResponse(http.StatusConflict, err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, "failed to register service: "+err.Error()))
	}

	record, err := h.registry.Get(c.Request().Context(), serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, err.Error()))
	}

	resp := &model.ServiceRegistrationResponse{
		ServiceID:    serviceID,
		RegisteredAt: record.CreatedAt,
	}
	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "service registered", resp))
}

// sendHeartbeat handles POST /api/v1/services/:serviceId/heartbeat.
func (h *Handler) sendHeartbeat(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "service id is required"))
	}

	req := new(model.ServiceHeartbeat)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "invalid request body: "+err.Error()))
	}

	status := model.StatusHealthy
	if req.Status != "" {
		var err error
		if status, err = model.ParseStatus(req.Status); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, err.Error()))
		}
	}

	record, err := h.registry.Heartbeat(c.Request().Context(), serviceID, status, req.Message, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrServiceNotFound):
			return c.JSON(http.StatusNotFound, errorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, registry.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, err.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, "failed to process heartbeat: "+err.Error()))
		}
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "heartbeat received", record))
}

// getService handles GET /api/v1/services/:serviceId.
func (h *Handler) getService(c echo.Context) error {
	serviceID := c.Param("serviceId")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "service id is required"))
	}

	record, err := h.registry.Get(c.Request().Context(), serviceID)
	if err != nil {
		if errors.Is(err, registry.ErrServiceNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse(http.StatusNotFound, err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "ok", record))
}

// listServices handles GET /api/v1/services. Records are sorted by name
// for stable output; the registry itself guarantees no order.
func (h *Handler) listServices(c echo.Context) error {
	records := h.registry.List(c.Request().Context())
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})

	summary := make(map[model.Status]int)
	for _, record := range records {
		summary[record.Status]++
	}

	resp := &model.MultiServiceStatus{
		Services: records,
		Summary:  summary,
	}
	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "ok", resp))
}
