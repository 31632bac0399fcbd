package handlers

import (
	"net/http"

	"fleet-track/database"
	"fleet-track/redis"
	"fleet-track/repositories/base"
	"fleet-track/services"
	"fleet-track/utils"

	"github.com/labstack/echo/v4"
)

// APIHandler handles all API requests of the tracking service.
type APIHandler struct {
	db       *database.Database
	redis    *redis.RedisClient
	pipeline *services.IngestionPipeline
	engine   *services.RangeQueryEngine
	distance *services.DistanceAccumulator
}

// NewAPIHandler creates a new instance of APIHandler.
func NewAPIHandler(db *database.Database, redisClient *redis.RedisClient, pipeline *services.IngestionPipeline, engine *services.RangeQueryEngine, distance *services.DistanceAccumulator) *APIHandler {
	return &APIHandler{
		db:       db,
		redis:    redisClient,
		pipeline: pipeline,
		engine:   engine,
		distance: distance,
	}
}

// RegisterRoutes wires all API routes onto the echo instance.
func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/health", h.HealthCheck)

	api.GET("/accounts/:accountId/devices", h.ListDevices)
	api.GET("/accounts/:accountId/devices/:deviceId/state", h.GetDeviceState)
	api.GET("/accounts/:accountId/devices/:deviceId/events", h.QueryEvents)
	api.GET("/accounts/:accountId/devices/:deviceId/events/count", h.CountEvents)
	api.GET("/accounts/:accountId/devices/:deviceId/events/last", h.GetLastEvent)
	api.GET("/accounts/:accountId/devices/:deviceId/distance", h.GetDistance)
	api.POST("/accounts/:accountId/devices/:deviceId/events", h.IngestEvent)
}

// ===================================================================
// HEALTH CHECK
// ===================================================================

// HealthCheck provides a simple health status of the service.
func (h *APIHandler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"service":   "fleet-track",
		"timestamp": utils.GetUnixTimestamp(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Service is healthy", data))
}

// ===================================================================
// DEVICE MANAGEMENT
// ===================================================================

// ListDevices retrieves all devices of an account.
func (h *APIHandler) ListDevices(c echo.Context) error {
	accountID := c.Param("accountId")
	devices, err := h.db.DeviceRepo.ListByAccount(accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	data := map[string]interface{}{
		"devices": devices,
		"count":   len(devices),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Devices retrieved successfully", data))
}

// GetDeviceState retrieves the last-known device state, preferring the redis
// cache and falling back to the database row.
func (h *APIHandler) GetDeviceState(c echo.Context) error {
	accountID := c.Param("accountId")
	deviceID := c.Param("deviceId")

	if h.redis != nil {
		if cached, err := h.redis.GetDeviceState(accountID, deviceID); err == nil && cached != nil {
			return c.JSON(http.StatusOK, utils.SuccessResponse("Device state retrieved from cache", cached))
		}
	}

	device, err := h.db.DeviceRepo.GetByKey(accountID, deviceID)
	if err != nil {
		if base.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, utils.ErrorResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Device state retrieved successfully", device))
}
