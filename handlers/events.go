package handlers

import (
	"net/http"
	"strings"

	"fleet-track/models"
	"fleet-track/repositories/base"
	"fleet-track/services"
	"fleet-track/utils"

	"github.com/labstack/echo/v4"
)

// ===================================================================
// EVENT QUERY APIs
// ===================================================================

// rangeCriteriaFromRequest assembles range criteria from the optional query
// parameters. Missing bounds default to unbounded.
func rangeCriteriaFromRequest(c echo.Context) services.RangeCriteria {
	limitType := services.LimitFirst
	if strings.EqualFold(c.QueryParam("limitType"), "last") {
		limitType = services.LimitLast
	}
	ascending := !strings.EqualFold(c.QueryParam("order"), "desc")

	return services.RangeCriteria{
		AccountID:    c.Param("accountId"),
		DeviceID:     c.Param("deviceId"),
		TimeStart:    utils.GetInt64OrDefault(c.QueryParam("from"), -1),
		TimeEnd:      utils.GetInt64OrDefault(c.QueryParam("to"), -1),
		StatusCodes:  utils.ParseStatusCodes(c.QueryParam("statusCodes")),
		ValidGPSOnly: c.QueryParam("validOnly") == "true",
		LimitType:    limitType,
		Limit:        utils.GetIntOrDefault(c.QueryParam("limit"), 0),
		Ascending:    ascending,
	}
}

// QueryEvents returns an ordered slice of the device's event log.
func (h *APIHandler) QueryEvents(c echo.Context) error {
	criteria := rangeCriteriaFromRequest(c)
	events, err := h.engine.QueryRange(criteria)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	data := map[string]interface{}{
		"events": events,
		"count":  len(events),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Events retrieved successfully", data))
}

// CountEvents returns the number of events matching the same filters as
// QueryEvents.
func (h *APIHandler) CountEvents(c echo.Context) error {
	criteria := rangeCriteriaFromRequest(c)
	count, err := h.engine.CountRange(criteria)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	data := map[string]interface{}{
		"count": count,
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Events counted successfully", data))
}

// GetLastEvent returns the device's most recent event.
func (h *APIHandler) GetLastEvent(c echo.Context) error {
	accountID := c.Param("accountId")
	deviceID := c.Param("deviceId")
	validOnly := c.QueryParam("validOnly") == "true"

	ev, err := h.engine.GetLastEvent(accountID, deviceID, validOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if ev == nil {
		return c.JSON(http.StatusNotFound, utils.ErrorResponse("no events for device"))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Last event retrieved successfully", ev))
}

// GetDistance returns the cumulative GPS-derived distance traveled in the
// requested window, optionally seeded with a starting odometer value.
func (h *APIHandler) GetDistance(c echo.Context) error {
	accountID := c.Param("accountId")
	deviceID := c.Param("deviceId")
	timeStart := utils.GetInt64OrDefault(c.QueryParam("from"), -1)
	timeEnd := utils.GetInt64OrDefault(c.QueryParam("to"), -1)
	seedOdometer := utils.GetFloatOrDefault(c.QueryParam("seedOdometerKM"), 0)

	var seedPoint *models.GeoPoint
	if lat, lon := c.QueryParam("seedLatitude"), c.QueryParam("seedLongitude"); lat != "" && lon != "" {
		seedPoint = &models.GeoPoint{
			Latitude:  utils.GetFloatOrDefault(lat, 0),
			Longitude: utils.GetFloatOrDefault(lon, 0),
		}
	}

	distanceKM, err := h.distance.Accumulate(accountID, deviceID, timeStart, timeEnd, seedPoint, seedOdometer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	data := map[string]interface{}{
		"distanceKM": distanceKM,
		"from":       timeStart,
		"to":         timeEnd,
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Distance computed successfully", data))
}

// ===================================================================
// EVENT INGEST API
// ===================================================================

// IngestEventRequest is the HTTP alternative to the MQTT event topic.
type IngestEventRequest struct {
	Timestamp    int64   `json:"timestamp"`
	StatusCode   int     `json:"statusCode"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	GPSAgeSec    int64   `json:"gpsAge"`
	SpeedKPH     float64 `json:"speedKPH"`
	Heading      float64 `json:"heading"`
	AltitudeM    float64 `json:"altitudeM"`
	OdometerKM   float64 `json:"odometerKM"`
	DistanceKM   float64 `json:"distanceKM"`
	GeozoneIndex int64   `json:"geozoneIndex"`
	InputMask    int64   `json:"inputMask"`
	EntityID     string  `json:"entityId"`
	DriverID     string  `json:"driverId"`
}

// IngestEvent accepts one event over HTTP and runs it through the same
// pipeline as the MQTT path.
func (h *APIHandler) IngestEvent(c echo.Context) error {
	accountID := c.Param("accountId")
	deviceID := c.Param("deviceId")

	var req IngestEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid event payload"))
	}

	device, err := h.db.DeviceRepo.GetByKey(accountID, deviceID)
	if err != nil {
		if base.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, utils.ErrorResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}

	ev := &models.EventRecord{
		AccountID:    accountID,
		DeviceID:     deviceID,
		Timestamp:    req.Timestamp,
		StatusCode:   req.StatusCode,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		GPSAgeSec:    req.GPSAgeSec,
		SpeedKPH:     req.SpeedKPH,
		Heading:      req.Heading,
		AltitudeM:    req.AltitudeM,
		OdometerKM:   req.OdometerKM,
		DistanceKM:   req.DistanceKM,
		GeozoneIndex: req.GeozoneIndex,
		InputMask:    req.InputMask,
		EntityID:     req.EntityID,
		DriverID:     req.DriverID,
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = utils.GetUnixTimestamp()
	}

	tx := h.db.UoW.Begin()
	res, err := h.pipeline.Ingest(tx, device, ev)
	if err != nil {
		h.db.UoW.Rollback(tx)
		if base.IsDuplicate(err) {
			return c.JSON(http.StatusConflict, utils.ErrorResponse(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if err := h.db.UoW.Commit(tx); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if !res.Accepted {
		return c.JSON(http.StatusAccepted, utils.SuccessResponse("Event filtered", nil))
	}

	// Deferred enrichment and rule actions run only once the row is durable.
	h.pipeline.Finalize(device, ev, res)

	if err := h.db.DeviceRepo.SaveState(device); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if h.redis != nil {
		// Cache refresh is best-effort.
		_ = h.redis.SaveDeviceState(device)
	}

	return c.JSON(http.StatusCreated, utils.SuccessResponse("Event ingested successfully", ev))
}
